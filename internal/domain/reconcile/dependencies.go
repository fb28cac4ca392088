package reconcile

import "sort"

// Compose service names of the facilitator deployment.
const (
	ServiceFacilitator = "facilitator"
	ServiceProxy       = "proxy"
)

// DependencyTable maps tracked config file names (relative to the
// deploy root) to the services that must restart when the file
// changes.
type DependencyTable map[string][]string

// DefaultDependencies returns the static dependency table for the
// facilitator deployment.
func DefaultDependencies() DependencyTable {
	return DependencyTable{
		"config.toml":  {ServiceFacilitator},
		".env":         {ServiceFacilitator},
		"Caddyfile":    {ServiceProxy},
		"compose.yaml": {ServiceFacilitator, ServiceProxy},
	}
}

// TrackedFiles returns the tracked file names in stable order.
func (t DependencyTable) TrackedFiles() []string {
	files := make([]string, 0, len(t))
	for name := range t {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

// ServicesFor returns the services depending on the given file.
func (t DependencyTable) ServicesFor(file string) []string {
	return t[file]
}

// RestartSet returns the union of services depending on any of the
// changed files, sorted and deduplicated.
func (t DependencyTable) RestartSet(changed []string) []string {
	seen := make(map[string]bool)
	for _, file := range changed {
		for _, svc := range t[file] {
			seen[svc] = true
		}
	}
	set := make([]string, 0, len(seen))
	for svc := range seen {
		set = append(set, svc)
	}
	sort.Strings(set)
	return set
}
