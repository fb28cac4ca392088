package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// RestartError reports services whose restart failed during a reload.
// The reload still attempts every service in the restart set and still
// rewrites the snapshot; the error names the stragglers.
type RestartError struct {
	Failed map[string]error
}

// NewRestartError creates a restart error over the failed services.
func NewRestartError(failed map[string]error) *RestartError {
	return &RestartError{Failed: failed}
}

// Error returns the failed service names in stable order.
func (e *RestartError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for svc := range e.Failed {
		names = append(names, svc)
	}
	sort.Strings(names)
	return fmt.Sprintf("restart failed for %s", strings.Join(names, ", "))
}

// Services returns the failed service names in stable order.
func (e *RestartError) Services() []string {
	names := make([]string, 0, len(e.Failed))
	for svc := range e.Failed {
		names = append(names, svc)
	}
	sort.Strings(names)
	return names
}
