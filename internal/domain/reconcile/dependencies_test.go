package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDependencies_TrackedFiles(t *testing.T) {
	deps := DefaultDependencies()
	assert.Equal(t, []string{".env", "Caddyfile", "compose.yaml", "config.toml"}, deps.TrackedFiles())
}

func TestDependencyTable_ServicesFor(t *testing.T) {
	deps := DefaultDependencies()

	assert.Equal(t, []string{ServiceFacilitator}, deps.ServicesFor("config.toml"))
	assert.Equal(t, []string{ServiceFacilitator}, deps.ServicesFor(".env"))
	assert.Equal(t, []string{ServiceProxy}, deps.ServicesFor("Caddyfile"))
	assert.Equal(t, []string{ServiceFacilitator, ServiceProxy}, deps.ServicesFor("compose.yaml"))
	assert.Nil(t, deps.ServicesFor("unknown.txt"))
}

func TestDependencyTable_RestartSet(t *testing.T) {
	deps := DefaultDependencies()

	tests := []struct {
		name    string
		changed []string
		want    []string
	}{
		{
			name:    "empty",
			changed: nil,
			want:    []string{},
		},
		{
			name:    "single facilitator file",
			changed: []string{"config.toml"},
			want:    []string{ServiceFacilitator},
		},
		{
			name:    "proxy file",
			changed: []string{"Caddyfile"},
			want:    []string{ServiceProxy},
		},
		{
			name:    "overlapping dependents are deduplicated",
			changed: []string{"config.toml", ".env", "compose.yaml"},
			want:    []string{ServiceFacilitator, ServiceProxy},
		},
		{
			name:    "untracked files contribute nothing",
			changed: []string{"README.md"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deps.RestartSet(tt.changed))
		})
	}
}
