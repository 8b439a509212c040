// Package registry tracks the application versions currently deployed on
// this node, keyed by version. It is the process-resident counterpart of the
// deploy/undeploy lifecycle: descriptors enter at deploy time and drop out,
// with all derived state, at undeploy.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/AppHost-Network/host_runtime/internal/appversion"
	"github.com/AppHost-Network/host_runtime/internal/metrics"
)

var (
	// ErrDuplicateVersion is returned when registering an already-known key.
	ErrDuplicateVersion = errors.New("registry: version already registered")
	// ErrVersionNotFound is returned for lookups of unknown keys.
	ErrVersionNotFound = errors.New("registry: version not found")
)

// Registry is a thread-safe map of deployed version descriptors.
type Registry struct {
	mu       sync.RWMutex
	versions map[appversion.VersionKey]*appversion.AppVersion
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{versions: make(map[appversion.VersionKey]*appversion.AppVersion)}
}

// Register adds a deployed version. Keys are unique per node.
func (r *Registry) Register(av *appversion.AppVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := av.Key()
	if _, exists := r.versions[key]; exists {
		return ErrDuplicateVersion
	}
	r.versions[key] = av
	metrics.SetDeployedVersions(len(r.versions))
	return nil
}

// Get returns the descriptor for a key.
func (r *Registry) Get(key appversion.VersionKey) (*appversion.AppVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	av, ok := r.versions[key]
	if !ok {
		return nil, ErrVersionNotFound
	}
	return av, nil
}

// Remove drops an undeployed version.
func (r *Registry) Remove(key appversion.VersionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.versions[key]; !ok {
		return ErrVersionNotFound
	}
	delete(r.versions, key)
	metrics.SetDeployedVersions(len(r.versions))
	return nil
}

// List returns the deployed descriptors ordered by key.
func (r *Registry) List() []*appversion.AppVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*appversion.AppVersion, 0, len(r.versions))
	for _, av := range r.versions {
		out = append(out, av)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}
