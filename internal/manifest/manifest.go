// Package manifest defines the deploy-time description of one application
// version: identity, declared resource files, externally hosted blobs and the
// configuration the hosting node needs to serve it.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the build pipeline's description of a deployed version.
type Manifest struct {
	// Application is the application identifier.
	Application string `json:"application" yaml:"application"`

	// Version is the version identifier within the application.
	Version string `json:"version" yaml:"version"`

	// PublicRoot is the raw parent directory for resource and static files.
	PublicRoot string `json:"public_root,omitempty" yaml:"public_root,omitempty"`

	// Files lists the resource files uploaded with this version. An empty
	// list is legal and enables the root-directory fallback.
	Files []File `json:"files,omitempty" yaml:"files,omitempty"`

	// Blobs lists the static files hosted outside application code.
	Blobs []Blob `json:"blobs,omitempty" yaml:"blobs,omitempty"`

	// Env carries application-defined environment variables.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Sessions configures the external session store binding.
	Sessions Sessions `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// File is one declared resource file entry.
type File struct {
	Path string `json:"path" yaml:"path"`
}

// Blob is one declared static file entry.
type Blob struct {
	Path string `json:"path" yaml:"path"`
}

// Sessions configures session handling for a version.
type Sessions struct {
	Enabled          bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	AsyncPersistence bool   `json:"async_persistence,omitempty" yaml:"async_persistence,omitempty"`
	AsyncQueueName   string `json:"async_queue_name,omitempty" yaml:"async_queue_name,omitempty"`
}

// Load loads a manifest from a file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, path)
}

// Parse parses manifest data, picking the codec from the file extension and
// falling back to trying both.
func Parse(data []byte, filename string) (*Manifest, error) {
	var m Manifest

	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	} else if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &m); err != nil {
			if err := yaml.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("parse manifest: %w", err)
			}
		}
	}

	return &m, nil
}

// Validate validates the manifest.
func (m *Manifest) Validate() error {
	var errs []string

	if m.Application == "" {
		errs = append(errs, "application is required")
	}
	if m.Version == "" {
		errs = append(errs, "version is required")
	}
	for i, f := range m.Files {
		if f.Path == "" {
			errs = append(errs, fmt.Sprintf("files[%d]: path is required", i))
		}
	}
	for i, b := range m.Blobs {
		if b.Path == "" {
			errs = append(errs, fmt.Sprintf("blobs[%d]: path is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return nil
}

// FilePaths returns the declared resource paths in declaration order.
func (m *Manifest) FilePaths() []string {
	paths := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// BlobPaths returns the declared static paths in declaration order.
func (m *Manifest) BlobPaths() []string {
	paths := make([]string, 0, len(m.Blobs))
	for _, b := range m.Blobs {
		paths = append(paths, b.Path)
	}
	return paths
}
