// Package appversion holds the runtime descriptor for one deployed
// application version. A descriptor is built once per deploy event and
// consulted by every request served for that version; everything it exposes
// is immutable after construction except the lazily resolved source
// provenance.
package appversion

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/AppHost-Network/host_runtime/internal/manifest"
	"github.com/AppHost-Network/host_runtime/internal/provenance"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

// VersionKey identifies one application version.
type VersionKey struct {
	AppID     string
	VersionID string
}

// NewVersionKey creates a key with a generated version identifier, for
// ad-hoc deploys that carry no pipeline-assigned version.
func NewVersionKey(appID string) VersionKey {
	return VersionKey{AppID: appID, VersionID: uuid.NewString()}
}

func (k VersionKey) String() string {
	return k.AppID + "/" + k.VersionID
}

// IsZero reports whether the key is unset.
func (k VersionKey) IsZero() bool {
	return k == VersionKey{}
}

// Environment is the application-level configuration handed to the
// descriptor by the deploy pipeline. The descriptor holds and returns it
// without interpreting it.
type Environment struct {
	Variables map[string]string
}

// SessionsConfig configures the external session store binding for a
// version. Held by reference, never mutated here.
type SessionsConfig struct {
	Enabled          bool
	AsyncPersistence bool
	AsyncQueueName   string
}

// ThreadPool is the external worker pool a version's requests run on. The
// descriptor only hands the reference back to request-serving code.
type ThreadPool interface {
	Submit(name string, task func()) error
}

// AppVersion encapsulates the configuration associated with one version of a
// particular application. Do not construct it directly; use NewBuilder.
type AppVersion struct {
	key            VersionKey
	rootDirectory  string
	codeDomain     CodeDomain
	environment    *Environment
	sessionsConfig SessionsConfig
	publicRoot     string
	threadPool     ThreadPool

	resourceFiles map[string]struct{}
	staticFiles   map[string]struct{}

	trust      trustClassifier
	provenance *provenance.Resolver
}

// Builder assembles an AppVersion. Finish with Build, which validates
// required fields and performs the one-time derivations.
type Builder struct {
	key           VersionKey
	manifest      *manifest.Manifest
	rootDirectory string
	codeDomain    CodeDomain
	runtimeDomain CodeDomain
	systemDomains SystemDomainsFunc
	environment   *Environment
	sessions      SessionsConfig
	publicRoot    string
	threadPool    ThreadPool
	log           *logger.Logger
}

// NewBuilder returns an empty AppVersion builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Key(k VersionKey) *Builder                  { b.key = k; return b }
func (b *Builder) Manifest(m *manifest.Manifest) *Builder     { b.manifest = m; return b }
func (b *Builder) RootDirectory(dir string) *Builder          { b.rootDirectory = dir; return b }
func (b *Builder) CodeDomain(d CodeDomain) *Builder           { b.codeDomain = d; return b }
func (b *Builder) RuntimeDomain(d CodeDomain) *Builder        { b.runtimeDomain = d; return b }
func (b *Builder) SystemDomains(f SystemDomainsFunc) *Builder { b.systemDomains = f; return b }
func (b *Builder) Environment(e *Environment) *Builder        { b.environment = e; return b }
func (b *Builder) SessionsConfig(s SessionsConfig) *Builder   { b.sessions = s; return b }
func (b *Builder) PublicRoot(root string) *Builder            { b.publicRoot = root; return b }
func (b *Builder) ThreadPool(p ThreadPool) *Builder           { b.threadPool = p; return b }
func (b *Builder) Logger(l *logger.Logger) *Builder           { b.log = l; return b }

// Build validates the builder and constructs the descriptor.
func (b *Builder) Build() (*AppVersion, error) {
	if b.key.IsZero() {
		return nil, errors.New("appversion: version key is required")
	}
	if b.manifest == nil {
		return nil, errors.New("appversion: manifest is required")
	}

	log := b.log
	if log == nil {
		log = logger.NewDefault("appversion")
	}
	log = log.WithField("version", b.key.String())

	systemDomains := b.systemDomains
	if systemDomains == nil {
		systemDomains = func() CodeDomain { return nil }
	}

	return &AppVersion{
		key:            b.key,
		rootDirectory:  b.rootDirectory,
		codeDomain:     b.codeDomain,
		environment:    b.environment,
		sessionsConfig: b.sessions,
		publicRoot:     normalizePublicRoot(b.publicRoot),
		threadPool:     b.threadPool,
		resourceFiles:  buildResourceFiles(b.manifest, b.rootDirectory, log),
		staticFiles:    buildStaticFiles(b.manifest),
		trust: trustClassifier{
			app:     b.codeDomain,
			runtime: b.runtimeDomain,
			system:  systemDomains,
		},
		provenance: provenance.NewResolver(b.rootDirectory, log),
	}, nil
}

// normalizePublicRoot strips the leading separator and guarantees exactly one
// trailing separator on non-empty roots. Idempotent.
func normalizePublicRoot(root string) string {
	if root == "" {
		return ""
	}
	root = strings.TrimPrefix(root, "/")
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// Key returns the identifier for this version.
func (av *AppVersion) Key() VersionKey {
	return av.key
}

// RootDirectory returns the top-level directory under which all of the
// version's resource files are made available.
func (av *AppVersion) RootDirectory() string {
	return av.rootDirectory
}

// CodeDomain returns the isolation context that loads this version's code.
func (av *AppVersion) CodeDomain() CodeDomain {
	return av.codeDomain
}

// Environment returns the environment configured for the application.
func (av *AppVersion) Environment() *Environment {
	return av.environment
}

// SessionsConfig returns the session store binding for this version.
func (av *AppVersion) SessionsConfig() SessionsConfig {
	return av.sessionsConfig
}

// ThreadPool returns the worker pool requests for this version run on.
func (av *AppVersion) ThreadPool() ThreadPool {
	return av.threadPool
}

// PublicRoot returns the normalized parent directory for all static and
// resource files.
func (av *AppVersion) PublicRoot() string {
	return av.publicRoot
}

// IsResourceFile reports whether path is a resource file uploaded as part of
// this application version.
func (av *AppVersion) IsResourceFile(path string) bool {
	_, ok := av.resourceFiles[av.publicRoot+path]
	return ok
}

// IsStaticFile reports whether path is a static file hosted for this version
// outside application code.
func (av *AppVersion) IsStaticFile(path string) bool {
	_, ok := av.staticFiles[staticPrefix+av.publicRoot+path]
	return ok
}

// ClassifyCode returns the trust category of the code domain that loaded a
// unit of executing code.
func (av *AppVersion) ClassifyCode(d CodeDomain) TrustCategory {
	return av.trust.Classify(d)
}

// SourceContext resolves and returns the version's source provenance. The
// first call performs the resolution; every later call, concurrent or not,
// observes the same cached result. A nil result means no provenance.
func (av *AppVersion) SourceContext() *provenance.SourceContext {
	return av.provenance.Resolve()
}
