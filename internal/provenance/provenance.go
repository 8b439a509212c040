// Package provenance resolves where an application version's source came
// from. Resolution reads two optional files under the version's root
// directory, runs at most once per resolver, and never fails: any missing,
// unreadable or malformed input degrades to "no provenance".
package provenance

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/magiconair/properties"
	"github.com/tidwall/gjson"

	"github.com/AppHost-Network/host_runtime/internal/metrics"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

const (
	sourceContextPath = "WEB-INF/classes/source-context.json"

	// gitPropertiesPath is generated by git-commit-id build plugins. Only the
	// default file name and key names are recognized.
	gitPropertiesPath = "WEB-INF/classes/git.properties"

	gitURLKey    = "git.remote.origin.url"
	gitCommitKey = "git.commit.id"
)

// GitContext identifies a revision in a git repository.
type GitContext struct {
	URL        string `json:"url"`
	RevisionID string `json:"revisionId"`
}

// SourceContext is a one-of record describing source origin. Git is the only
// recognized variant; a nil SourceContext means no provenance was found.
type SourceContext struct {
	Git *GitContext `json:"git,omitempty"`
}

// ReadFileFunc reads a file's contents. Injectable for tests.
type ReadFileFunc func(path string) ([]byte, error)

// Option configures a Resolver.
type Option func(*Resolver)

// WithReadFile replaces the file reader used during resolution.
func WithReadFile(fn ReadFileFunc) Option {
	return func(r *Resolver) { r.readFile = fn }
}

// Resolver lazily resolves the source context for one root directory. The
// zero state is unresolved; the first Resolve call transitions it, atomically
// for every reader, to a resolved value that is never recomputed.
type Resolver struct {
	root     string
	log      *logger.Logger
	readFile ReadFileFunc

	once     sync.Once
	resolved *SourceContext
}

// NewResolver creates a resolver for the given root directory.
func NewResolver(root string, log *logger.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = logger.NewDefault("provenance")
	}
	r := &Resolver{
		root:     root,
		log:      log,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the source context, resolving it on the first call. All
// callers observe the same value; nil means no provenance.
func (r *Resolver) Resolve() *SourceContext {
	r.once.Do(func() {
		r.resolved = r.resolve()
		outcome := "none"
		if r.resolved != nil && r.resolved.Git != nil {
			outcome = "git"
		}
		metrics.ObserveProvenanceResolution(outcome)
	})
	return r.resolved
}

// resolve tries each source in order and stops at the first hit.
func (r *Resolver) resolve() *SourceContext {
	for _, attempt := range []func() *SourceContext{
		r.fromSourceContextFile,
		r.fromGitProperties,
	} {
		if ctx := attempt(); ctx != nil {
			return ctx
		}
	}
	return nil
}

// fromSourceContextFile reads the JSON source context dropped into the bundle
// by the build pipeline. An unset or unrecognized context is treated as
// absent.
func (r *Resolver) fromSourceContextFile() *SourceContext {
	data, err := r.readFile(filepath.Join(r.root, filepath.FromSlash(sourceContextPath)))
	if err != nil {
		return nil
	}
	if !gjson.ValidBytes(data) {
		return nil
	}
	git := gjson.GetBytes(data, "git")
	if !git.Exists() || !git.IsObject() {
		return nil
	}
	return &SourceContext{
		Git: &GitContext{
			URL:        git.Get("url").String(),
			RevisionID: git.Get("revisionId").String(),
		},
	}
}

// fromGitProperties derives a git context from the flat properties file. Both
// the remote URL and the commit id must be present.
func (r *Resolver) fromGitProperties() *SourceContext {
	data, err := r.readFile(filepath.Join(r.root, filepath.FromSlash(gitPropertiesPath)))
	if err != nil {
		return nil
	}
	props, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil
	}

	url, okURL := props.Get(gitURLKey)
	commit, okCommit := props.Get(gitCommitKey)
	if !okURL || !okCommit {
		return nil
	}

	r.log.Infof("found git properties, generated source context for %s@%s", url, commit)
	return &SourceContext{
		Git: &GitContext{URL: url, RevisionID: commit},
	}
}
