package appversion

import (
	"os"
	"path/filepath"

	"github.com/AppHost-Network/host_runtime/internal/manifest"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

// staticPrefix is prepended to the path of every hosted blob. The edge layer
// has a fallthrough handler that serves requests as __static__/\1.
const staticPrefix = "__static__/"

// buildResourceFiles derives the resource membership set. A non-empty
// declared file list wins verbatim; otherwise an existing root directory is
// walked recursively, following symbolic links. Walk failures degrade to an
// empty set.
func buildResourceFiles(m *manifest.Manifest, root string, log *logger.Logger) map[string]struct{} {
	if len(m.Files) > 0 {
		files := make(map[string]struct{}, len(m.Files))
		for _, f := range m.Files {
			files[f.Path] = struct{}{}
		}
		return files
	}

	if root != "" {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			files, err := walkRoot(root)
			if err == nil {
				return files
			}
			log.WithError(err).Warnf("cannot list files in %s", root)
		}
	}

	return map[string]struct{}{}
}

// buildStaticFiles derives the static membership set from the declared blob
// list. There is no filesystem fallback for blobs.
func buildStaticFiles(m *manifest.Manifest) map[string]struct{} {
	files := make(map[string]struct{}, len(m.Blobs))
	for _, b := range m.Blobs {
		files[b.Path] = struct{}{}
	}
	return files
}

// walkRoot collects the root-relative slash-normalized path of every entry
// under root, the root itself included as the empty string. Symbolic links
// are followed; already-visited directories are skipped so link cycles
// terminate.
func walkRoot(root string) (map[string]struct{}, error) {
	files := map[string]struct{}{"": {}}
	seen := make(map[string]struct{})

	var walk func(dir string) error
	walk = func(dir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if _, ok := seen[real]; ok {
			return nil
		}
		seen[real] = struct{}{}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			rel, err := filepath.Rel(root, full)
			if err != nil {
				return err
			}
			files[filepath.ToSlash(rel)] = struct{}{}

			info, err := os.Stat(full)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}
