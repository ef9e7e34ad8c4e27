// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// DefaultPatterns select the description files discovery looks for.
	DefaultPatterns = []string{"**/BUILD.cue", "**/BUILD.hcl"}
	// DefaultExcludes are skipped unless the configuration overrides them.
	DefaultExcludes = []string{"**/.git/**", "**/node_modules/**"}
)

// Source is one description file found under a root directory.
type Source struct {
	// Root is the directory discovery started from, as given.
	Root string
	// Rel is the slash-separated path below Root.
	Rel string
}

// Path returns the file path, joined onto Root.
func (s Source) Path() string {
	return filepath.Join(s.Root, filepath.FromSlash(s.Rel))
}

// Dirname returns the slash-separated directory holding the file, in the
// same form as Root. It is "." for a description at the top of a relative
// root ".".
func (s Source) Dirname() string {
	return path.Clean(filepath.ToSlash(filepath.Dir(s.Path())))
}

// Ext returns the file extension including the dot.
func (s Source) Ext() string { return path.Ext(s.Rel) }

// ValidatePatterns checks that every pattern is a well-formed doublestar glob.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}
	return nil
}

// Discover finds the files matching patterns below each root, skipping those
// matching exclude. Roots are searched in order; the files of one root are
// sorted by path and each file is reported once.
func Discover(ctx context.Context, roots, patterns, exclude []string) ([]Source, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if err := ValidatePatterns(patterns); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(exclude); err != nil {
		return nil, err
	}

	var out []Source
	seen := make(map[string]bool)
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("discover %s: not a directory", root)
		}

		matches, err := globAll(os.DirFS(root), patterns)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		for _, rel := range matches {
			if excluded(rel, exclude) {
				continue
			}
			src := Source{Root: root, Rel: rel}
			key := filepath.Clean(src.Path())
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, src)
		}
	}
	return out, nil
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	var all []string
	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}

func excluded(rel string, exclude []string) bool {
	for _, pat := range exclude {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}
