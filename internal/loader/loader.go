// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/buildgraph/buildgraph/internal/digest"
	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
)

type (
	// Loader reads description files into declarations.
	Loader struct {
		logger      *log.Logger
		hasher      *digest.Hasher
		maxFileSize int64
		dialects    map[string]dialect
	}

	// Option configures a Loader.
	Option func(*Loader)

	// dialect decodes one description format.
	dialect interface {
		name() string
		decode(file string, data []byte, maxSize int64) ([]rawPackage, error)
	}

	// rawPackage is a package as written, before types are checked and
	// paths are resolved.
	rawPackage struct {
		Name     string
		Type     string
		Provides string
		Enabled  bool
		Files    []string
		Requires []rawRequirement
		Plugin   any
		Location buildgraph.Location
	}

	rawRequirement struct {
		Name     string
		Link     bool
		Syntax   bool
		Optional bool
		Options  map[string]string
	}
)

// WithLogger routes loader diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHasher makes the loader fill in the digest of every defining file.
func WithHasher(h *digest.Hasher) Option {
	return func(l *Loader) { l.hasher = h }
}

// WithMaxFileSize bounds the size of a single description file.
func WithMaxFileSize(n int64) Option {
	return func(l *Loader) { l.maxFileSize = n }
}

// New creates a Loader understanding the CUE and HCL dialects.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger:      log.New(io.Discard),
		maxFileSize: cueutil.DefaultMaxFileSize,
		dialects: map[string]dialect{
			".cue": cueDialect{},
			".hcl": hclDialect{},
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes every source in order. It stops at the first file that cannot
// be read or decoded, and checks ctx between files.
func (l *Loader) Load(ctx context.Context, sources []Source) ([]buildgraph.Declaration, error) {
	var decls []buildgraph.Declaration
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDecls, err := l.loadFile(ctx, src)
		if err != nil {
			return nil, err
		}
		decls = append(decls, fileDecls...)
	}
	return decls, nil
}

// LoadDirs discovers descriptions below roots and loads them. It returns
// ErrNoDescriptions when nothing matches.
func (l *Loader) LoadDirs(ctx context.Context, roots, patterns, exclude []string) ([]buildgraph.Declaration, error) {
	sources, err := Discover(ctx, roots, patterns, exclude)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoDescriptions
	}
	l.logger.Debug("discovered descriptions", "count", len(sources))
	return l.Load(ctx, sources)
}

func (l *Loader) loadFile(ctx context.Context, src Source) ([]buildgraph.Declaration, error) {
	file := src.Path()
	d, ok := l.dialects[src.Ext()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, ErrUnsupportedDialect)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}
	raws, err := d.decode(file, data, l.maxFileSize)
	if err != nil {
		return nil, &DescriptionError{File: file, Err: err}
	}

	decls := make([]buildgraph.Declaration, 0, len(raws))
	for _, raw := range raws {
		decl, err := declare(src, d.name(), raw)
		if err != nil {
			return nil, err
		}
		if l.hasher != nil {
			if err := l.hasher.Fill(ctx, decl.Files); err != nil {
				return nil, &DescriptionError{File: file, Package: raw.Name, Err: err}
			}
		}
		decls = append(decls, decl)
	}
	l.logger.Debug("loaded description", "file", file, "dialect", d.name(), "packages", len(decls))
	return decls, nil
}

// declare checks a raw package and converts it into a declaration.
func declare(src Source, kind string, raw rawPackage) (buildgraph.Declaration, error) {
	file := src.Path()
	typ := buildgraph.Library
	if raw.Type != "" {
		t, err := buildgraph.ParsePackageType(raw.Type)
		if err != nil {
			return buildgraph.Declaration{}, &DescriptionError{File: file, Package: raw.Name, Err: err}
		}
		typ = t
	}

	dir := filepath.Dir(file)
	files := make(buildgraph.DigestSet, 0, len(raw.Files)+1)
	files = append(files, buildgraph.DefiningFile{Path: file})
	for _, f := range raw.Files {
		p := filepath.FromSlash(f)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		files = append(files, buildgraph.DefiningFile{Path: p})
	}

	reqs := make([]buildgraph.Requirement, len(raw.Requires))
	for i, r := range raw.Requires {
		reqs[i] = buildgraph.Requirement{
			Target:   r.Name,
			Link:     r.Link,
			Syntax:   r.Syntax,
			Optional: r.Optional,
		}
		if len(r.Options) > 0 {
			reqs[i].Options = buildgraph.Options(r.Options)
		}
	}

	return buildgraph.Declaration{
		Metadata: buildgraph.Metadata{
			Name:       raw.Name,
			Dirname:    src.Dirname(),
			SourceKind: kind,
			Provides:   raw.Provides,
			Type:       typ,
			Location:   raw.Location,
			Files:      files,
			Plugin:     raw.Plugin,
		},
		Requirements: reqs,
		Disabled:     !raw.Enabled,
	}, nil
}
