// SPDX-License-Identifier: MPL-2.0

package loader

import (
	_ "embed"

	"cuelang.org/go/cue"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
)

//go:embed description_schema.cue
var descriptionSchema []byte

type (
	cueDialect struct{}

	cueDescription struct {
		Packages []cuePackage `json:"packages"`
	}

	cuePackage struct {
		Name     string           `json:"name"`
		Type     string           `json:"type"`
		Provides string           `json:"provides,omitempty"`
		Enabled  bool             `json:"enabled"`
		Files    []string         `json:"files,omitempty"`
		Requires []cueRequirement `json:"requires,omitempty"`
		Plugin   map[string]any   `json:"plugin,omitempty"`
	}

	cueRequirement struct {
		Name     string            `json:"name"`
		Link     bool              `json:"link"`
		Syntax   bool              `json:"syntax"`
		Optional bool              `json:"optional"`
		Options  map[string]string `json:"options,omitempty"`
	}
)

func (cueDialect) name() string { return "cue" }

func (cueDialect) decode(file string, data []byte, maxSize int64) ([]rawPackage, error) {
	res, err := cueutil.ParseAndDecode[cueDescription](descriptionSchema, data, "#Description",
		cueutil.WithFilename(file),
		cueutil.WithMaxFileSize(maxSize),
	)
	if err != nil {
		return nil, err
	}

	out := make([]rawPackage, len(res.Value.Packages))
	for i, p := range res.Value.Packages {
		pos := cueutil.PositionOf(res.Data.LookupPath(cue.MakePath(cue.Str("packages"), cue.Index(i))))
		raw := rawPackage{
			Name:     p.Name,
			Type:     p.Type,
			Provides: p.Provides,
			Enabled:  p.Enabled,
			Files:    p.Files,
			Location: buildgraph.Location{File: file, Line: pos.Line, Column: pos.Column},
		}
		if p.Plugin != nil {
			raw.Plugin = p.Plugin
		}
		for _, r := range p.Requires {
			raw.Requires = append(raw.Requires, rawRequirement(r))
		}
		out[i] = raw
	}
	return out, nil
}
