// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
)

var hclFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "package", LabelNames: []string{"name"}},
	},
}

type (
	hclDialect struct{}

	hclPackage struct {
		Type     *string          `hcl:"type,optional"`
		Provides *string          `hcl:"provides,optional"`
		Enabled  *bool            `hcl:"enabled,optional"`
		Files    []string         `hcl:"files,optional"`
		Requires []hclRequirement `hcl:"requires,block"`
		Plugin   *hclPlugin       `hcl:"plugin,block"`
	}

	hclRequirement struct {
		Name     string            `hcl:"name,label"`
		Link     *bool             `hcl:"link,optional"`
		Syntax   *bool             `hcl:"syntax,optional"`
		Optional *bool             `hcl:"optional,optional"`
		Options  map[string]string `hcl:"options,optional"`
	}

	// hclPlugin carries free-form build-driver attributes.
	hclPlugin struct {
		Body hcl.Body `hcl:",remain"`
	}
)

func (hclDialect) name() string { return "hcl" }

func (hclDialect) decode(file string, data []byte, maxSize int64) ([]rawPackage, error) {
	if err := cueutil.CheckFileSize(data, maxSize, file); err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, file)
	if diags.HasErrors() {
		return nil, diags
	}
	content, diags := f.Body.Content(hclFileSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	out := make([]rawPackage, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		var p hclPackage
		if diags := gohcl.DecodeBody(block.Body, nil, &p); diags.HasErrors() {
			return nil, diags
		}
		raw := rawPackage{
			Name:     block.Labels[0],
			Type:     deref(p.Type, ""),
			Provides: deref(p.Provides, ""),
			Enabled:  deref(p.Enabled, true),
			Files:    p.Files,
			Location: buildgraph.Location{
				File:   file,
				Line:   block.DefRange.Start.Line,
				Column: block.DefRange.Start.Column,
			},
		}
		for _, r := range p.Requires {
			raw.Requires = append(raw.Requires, rawRequirement{
				Name:     r.Name,
				Link:     deref(r.Link, true),
				Syntax:   deref(r.Syntax, false),
				Optional: deref(r.Optional, false),
				Options:  r.Options,
			})
		}
		if p.Plugin != nil {
			plugin, err := pluginAttributes(p.Plugin.Body)
			if err != nil {
				return nil, fmt.Errorf("package %q: plugin: %w", raw.Name, err)
			}
			raw.Plugin = plugin
		}
		out = append(out, raw)
	}
	return out, nil
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// pluginAttributes evaluates the attributes of a plugin block into plain Go
// values. Expressions may not reference variables.
func pluginAttributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		v, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// ctyToGo converts a cty value into strings, float64s, bools, slices and
// maps.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
