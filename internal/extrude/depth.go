package extrude

import (
	"fmt"
	"log/slog"
	"math/rand"

	"floodviz/internal/geo"
)

// Depths is the per-record depth vector selected for a render run.
// Synthetic marks demonstration values drawn at random because no depth
// attribute was found; outputs must keep that distinction visible.
type Depths struct {
	Values    []float64
	Attr      string
	Synthetic bool
}

// ResolveDepths applies the depth resolution policy in order: the
// caller-specified attribute, then the fallback attribute names, then
// synthesized uniform samples.
func ResolveDepths(c *geo.Collection, opts Options) (Depths, error) {
	if opts.DepthAttr != "" {
		vals, ok := attrValues(c, opts.DepthAttr)
		if !ok {
			return Depths{}, fmt.Errorf("extrude: attribute %q missing or non-numeric on some records", opts.DepthAttr)
		}
		return Depths{Values: vals, Attr: opts.DepthAttr}, nil
	}
	for _, name := range opts.FallbackAttrs {
		if vals, ok := attrValues(c, name); ok {
			slog.Info("using depth attribute", "attr", name)
			return Depths{Values: vals, Attr: name}, nil
		}
	}

	rng := opts.Rand
	vals := make([]float64, c.Len())
	for i := range vals {
		var u float64
		if rng != nil {
			u = rng.Float64()
		} else {
			u = rand.Float64()
		}
		vals[i] = opts.SyntheticMin + u*(opts.SyntheticMax-opts.SyntheticMin)
	}
	slog.Warn("no depth attribute found, synthesizing depths for display",
		"min", opts.SyntheticMin, "max", opts.SyntheticMax)
	return Depths{Values: vals, Synthetic: true}, nil
}

// attrValues extracts a numeric attribute from every record; ok is false
// if any record lacks it.
func attrValues(c *geo.Collection, name string) ([]float64, bool) {
	vals := make([]float64, c.Len())
	for i, rec := range c.Records {
		v, present := rec.Attributes[name]
		if !present {
			return nil, false
		}
		f, numeric := v.(float64)
		if !numeric {
			return nil, false
		}
		vals[i] = f
	}
	return vals, len(vals) > 0
}

// Normalize maps depths linearly onto [0,1] against the observed range.
// A flat range normalizes to the midpoint to avoid division by zero.
func Normalize(depths []float64) []float64 {
	if len(depths) == 0 {
		return nil
	}
	minD, maxD := depths[0], depths[0]
	for _, d := range depths[1:] {
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	out := make([]float64, len(depths))
	if maxD <= minD {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, d := range depths {
		out[i] = (d - minD) / (maxD - minD)
	}
	return out
}
