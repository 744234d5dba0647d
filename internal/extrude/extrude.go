package extrude

import (
	"log/slog"
	"math/rand"

	"github.com/paulmach/orb"

	"floodviz/internal/geo"
)

// Options configures depth resolution and the depth-to-display mapping.
type Options struct {
	// DepthAttr names the attribute holding depth in meters. Empty means
	// try FallbackAttrs, then synthesize.
	DepthAttr     string
	FallbackAttrs []string

	// Synthetic depth range in meters, used when no attribute matches.
	SyntheticMin float64
	SyntheticMax float64

	// HeightScale converts depth in meters to visual extrusion height.
	HeightScale   float64
	BaseElevation float64

	// Sub-range of the blue scale used for the depth ramp.
	RampLow  float64
	RampHigh float64

	// Rand provides synthetic depth samples; nil uses the global source.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		FallbackAttrs: []string{"depth", "DEPTH", "water_depth", "Depth", "flood_depth"},
		SyntheticMin:  0.5,
		SyntheticMax:  3.0,
		HeightScale:   0.05,
		BaseElevation: 0,
		RampLow:       0.4,
		RampHigh:      1.0,
	}
}

// Point3 is a vertex of an extrusion face.
type Point3 struct {
	X, Y, Z float64
}

// Face is a planar polygon in 3D space.
type Face []Point3

// Mesh is the extrusion of one polygon ring: a top face at the scaled
// height, a bottom face at the base elevation, and one vertical quad per
// consecutive vertex pair. Rings arrive closed (first point repeated at the
// end), so the n-1 consecutive pairs cover the full boundary.
type Mesh struct {
	Top    Face
	Bottom Face
	Sides  []Face
}

// FaceCount returns 1 top + 1 bottom + len(Sides).
func (m Mesh) FaceCount() int {
	return 2 + len(m.Sides)
}

// Extrusion pairs one record's meshes (one per exterior ring) with its
// depth-derived color and height.
type Extrusion struct {
	Record int
	Meshes []Mesh
	Color  DepthColor
}

// Render computes an extrusion per record: resolve depths, normalize
// against the run's observed range, and build per-ring meshes. An empty
// collection renders to an empty slice with a visible warning, not an
// error.
func Render(c *geo.Collection, opts Options) ([]Extrusion, error) {
	if c.Len() == 0 {
		slog.Warn("empty collection, rendering nothing")
		return nil, nil
	}
	depths, err := ResolveDepths(c, opts)
	if err != nil {
		return nil, err
	}
	norms := Normalize(depths.Values)

	out := make([]Extrusion, 0, c.Len())
	for i, rec := range c.Records {
		dc := depthColor(depths.Values[i], norms[i], depths.Synthetic, opts)
		ex := Extrusion{Record: i, Color: dc}
		for _, poly := range rec.Polygons() {
			if len(poly) == 0 {
				continue
			}
			ex.Meshes = append(ex.Meshes, extrudeRing(poly[0], opts.BaseElevation, dc.Height))
		}
		out = append(out, ex)
	}
	return out, nil
}

// extrudeRing lifts the ring to the top height, mirrors it at the base,
// and walls in the consecutive vertex pairs.
func extrudeRing(ring orb.Ring, base, height float64) Mesh {
	n := len(ring)
	top := make(Face, n)
	bottom := make(Face, n)
	for i, p := range ring {
		top[i] = Point3{X: p[0], Y: p[1], Z: base + height}
		bottom[i] = Point3{X: p[0], Y: p[1], Z: base}
	}
	sides := make([]Face, 0, n-1)
	for i := 0; i < n-1; i++ {
		a, b := ring[i], ring[i+1]
		sides = append(sides, Face{
			{X: a[0], Y: a[1], Z: base},
			{X: b[0], Y: b[1], Z: base},
			{X: b[0], Y: b[1], Z: base + height},
			{X: a[0], Y: a[1], Z: base + height},
		})
	}
	return Mesh{Top: top, Bottom: bottom, Sides: sides}
}
