package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Index is an rtree over record bounds, used by the terminal preview to
// find candidate features near a point without scanning every vertex.
type Index struct {
	c    *Collection
	tree *rtree.RTreeG[int]
}

// NewIndex builds an index over every record in the collection.
func NewIndex(c *Collection) *Index {
	ix := &Index{c: c, tree: &rtree.RTreeG[int]{}}
	for i, rec := range c.Records {
		b := rec.Geometry.Bound()
		ix.tree.Insert(
			[2]float64{b.Min[0], b.Min[1]},
			[2]float64{b.Max[0], b.Max[1]},
			i,
		)
	}
	return ix
}

// Search returns the indices of records whose bounds intersect b.
func (ix *Index) Search(b orb.Bound) []int {
	result := make([]int, 0)
	ix.tree.Search(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		func(min, max [2]float64, item int) bool {
			result = append(result, item)
			return true
		},
	)
	return result
}

// Nearest returns the index of the record whose centroid is closest to pt,
// preferring candidates found by an expanding bound search before falling
// back to a full scan.
func (ix *Index) Nearest(pt orb.Point) (int, bool) {
	if ix.c.Len() == 0 {
		return 0, false
	}
	span := ix.c.Bound()
	pad := math.Max(span.Max[0]-span.Min[0], span.Max[1]-span.Min[1]) / 16
	if pad <= 0 {
		pad = 1e-6
	}
	var candidates []int
	for range 5 {
		b := orb.Bound{
			Min: orb.Point{pt[0] - pad, pt[1] - pad},
			Max: orb.Point{pt[0] + pad, pt[1] + pad},
		}
		candidates = ix.Search(b)
		if len(candidates) > 0 {
			break
		}
		pad *= 2
	}
	if len(candidates) == 0 {
		candidates = make([]int, ix.c.Len())
		for i := range candidates {
			candidates[i] = i
		}
	}
	best := candidates[0]
	bestD := math.Inf(1)
	for _, i := range candidates {
		centroid, _ := planar.CentroidArea(ix.c.Records[i].Geometry)
		d := planar.DistanceSquared(centroid, pt)
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best, true
}
