package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Ring validity and repair. The repair mirrors the zero-distance buffer
// idiom: drop degenerate vertices, close open rings, and resolve bowtie
// self-intersections by splitting the ring at the crossing and keeping the
// loop with the largest area. Repair is idempotent: a repaired ring has no
// proper self-intersections left to split.

// IsRingValid reports whether r is a closed loop of at least four points
// with no proper self-intersection between non-adjacent segments.
func IsRingValid(r orb.Ring) bool {
	if len(r) < 4 || !r.Closed() {
		return false
	}
	_, _, _, ok := firstSelfIntersection(r)
	return !ok
}

// IsValid reports whether every ring of a Polygon or MultiPolygon is valid.
func IsValid(g orb.Geometry) bool {
	switch t := g.(type) {
	case orb.Polygon:
		for _, ring := range t {
			if !IsRingValid(ring) {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, poly := range t {
			if !IsValid(poly) {
				return false
			}
		}
		return true
	}
	return false
}

// RepairRing normalizes and repairs a single ring. The second return is
// false when the ring degenerates below a valid loop.
func RepairRing(r orb.Ring) (orb.Ring, bool) {
	r = normalizeRing(r)
	if len(r) < 4 {
		return nil, false
	}
	// Split at self-intersections until none remain, keeping the biggest
	// loop each time. Bounded by the vertex count; every split removes at
	// least one vertex from consideration.
	for iter := 0; iter < len(r); iter++ {
		i, j, x, ok := firstSelfIntersection(r)
		if !ok {
			return r, true
		}
		r = splitAndKeepLargest(r, i, j, x)
		r = normalizeRing(r)
		if len(r) < 4 {
			return nil, false
		}
	}
	return nil, false
}

// Repair repairs every ring of a Polygon or MultiPolygon. Holes that cannot
// be repaired are dropped; an exterior that cannot be repaired invalidates
// the whole polygon. The second return is false when nothing valid remains.
func Repair(g orb.Geometry) (orb.Geometry, bool) {
	switch t := g.(type) {
	case orb.Polygon:
		var out orb.Polygon
		for k, ring := range t {
			fixed, ok := RepairRing(ring)
			if !ok {
				if k == 0 {
					return nil, false
				}
				continue
			}
			out = append(out, fixed)
		}
		return out, true
	case orb.MultiPolygon:
		var out orb.MultiPolygon
		for _, poly := range t {
			fixed, ok := Repair(poly)
			if !ok {
				continue
			}
			out = append(out, fixed.(orb.Polygon))
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// RepairCollection repairs each record's geometry and drops records that
// remain invalid. The input collection is not modified.
func RepairCollection(c *Collection) *Collection {
	out := &Collection{CRS: c.CRS, Records: make([]Record, 0, len(c.Records))}
	for _, rec := range c.Records {
		if IsValid(rec.Geometry) {
			out.Records = append(out.Records, rec)
			continue
		}
		fixed, ok := Repair(rec.Geometry)
		if !ok {
			continue
		}
		out.Records = append(out.Records, Record{
			Name:       rec.Name,
			Geometry:   fixed,
			Attributes: rec.Attributes,
		})
	}
	return out
}

// normalizeRing removes consecutive duplicate points and closes the ring.
func normalizeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return nil
	}
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	out = append(out, out[0])
	return out
}

// firstSelfIntersection scans segment pairs of a closed ring and returns the
// indices of the first pair of non-adjacent segments that properly cross,
// along with the crossing point.
func firstSelfIntersection(r orb.Ring) (int, int, orb.Point, bool) {
	n := len(r) - 1 // segments of a closed ring
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				// wrap-around neighbors
				continue
			}
			x, ok := segmentCross(r[i], r[i+1], r[j], r[j+1])
			if ok {
				return i, j, x, true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

// splitAndKeepLargest splits a closed ring at the crossing of segments i and
// j and keeps the loop with the larger area.
func splitAndKeepLargest(r orb.Ring, i, j int, x orb.Point) orb.Ring {
	// loop A: x, r[i+1..j], x
	a := make(orb.Ring, 0, j-i+2)
	a = append(a, x)
	a = append(a, r[i+1:j+1]...)
	a = append(a, x)

	// loop B: x, r[j+1..n-1], r[0..i], x (r is closed, skip the dup end)
	b := make(orb.Ring, 0, len(r)-(j-i)+2)
	b = append(b, x)
	b = append(b, r[j+1:len(r)-1]...)
	b = append(b, r[:i+1]...)
	b = append(b, x)

	if math.Abs(planar.Area(a)) >= math.Abs(planar.Area(b)) {
		return a
	}
	return b
}

// segmentCross returns the proper intersection point of segments ab and cd.
// Touching endpoints or collinear overlap do not count as a crossing.
func segmentCross(a, b, c, d orb.Point) (orb.Point, bool) {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		t := d1 / (d1 - d2)
		return orb.Point{
			a[0] + t*(b[0]-a[0]),
			a[1] + t*(b[1]-a[1]),
		}, true
	}
	return orb.Point{}, false
}

func cross(o, p, q orb.Point) float64 {
	return (p[0]-o[0])*(q[1]-o[1]) - (p[1]-o[1])*(q[0]-o[0])
}
