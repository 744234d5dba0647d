package geo

import (
	"errors"

	"github.com/paulmach/orb"
)

// DefaultCRS is the datum every collection is normalized to.
const DefaultCRS = "EPSG:4326"

// WebMercatorCRS is the only non-default CRS the loader accepts.
const WebMercatorCRS = "EPSG:3857"

var ErrBadCRS = errors.New("geo: unsupported coordinate reference system")

// Record is one flood-extent feature: a Polygon or MultiPolygon geometry
// plus its markup attributes. Records are immutable after loading.
type Record struct {
	Name       string
	Geometry   orb.Geometry
	Attributes map[string]any
}

// Polygons returns the record's geometry as a flat polygon slice.
func (r Record) Polygons() []orb.Polygon {
	switch g := r.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return []orb.Polygon(g)
	}
	return nil
}

// Collection is an ordered set of records sharing one CRS.
type Collection struct {
	CRS     string
	Records []Record
}

func (c *Collection) Len() int { return len(c.Records) }

// Bound returns the union of all record bounds.
func (c *Collection) Bound() orb.Bound {
	var b orb.Bound
	for i, r := range c.Records {
		if i == 0 {
			b = r.Geometry.Bound()
		} else {
			b = b.Union(r.Geometry.Bound())
		}
	}
	return b
}
