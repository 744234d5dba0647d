package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/project"
)

// NormalizeCRS reprojects a collection to the default datum in place.
// An empty CRS is assumed to already be the default. Only Web Mercator is
// accepted as a declared alternative; anything else is a format error.
func NormalizeCRS(c *Collection) error {
	switch strings.ToUpper(strings.TrimSpace(c.CRS)) {
	case "", DefaultCRS, "WGS84", "CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84":
		c.CRS = DefaultCRS
		return nil
	case WebMercatorCRS, "EPSG:900913":
		for i, rec := range c.Records {
			c.Records[i].Geometry = project.Geometry(rec.Geometry, project.Mercator.ToWGS84)
		}
		c.CRS = DefaultCRS
		return nil
	}
	return fmt.Errorf("%w: %q", ErrBadCRS, c.CRS)
}
