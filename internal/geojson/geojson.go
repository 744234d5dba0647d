// Package geojson converts collections to and from GeoJSON
// FeatureCollection files in EPSG:4326.
package geojson

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"floodviz/internal/geo"
)

// Write serializes the collection as a FeatureCollection and writes it
// atomically: the document lands in a temp file in the target directory and
// is renamed into place, so readers never observe a partial file.
func Write(path string, c *geo.Collection) error {
	fc := orbjson.NewFeatureCollection()
	for _, rec := range c.Records {
		f := orbjson.NewFeature(rec.Geometry)
		for k, v := range rec.Attributes {
			f.Properties[k] = v
		}
		if rec.Name != "" {
			f.Properties["name"] = rec.Name
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("geojson: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("geojson: write: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("geojson: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("geojson: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("geojson: write: %w", err)
	}
	return nil
}

// Read loads a FeatureCollection into a collection, dropping non-polygonal
// features. Coordinates are taken to be in the default datum, per RFC 7946.
func Read(path string) (*geo.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geojson: read: %w", err)
	}
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("geojson: parse: %w", err)
	}

	c := &geo.Collection{CRS: geo.DefaultCRS}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		rec := geo.Record{
			Geometry:   f.Geometry,
			Attributes: map[string]any{},
		}
		for k, v := range f.Properties {
			if k == "name" {
				if s, ok := v.(string); ok {
					rec.Name = s
					continue
				}
			}
			rec.Attributes[k] = v
		}
		c.Records = append(c.Records, rec)
	}
	return c, nil
}
