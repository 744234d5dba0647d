package kmz

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodviz/internal/geo"
)

// writeKMZ builds a zip archive in a temp dir from member name -> content.
func writeKMZ(t *testing.T, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.kmz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const simpleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Zone A</name>
      <ExtendedData>
        <Data name="depth"><value>1.5</value></Data>
        <Data name="source"><value>survey</value></Data>
      </ExtendedData>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>
              -71.1,42.3,0 -71.0,42.3,0 -71.0,42.4,0 -71.1,42.4,0 -71.1,42.3,0
            </coordinates>
          </LinearRing>
        </outerBoundaryIs>
      </Polygon>
    </Placemark>
  </Document>
</kml>`

func TestLoadSimpleArchive(t *testing.T) {
	path := writeKMZ(t, map[string]string{"doc.kml": simpleKML})

	c, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, geo.DefaultCRS, c.CRS)
	require.Equal(t, 1, c.Len())

	rec := c.Records[0]
	assert.Equal(t, "Zone A", rec.Name)
	assert.Equal(t, 1.5, rec.Attributes["depth"])
	assert.Equal(t, "survey", rec.Attributes["source"])

	poly, ok := rec.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Equal(t, orb.Point{-71.1, 42.3}, poly[0][0])
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])
}

func TestLoadFindsMarkupCaseInsensitively(t *testing.T) {
	path := writeKMZ(t, map[string]string{
		"styles/icon.png": "not markup",
		"files/DOC.KML":   simpleKML,
	})
	c, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestLoadNoMarkup(t *testing.T) {
	path := writeKMZ(t, map[string]string{"readme.txt": "nothing here"})
	_, err := Load(path, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoMarkup)
}

func TestLoadBadArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.kmz")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))
	_, err := Load(path, DefaultOptions())
	assert.ErrorIs(t, err, ErrArchive)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.kmz"), DefaultOptions())
	assert.ErrorIs(t, err, ErrArchive)
}

func TestLoadNestedFolders(t *testing.T) {
	const nested = `<kml>
  <Document>
    <Folder>
      <name>outer</name>
      <Folder>
        <name>inner</name>
        <Placemark>
          <name>deep</name>
          <Polygon><outerBoundaryIs><LinearRing><coordinates>
            0,0 1,0 1,1 0,1 0,0
          </coordinates></LinearRing></outerBoundaryIs></Polygon>
        </Placemark>
      </Folder>
    </Folder>
  </Document>
</kml>`
	path := writeKMZ(t, map[string]string{"doc.kml": nested})
	c, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "deep", c.Records[0].Name)
}

func TestLoadDropsNonPolygonal(t *testing.T) {
	const mixed = `<kml>
  <Document>
    <Placemark>
      <name>just a point</name>
      <Point><coordinates>0,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>area</name>
      <Polygon><outerBoundaryIs><LinearRing><coordinates>
        0,0 2,0 2,2 0,2 0,0
      </coordinates></LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
  </Document>
</kml>`
	path := writeKMZ(t, map[string]string{"doc.kml": mixed})
	c, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "area", c.Records[0].Name)
}

func TestLoadMultiGeometry(t *testing.T) {
	const multi = `<kml>
  <Document>
    <Placemark>
      <name>two lobes</name>
      <MultiGeometry>
        <Polygon><outerBoundaryIs><LinearRing><coordinates>
          0,0 1,0 1,1 0,1 0,0
        </coordinates></LinearRing></outerBoundaryIs></Polygon>
        <Polygon><outerBoundaryIs><LinearRing><coordinates>
          5,5 6,5 6,6 5,6 5,5
        </coordinates></LinearRing></outerBoundaryIs></Polygon>
      </MultiGeometry>
    </Placemark>
  </Document>
</kml>`
	path := writeKMZ(t, map[string]string{"doc.kml": multi})
	c, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	mp, ok := c.Records[0].Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, mp, 2)
}

// An undeclared entity defeats the strict decoder but not the permissive one.
func TestLoadPermissiveFallback(t *testing.T) {
	const sloppy = `<kml>
  <Document>
    <Placemark>
      <name>sloppy export</name>
      <description>depth&nbsp;survey</description>
      <Polygon><outerBoundaryIs><LinearRing><coordinates>
        0,0 3,0 3,3 0,3 0,0
      </coordinates></LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
  </Document>
</kml>`
	path := writeKMZ(t, map[string]string{"doc.kml": sloppy})
	c, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "sloppy export", c.Records[0].Name)
}

func TestParseCoordinates(t *testing.T) {
	ring := parseCoordinates("0,0,12 1.5,2.5 bad 3,")
	require.Len(t, ring, 2)
	assert.Equal(t, orb.Point{0, 0}, ring[0])
	assert.Equal(t, orb.Point{1.5, 2.5}, ring[1])
}

func TestSetAttrCoercion(t *testing.T) {
	attrs := map[string]any{}
	setAttr(attrs, "depth", " 2.25 ")
	setAttr(attrs, "label", "west bank")
	setAttr(attrs, "", "ignored")
	assert.Equal(t, 2.25, attrs["depth"])
	assert.Equal(t, "west bank", attrs["label"])
	assert.Len(t, attrs, 2)
}
