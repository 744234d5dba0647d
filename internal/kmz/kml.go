package kmz

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/paulmach/orb"

	"floodviz/internal/geo"
)

// Markup parsing is an ordered list of driver attempts: a strict
// encoding/xml decode first, then a permissive etree document walk for
// files the strict decoder rejects. The last driver's error is surfaced
// when all of them fail.

type driver struct {
	name  string
	parse func(data []byte) (*geo.Collection, error)
}

var drivers = []driver{
	{name: "xml", parse: parseStrictKML},
	{name: "etree", parse: parsePermissiveKML},
}

func parseMarkup(data []byte) (*geo.Collection, error) {
	var lastErr error
	for _, d := range drivers {
		c, err := d.parse(data)
		if err == nil {
			return c, nil
		}
		slog.Debug("markup driver failed", "driver", d.name, "err", err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnreadableMarkup, lastErr)
}

// Strict driver: typed struct decoding. Placemarks may sit directly under
// Document or inside arbitrarily nested Folders.

type kmlRoot struct {
	Document   kmlFolder      `xml:"Document"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string            `xml:"name"`
	Description   string            `xml:"description"`
	Polygon       *kmlPolygon       `xml:"Polygon"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry"`
	ExtendedData  *kmlExtendedData  `xml:"ExtendedData"`
}

type kmlMultiGeometry struct {
	Polygons []kmlPolygon `xml:"Polygon"`
}

type kmlPolygon struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Ring kmlLinearRing `xml:"LinearRing"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlExtendedData struct {
	Data       []kmlData       `xml:"Data"`
	SchemaData []kmlSchemaData `xml:"SchemaData"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlSchemaData struct {
	SimpleData []kmlData `xml:"SimpleData"`
}

func parseStrictKML(data []byte) (*geo.Collection, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	c := &geo.Collection{}
	collectFolder(root.Document, c)
	collectFolder(kmlFolder{Folders: root.Folders, Placemarks: root.Placemarks}, c)
	return c, nil
}

func collectFolder(f kmlFolder, c *geo.Collection) {
	for _, pm := range f.Placemarks {
		if rec, ok := placemarkRecord(pm); ok {
			c.Records = append(c.Records, rec)
		}
	}
	for _, sub := range f.Folders {
		collectFolder(sub, c)
	}
}

func placemarkRecord(pm kmlPlacemark) (geo.Record, bool) {
	var polys []kmlPolygon
	if pm.Polygon != nil {
		polys = append(polys, *pm.Polygon)
	}
	if pm.MultiGeometry != nil {
		polys = append(polys, pm.MultiGeometry.Polygons...)
	}

	var mp orb.MultiPolygon
	for _, kp := range polys {
		outer := parseCoordinates(kp.Outer.Ring.Coordinates)
		if len(outer) < 3 {
			continue
		}
		poly := orb.Polygon{outer}
		for _, hole := range kp.Inner {
			ring := parseCoordinates(hole.Ring.Coordinates)
			if len(ring) >= 3 {
				poly = append(poly, ring)
			}
		}
		mp = append(mp, poly)
	}
	if len(mp) == 0 {
		return geo.Record{}, false
	}

	attrs := map[string]any{}
	if pm.ExtendedData != nil {
		for _, d := range pm.ExtendedData.Data {
			setAttr(attrs, d.Name, d.Value)
		}
		for _, sd := range pm.ExtendedData.SchemaData {
			for _, d := range sd.SimpleData {
				setAttr(attrs, d.Name, d.Value)
			}
		}
	}
	if pm.Description != "" {
		setAttr(attrs, "description", pm.Description)
	}

	rec := geo.Record{Name: pm.Name, Attributes: attrs}
	if len(mp) == 1 {
		rec.Geometry = mp[0]
	} else {
		rec.Geometry = mp
	}
	return rec, true
}

// Permissive driver: etree with permissive read settings, walking every
// Placemark at any depth regardless of namespace or stray markup.
func parsePermissiveKML(data []byte) (*geo.Collection, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	c := &geo.Collection{}
	for _, pm := range doc.FindElements("//Placemark") {
		var kp kmlPlacemark
		kp.Name = elementText(pm, "name")
		kp.Description = elementText(pm, "description")
		for _, poly := range pm.FindElements(".//Polygon") {
			if kp.MultiGeometry == nil {
				kp.MultiGeometry = &kmlMultiGeometry{}
			}
			kp.MultiGeometry.Polygons = append(kp.MultiGeometry.Polygons, etreePolygon(poly))
		}
		if ed := pm.FindElement("ExtendedData"); ed != nil {
			kp.ExtendedData = &kmlExtendedData{}
			for _, d := range ed.FindElements(".//Data") {
				kp.ExtendedData.Data = append(kp.ExtendedData.Data, kmlData{
					Name:  d.SelectAttrValue("name", ""),
					Value: elementText(d, "value"),
				})
			}
			for _, d := range ed.FindElements(".//SimpleData") {
				kp.ExtendedData.Data = append(kp.ExtendedData.Data, kmlData{
					Name:  d.SelectAttrValue("name", ""),
					Value: strings.TrimSpace(d.Text()),
				})
			}
		}
		if rec, ok := placemarkRecord(kp); ok {
			c.Records = append(c.Records, rec)
		}
	}
	return c, nil
}

func etreePolygon(poly *etree.Element) kmlPolygon {
	var kp kmlPolygon
	if el := poly.FindElement("outerBoundaryIs/LinearRing/coordinates"); el != nil {
		kp.Outer.Ring.Coordinates = el.Text()
	}
	for _, el := range poly.FindElements("innerBoundaryIs/LinearRing/coordinates") {
		kp.Inner = append(kp.Inner, kmlBoundary{Ring: kmlLinearRing{Coordinates: el.Text()}})
	}
	return kp
}

func elementText(parent *etree.Element, name string) string {
	if el := parent.FindElement(name); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// parseCoordinates tokenizes a KML coordinate block: whitespace-separated
// "lon,lat[,alt]" tuples. Altitude is ignored; malformed tuples are skipped.
func parseCoordinates(s string) orb.Ring {
	var ring orb.Ring
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring
}

// setAttr stores an attribute value, coercing numeric-looking strings to
// float64 so depth columns arrive typed.
func setAttr(attrs map[string]any, name, value string) {
	if name == "" {
		return
	}
	value = strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		attrs[name] = f
		return
	}
	attrs[name] = value
}
