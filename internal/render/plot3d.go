// Package render draws extrusion meshes as a 3D depth plot: static PNG or
// a rotating animation.
package render

import (
	"image"
	"image/color"
	"log/slog"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"floodviz/internal/extrude"
)

// Dark water theme, matching the reference figure.
var (
	figureBg = color.NRGBA{R: 0x0F, G: 0x25, B: 0x37, A: 0xFF}
	canvasBg = color.NRGBA{R: 0x0A, G: 0x19, B: 0x29, A: 0xFF}
	titleFg  = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	bottomBg = color.NRGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0x4D}
)

// Options configures the figure and the animation loop.
type Options struct {
	Width, Height vg.Length
	Elevation     float64 // degrees
	Azimuth       float64 // degrees
	FrameStep     float64 // degrees per animation frame
	FPS           int
	Title         string
}

func DefaultOptions() Options {
	return Options{
		Width:     vg.Points(700),
		Height:    vg.Points(500),
		Elevation: 45,
		Azimuth:   -120,
		FrameStep: 2,
		FPS:       20,
		Title:     "Flood Water Level Visualization",
	}
}

// face is one projected polygon queued for painting.
type face struct {
	xys   plotter.XYs
	depth float64
	fill  color.Color
	edge  color.Color
	width vg.Length
}

// Figure projects the meshes with the given azimuth and paints them
// far-to-near onto a dark-themed plot.
func Figure(extrusions []extrude.Extrusion, opts Options, azimuth float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Color = titleFg
	p.BackgroundColor = canvasBg
	p.HideAxes()

	if len(extrusions) == 0 {
		slog.Warn("rendering empty figure: no extrusions")
		p.Title.Text = opts.Title + " (empty)"
		return p
	}

	cam := newCamera(opts.Elevation, azimuth)
	tr := newSceneTransform(extrusions)

	var faces []face
	for _, ex := range extrusions {
		for _, m := range ex.Meshes {
			faces = append(faces, projectFace(m.Bottom, cam, tr, bottomBg, nil, 0))
			for _, side := range m.Sides {
				faces = append(faces, projectFace(side, cam, tr, ex.Color.Side, ex.Color.Edge, vg.Points(0.3)))
			}
			faces = append(faces, projectFace(m.Top, cam, tr, ex.Color.Fill, ex.Color.Edge, vg.Points(0.8)))
		}
	}
	// painter's algorithm: farthest faces first
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })

	for _, f := range faces {
		if len(f.xys) < 3 {
			continue
		}
		poly, err := plotter.NewPolygon(f.xys)
		if err != nil {
			continue
		}
		poly.Color = f.fill
		if f.edge != nil {
			poly.LineStyle = draw.LineStyle{Color: f.edge, Width: f.width}
		} else {
			poly.LineStyle = draw.LineStyle{Color: color.Transparent, Width: 0}
		}
		p.Add(poly)
	}
	return p
}

func projectFace(f extrude.Face, cam camera, tr sceneTransform, fill color.Color, edge color.Color, width vg.Length) face {
	xys := make(plotter.XYs, len(f))
	sum := 0.0
	for i, pt := range f {
		u, v, d := cam.project(tr.apply(pt))
		xys[i].X = u
		xys[i].Y = v
		sum += d
	}
	return face{
		xys:   xys,
		depth: sum / float64(len(f)),
		fill:  fill,
		edge:  edge,
		width: width,
	}
}

// Image rasterizes one figure frame.
func Image(extrusions []extrude.Extrusion, opts Options, azimuth float64) image.Image {
	p := Figure(extrusions, opts, azimuth)
	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseBackgroundColor(figureBg))
	p.Draw(draw.New(c))
	return c.Image()
}
