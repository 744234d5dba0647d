package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"floodviz/internal/extrude"
	"floodviz/internal/geo"
	"floodviz/internal/geojson"
	"floodviz/internal/kmz"
	"floodviz/internal/render"
	"floodviz/internal/tui"
)

var (
	app = kingpin.New("floodviz", "Convert flood-extent KMZ archives into GeoJSON, 3D depth plots, and terminal previews.")

	exportCmd     = app.Command("export", "Convert a KMZ archive to a GeoJSON FeatureCollection (EPSG:4326).")
	exportArchive = exportCmd.Arg("archive", "path to the KMZ archive").Required().ExistingFile()
	exportOut     = exportCmd.Flag("output", "output GeoJSON path").Short('o').String()

	plotCmd       = app.Command("plot", "Render a KMZ archive as a 3D depth-extrusion plot.")
	plotArchive   = plotCmd.Arg("archive", "path to the KMZ archive").Required().ExistingFile()
	plotOut       = plotCmd.Flag("output", "output path (png, gif, mp4)").Short('o').String()
	plotAnimate   = plotCmd.Flag("animate", "render a 360° rotation animation").Short('a').Bool()
	plotNoShow    = plotCmd.Flag("no-show", "skip the interactive terminal preview").Bool()
	plotDepthAttr = plotCmd.Flag("depth-attr", "attribute holding depth in meters").String()

	previewCmd  = app.Command("preview", "Preview a KMZ archive or GeoJSON file in the terminal.")
	previewPath = previewCmd.Arg("path", "path to a KMZ archive or GeoJSON file").Required().ExistingFile()
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	switch cmd {
	case exportCmd.FullCommand():
		runExport(*exportArchive, *exportOut)
	case plotCmd.FullCommand():
		runPlot(*plotArchive, *plotOut, *plotDepthAttr, *plotAnimate, *plotNoShow)
	case previewCmd.FullCommand():
		runPreview(*previewPath)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func runExport(archive, out string) {
	c, err := kmz.Load(archive, kmz.DefaultOptions())
	if err != nil {
		fatal("load archive", err)
	}
	if out == "" {
		out = replaceExt(archive, ".geojson")
	}
	if err := geojson.Write(out, c); err != nil {
		fatal("write geojson", err)
	}
	slog.Info("wrote geojson", "path", out, "features", c.Len())
}

func runPlot(archive, out, depthAttr string, animate, noShow bool) {
	c, err := kmz.Load(archive, kmz.DefaultOptions())
	if err != nil {
		fatal("load archive", err)
	}
	slog.Info("loaded flood polygons", "archive", archive, "features", c.Len())

	exOpts := extrude.DefaultOptions()
	exOpts.DepthAttr = depthAttr
	extrusions, err := extrude.Render(c, exOpts)
	if err != nil {
		fatal("extrude", err)
	}

	rOpts := render.DefaultOptions()
	if animate {
		if out == "" {
			out = replaceExt(archive, ".mp4")
		}
		written, err := render.SaveAnimation(out, extrusions, rOpts)
		if err != nil {
			fatal("save animation", err)
		}
		slog.Info("saved animation", "path", written)
	} else if out != "" {
		if err := render.SavePNG(out, extrusions, rOpts); err != nil {
			fatal("save figure", err)
		}
		slog.Info("saved figure", "path", out)
	}

	if !noShow {
		showPreview(c, extrusions, filepath.Base(archive))
	}
}

func runPreview(path string) {
	var (
		c   *geo.Collection
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		c, err = geojson.Read(path)
	default:
		c, err = kmz.Load(path, kmz.DefaultOptions())
	}
	if err != nil {
		fatal("load", err)
	}
	extrusions, err := extrude.Render(c, extrude.DefaultOptions())
	if err != nil {
		fatal("extrude", err)
	}
	showPreview(c, extrusions, filepath.Base(path))
}

func showPreview(c *geo.Collection, extrusions []extrude.Extrusion, source string) {
	m := tui.New(c, extrusions, source)
	if err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Start(); err != nil {
		fatal("preview", err)
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
