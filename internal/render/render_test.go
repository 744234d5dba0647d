package render

import (
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodviz/internal/extrude"
	"floodviz/internal/geo"
)

func testExtrusions(t *testing.T) []extrude.Extrusion {
	t.Helper()
	c := &geo.Collection{Records: []geo.Record{
		{
			Name:       "a",
			Geometry:   orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
			Attributes: map[string]any{"depth": 1.0},
		},
		{
			Name:       "b",
			Geometry:   orb.Polygon{{{2, 0}, {3, 0}, {3, 1}, {2, 1}, {2, 0}}},
			Attributes: map[string]any{"depth": 2.5},
		},
	}}
	ex, err := extrude.Render(c, extrude.DefaultOptions())
	require.NoError(t, err)
	return ex
}

func TestCameraProject(t *testing.T) {
	// looking straight down: screen xy is scene xy, height is depth
	cam := newCamera(90, 0)
	u, v, d := cam.project(extrude.Point3{X: 0.3, Y: 0.4, Z: 2})
	assert.InDelta(t, 0.4, u, 1e-12)
	assert.InDelta(t, -0.3, v, 1e-12)
	assert.InDelta(t, 2.0, d, 1e-12)

	// a raised point is closer to a 45-degree camera than its base
	cam = newCamera(45, -120)
	_, _, top := cam.project(extrude.Point3{X: 0, Y: 0, Z: 1})
	_, _, base := cam.project(extrude.Point3{X: 0, Y: 0, Z: 0})
	assert.Greater(t, top, base)
}

func TestSceneTransformCentersAndScales(t *testing.T) {
	ex := testExtrusions(t)
	tr := newSceneTransform(ex)

	// scene spans x in [0,3], so the center maps to the origin
	got := tr.apply(extrude.Point3{X: 1.5, Y: 0.5})
	assert.InDelta(t, 0.0, got.X, 1e-12)
	assert.InDelta(t, 0.0, got.Y, 1e-12)

	left := tr.apply(extrude.Point3{X: 0})
	right := tr.apply(extrude.Point3{X: 3})
	assert.InDelta(t, -1.0, left.X, 1e-12)
	assert.InDelta(t, 1.0, right.X, 1e-12)
}

func TestSceneTransformEmpty(t *testing.T) {
	tr := newSceneTransform(nil)
	got := tr.apply(extrude.Point3{X: 2, Y: 3, Z: 4})
	assert.Equal(t, extrude.Point3{X: 2, Y: 3, Z: 4}, got)
}

func TestFigure(t *testing.T) {
	p := Figure(testExtrusions(t), DefaultOptions(), -120)
	require.NotNil(t, p)
	assert.Equal(t, DefaultOptions().Title, p.Title.Text)
}

func TestFigureEmpty(t *testing.T) {
	p := Figure(nil, DefaultOptions(), -120)
	require.NotNil(t, p)
	assert.Contains(t, p.Title.Text, "(empty)")
}

func TestImage(t *testing.T) {
	img := Image(testExtrusions(t), DefaultOptions(), -120)
	require.NotNil(t, img)
	b := img.Bounds()
	assert.Positive(t, b.Dx())
	assert.Positive(t, b.Dy())
	assert.Greater(t, b.Dx(), b.Dy())
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, SavePNG(path, testExtrusions(t), DefaultOptions()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Positive(t, cfg.Width)
	assert.Positive(t, cfg.Height)
}

func TestSaveAnimationGIF(t *testing.T) {
	opts := DefaultOptions()
	opts.FrameStep = 120 // 3 frames keeps the test quick
	path := filepath.Join(t.TempDir(), "spin.gif")

	written, err := SaveAnimation(path, testExtrusions(t), opts)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
}

func TestRotationFrameCount(t *testing.T) {
	opts := DefaultOptions()
	opts.FrameStep = 90
	frames := rotationFrames(nil, opts)
	assert.Len(t, frames, 4)
}
