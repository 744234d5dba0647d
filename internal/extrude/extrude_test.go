package extrude

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodviz/internal/geo"
)

func zone(name string, x float64, attrs map[string]any) geo.Record {
	return geo.Record{
		Name: name,
		Geometry: orb.Polygon{{
			{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0},
		}},
		Attributes: attrs,
	}
}

func TestResolveDepthsExplicitAttr(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, map[string]any{"wd": 1.0}),
		zone("b", 2, map[string]any{"wd": 2.5}),
	}}
	opts := DefaultOptions()
	opts.DepthAttr = "wd"

	d, err := ResolveDepths(c, opts)
	require.NoError(t, err)
	assert.Equal(t, "wd", d.Attr)
	assert.False(t, d.Synthetic)
	assert.Equal(t, []float64{1.0, 2.5}, d.Values)
}

func TestResolveDepthsExplicitAttrMissing(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, map[string]any{"wd": 1.0}),
		zone("b", 2, map[string]any{"other": 2.5}),
	}}
	opts := DefaultOptions()
	opts.DepthAttr = "wd"

	_, err := ResolveDepths(c, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wd")
}

func TestResolveDepthsFallback(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, map[string]any{"water_depth": 0.8}),
		zone("b", 2, map[string]any{"water_depth": 1.2}),
	}}
	d, err := ResolveDepths(c, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "water_depth", d.Attr)
	assert.Equal(t, []float64{0.8, 1.2}, d.Values)
}

// A fallback name only counts when every record carries it.
func TestResolveDepthsPartialFallbackSynthesizes(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, map[string]any{"depth": 0.8}),
		zone("b", 2, nil),
	}}
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(7))

	d, err := ResolveDepths(c, opts)
	require.NoError(t, err)
	assert.True(t, d.Synthetic)
	assert.Empty(t, d.Attr)
	require.Len(t, d.Values, 2)
	for _, v := range d.Values {
		assert.GreaterOrEqual(t, v, opts.SyntheticMin)
		assert.LessOrEqual(t, v, opts.SyntheticMax)
	}
}

func TestNormalize(t *testing.T) {
	t.Run("linear range", func(t *testing.T) {
		out := Normalize([]float64{1, 2, 3})
		assert.Equal(t, []float64{0, 0.5, 1}, out)
	})
	t.Run("flat range maps to midpoint", func(t *testing.T) {
		out := Normalize([]float64{2, 2, 2})
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, out)
	})
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Normalize(nil))
	})
}

func TestRenderMeshShape(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, map[string]any{"depth": 2.0}),
	}}
	ex, err := Render(c, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ex, 1)
	require.Len(t, ex[0].Meshes, 1)

	m := ex[0].Meshes[0]
	// closed 5-point ring: top, bottom, and 4 wall quads
	assert.Len(t, m.Top, 5)
	assert.Len(t, m.Bottom, 5)
	assert.Len(t, m.Sides, 4)
	assert.Equal(t, 6, m.FaceCount())

	wantH := 2.0 * DefaultOptions().HeightScale
	for _, p := range m.Top {
		assert.Equal(t, wantH, p.Z)
	}
	for _, p := range m.Bottom {
		assert.Equal(t, 0.0, p.Z)
	}
	for _, quad := range m.Sides {
		require.Len(t, quad, 4)
		assert.Equal(t, 0.0, quad[0].Z)
		assert.Equal(t, wantH, quad[3].Z)
	}
}

func TestRenderHeightLinearInDepth(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("shallow", 0, map[string]any{"depth": 1.0}),
		zone("deep", 2, map[string]any{"depth": 4.0}),
	}}
	ex, err := Render(c, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ex, 2)
	assert.InDelta(t, 0.05, ex[0].Color.Height, 1e-12)
	assert.InDelta(t, 0.20, ex[1].Color.Height, 1e-12)
}

func TestRenderColorRamp(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("shallow", 0, map[string]any{"depth": 0.5}),
		zone("deep", 2, map[string]any{"depth": 3.0}),
	}}
	ex, err := Render(c, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ex, 2)

	shallow, deep := ex[0].Color, ex[1].Color
	assert.Equal(t, 0.0, shallow.Normalized)
	assert.Equal(t, 1.0, deep.Normalized)

	// deeper water draws darker
	assert.Less(t, int(deep.Fill.R), int(shallow.Fill.R))
	assert.Less(t, int(deep.Fill.B), int(shallow.Fill.B))
	assert.EqualValues(t, 179, shallow.Fill.A)

	// side walls are a darker tone of the fill
	assert.Less(t, int(shallow.Side.R), int(shallow.Fill.R))
	assert.EqualValues(t, 153, shallow.Side.A)
}

func TestRenderSyntheticFlagPropagates(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{
		zone("a", 0, nil),
		zone("b", 2, nil),
	}}
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))

	ex, err := Render(c, opts)
	require.NoError(t, err)
	require.Len(t, ex, 2)
	for _, e := range ex {
		assert.True(t, e.Color.Synthetic)
		assert.GreaterOrEqual(t, e.Color.Depth, opts.SyntheticMin)
		assert.LessOrEqual(t, e.Color.Depth, opts.SyntheticMax)
	}
}

func TestRenderEmptyCollection(t *testing.T) {
	ex, err := Render(&geo.Collection{}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ex)
}

func TestRenderMultiPolygonMeshes(t *testing.T) {
	c := &geo.Collection{Records: []geo.Record{{
		Name: "two lobes",
		Geometry: orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}},
		},
		Attributes: map[string]any{"depth": 1.0},
	}}}
	ex, err := Render(c, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ex, 1)
	assert.Len(t, ex[0].Meshes, 2)
}
