package extrude

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Blue scale endpoints, light water to deep navy.
var (
	rampLight = colorful.Color{R: 0.9686, G: 0.9843, B: 1.0}    // #F7FBFF
	rampDark  = colorful.Color{R: 0.0314, G: 0.1882, B: 0.4196} // #08306B
)

// DepthColor carries the display quantities derived from one record's
// depth: extrusion height and the face colors for top, side walls, and
// edges.
type DepthColor struct {
	Depth      float64
	Normalized float64
	Height     float64
	Synthetic  bool

	Fill color.NRGBA
	Side color.NRGBA
	Edge color.NRGBA
}

// depthColor maps a normalized depth into the configured sub-range of the
// blue scale: shallow stays light, deep goes dark. Side walls are a darker
// tone of the fill; edges a brightened tone clamped to the valid range.
func depthColor(depth, norm float64, synthetic bool, opts Options) DepthColor {
	t := opts.RampLow + norm*(opts.RampHigh-opts.RampLow)
	water := rampLight.BlendLab(rampDark, t).Clamped()

	return DepthColor{
		Depth:      depth,
		Normalized: norm,
		Height:     depth * opts.HeightScale,
		Synthetic:  synthetic,
		Fill:       toNRGBA(water, 0.7),
		Side:       toNRGBA(scaleRGB(water, 0.7), 0.6),
		Edge:       toNRGBA(scaleRGB(water, 1.2), 1.0),
	}
}

func scaleRGB(c colorful.Color, f float64) colorful.Color {
	return colorful.Color{
		R: clamp01(c.R * f),
		G: clamp01(c.G * f),
		B: clamp01(c.B * f),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
