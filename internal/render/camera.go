package render

import (
	"math"

	"floodviz/internal/extrude"
)

// camera is an orthographic view of the normalized scene, defined by
// elevation and azimuth in degrees like the reference view (elev 45,
// azim -120).
type camera struct {
	right [3]float64
	up    [3]float64
	dir   [3]float64
}

func newCamera(elevDeg, azimDeg float64) camera {
	el := elevDeg * math.Pi / 180
	az := azimDeg * math.Pi / 180
	ce, se := math.Cos(el), math.Sin(el)
	ca, sa := math.Cos(az), math.Sin(az)
	return camera{
		// dir points from the scene toward the camera
		dir:   [3]float64{ce * ca, ce * sa, se},
		right: [3]float64{-sa, ca, 0},
		up:    [3]float64{-se * ca, -se * sa, ce},
	}
}

// project maps a scene point to screen (u, v) and a depth value; larger
// depth is closer to the camera.
func (c camera) project(p extrude.Point3) (u, v, depth float64) {
	u = p.X*c.right[0] + p.Y*c.right[1] + p.Z*c.right[2]
	v = p.X*c.up[0] + p.Y*c.up[1] + p.Z*c.up[2]
	depth = p.X*c.dir[0] + p.Y*c.dir[1] + p.Z*c.dir[2]
	return u, v, depth
}

// sceneTransform centers the extrusions and scales all axes equally so the
// view is not distorted, mirroring the equal-axis fixup of the reference
// plot.
type sceneTransform struct {
	cx, cy, cz float64
	scale      float64
}

func newSceneTransform(extrusions []extrude.Extrusion) sceneTransform {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	minZ, maxZ := 0.0, 0.0
	seen := false
	for _, ex := range extrusions {
		for _, m := range ex.Meshes {
			for _, p := range m.Top {
				seen = true
				minX = math.Min(minX, p.X)
				maxX = math.Max(maxX, p.X)
				minY = math.Min(minY, p.Y)
				maxY = math.Max(maxY, p.Y)
				maxZ = math.Max(maxZ, p.Z)
			}
		}
	}
	if !seen {
		return sceneTransform{scale: 1}
	}
	radius := 0.5 * math.Max(maxX-minX, math.Max(maxY-minY, maxZ-minZ))
	if radius <= 0 {
		radius = 1
	}
	return sceneTransform{
		cx:    (minX + maxX) / 2,
		cy:    (minY + maxY) / 2,
		cz:    (minZ + maxZ) / 2,
		scale: 1 / radius,
	}
}

func (t sceneTransform) apply(p extrude.Point3) extrude.Point3 {
	return extrude.Point3{
		X: (p.X - t.cx) * t.scale,
		Y: (p.Y - t.cy) * t.scale,
		Z: (p.Z - t.cz) * t.scale,
	}
}
