package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
)

// cellToLonLat converts a map cell coordinate back to lon/lat using bbox, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	lon := m.bbox.Min[0] + nx*(m.bbox.Max[0]-m.bbox.Min[0])
	lat := m.bbox.Min[1] + ny*(m.bbox.Max[1]-m.bbox.Min[1])
	return lon, lat, true
}

// featureColor returns the lipgloss color for a feature's cells, taken from
// the extrusion depth ramp when available.
func (m Model) featureColor(idx int) lipgloss.Color {
	if idx >= 0 && idx < len(m.extrusions) {
		f := m.extrusions[idx].Color.Fill
		return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", f.R, f.G, f.B))
	}
	return accentFg
}

func (m Model) renderAsciiMap(w, h int) string {
	// High-resolution braille buffer for crisp fills and edges
	br := newBrailleBuf(w, h)

	for idx, rec := range m.collection.Records {
		br.setFeature(idx)
		for _, poly := range rec.Polygons() {
			m.rasterizePolygon(br, poly, w, h)
		}
	}

	// Composite braille cells, coloring each by its owning feature's depth
	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		for x := 0; x < w; x++ {
			r, owner := br.cell(x, y)
			if r == ' ' {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteString(lipgloss.NewStyle().Foreground(m.featureColor(owner)).Render(string(r)))
		}
		lines[y] = sb.String()
	}

	// Hover highlight: draw an orange circle at the hovered vertex cell
	if m.hovering {
		cx := m.hoverMicX / 2
		cy := m.hoverMicY / 4
		if cy >= 0 && cy < len(lines) && cx >= 0 && cx < w {
			circle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("◯")
			// styled lines carry ANSI sequences; rebuild the row from the raw buffer
			var sb strings.Builder
			for x := 0; x < w; x++ {
				if x == cx {
					sb.WriteString(circle)
					continue
				}
				r, owner := br.cell(x, cy)
				if r == ' ' {
					sb.WriteRune(' ')
					continue
				}
				sb.WriteString(lipgloss.NewStyle().Foreground(m.featureColor(owner)).Render(string(r)))
			}
			lines[cy] = sb.String()
		}
	}
	return strings.Join(lines, "\n")
}

// rasterizePolygon fills the outer ring with an even-odd scanline pass on
// the microgrid, then draws every ring edge at high resolution.
func (m Model) rasterizePolygon(br *brailleBuf, poly orb.Polygon, w, h int) {
	var ringsMic [][][2]int
	for _, ring := range poly {
		var sm [][2]int
		for _, p := range ring {
			mx, my, ok := m.screenXYMicro(p[0], p[1], w, h)
			if !ok {
				continue
			}
			sm = append(sm, [2]int{mx, my})
		}
		if len(sm) >= 3 {
			ringsMic = append(ringsMic, sm)
		}
	}
	if len(ringsMic) == 0 {
		return
	}

	// fill using even-odd rule per scanline on the outer ring
	outerMic := ringsMic[0]
	hMic := h * 4
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for i := 0; i < len(outerMic); i++ {
			a := outerMic[i]
			b := outerMic[(i+1)%len(outerMic)]
			if a[1] == b[1] { // horizontal edge: skip
				continue
			}
			y0, y1 := a[1], b[1]
			x0, x1 := a[0], b[0]
			if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
				t := float64(yMic-y0) / float64(y1-y0)
				x := int(float64(x0) + t*float64(x1-x0))
				xs = append(xs, x)
			}
		}
		if len(xs) >= 2 {
			sort.Ints(xs)
			for i := 0; i+1 < len(xs); i += 2 {
				xstart := xs[i]
				xend := xs[i+1]
				if xstart > xend {
					xstart, xend = xend, xstart
				}
				for xMic := max(0, xstart); xMic <= xend; xMic++ {
					br.setPixel(xMic, yMic)
				}
			}
		}
	}
	// draw edges (high-res)
	for idx := range ringsMic {
		r := ringsMic[idx]
		for i := 0; i < len(r); i++ {
			a := r[i]
			b := r[(i+1)%len(r)]
			br.drawLineMicro(a[0], a[1], b[0], b[1])
		}
	}
}

// screenXYMicro maps lon/lat into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(lon, lat float64, w, h int) (int, int, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	nx := (lon - m.bbox.Min[0]) / (m.bbox.Max[0] - m.bbox.Min[0])
	ny := (lat - m.bbox.Min[1]) / (m.bbox.Max[1] - m.bbox.Min[1])
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	wMic := w * 2
	hMic := h * 4
	sx := int(zx*float64(wMic-1)) + m.offsetX*2
	sy := int((1.0-zy)*float64(hMic-1)) + m.offsetY*4
	return sx, sy, true
}

// screenXY maps lon/lat to current screen integer coordinates considering zoom and pan.
func (m Model) screenXY(lon, lat float64, w, h int) (int, int, bool) {
	if !(m.bbox.Max[0] > m.bbox.Min[0] && m.bbox.Max[1] > m.bbox.Min[1]) {
		return 0, 0, false
	}
	nx := (lon - m.bbox.Min[0]) / (m.bbox.Max[0] - m.bbox.Min[0])
	ny := (lat - m.bbox.Min[1]) / (m.bbox.Max[1] - m.bbox.Min[1])
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	sx := int(zx*float64(w-1)) + m.offsetX
	sy := int((1.0-zy)*float64(h-1)) + m.offsetY
	return sx, sy, true
}
