package tui

import (
	"fmt"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(28-2, m.height-1-2) // provisional; will be refined in View
		}
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "-", "_":
			if m.zoom > 0.05 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "r":
			m.zoom = 1.0
			m.offsetX, m.offsetY = 0, 0
			m.bbox = m.collection.Bound()
			m.status = "view reset"
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.l.SetSize(28-2, m.height-1-2)
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
		case "i":
			m.inspectCenter()
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(featureItem); ok {
					m.focusFeature(it.idx)
				}
			}
		case "esc":
			m.inspectPopup = ""
		case "up":
			m.offsetY -= 1
		case "down":
			m.offsetY += 1
		case "left":
			m.offsetX -= 2
		case "right":
			m.offsetX += 2
		}
	case tea.MouseMsg:
		m.trackHover(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// focusFeature recenters the viewport on one feature's bound with a small
// margin.
func (m *Model) focusFeature(idx int) {
	if idx < 0 || idx >= m.collection.Len() {
		return
	}
	rec := m.collection.Records[idx]
	b := rec.Geometry.Bound()
	padX := (b.Max[0] - b.Min[0]) * 0.2
	padY := (b.Max[1] - b.Min[1]) * 0.2
	if padX <= 0 {
		padX = 0.001
	}
	if padY <= 0 {
		padY = 0.001
	}
	m.bbox = orb.Bound{
		Min: orb.Point{b.Min[0] - padX, b.Min[1] - padY},
		Max: orb.Point{b.Max[0] + padX, b.Max[1] + padY},
	}
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	name := rec.Name
	if name == "" {
		name = fmt.Sprintf("feature %d", idx+1)
	}
	m.status = "focused: " + name
}

// inspectCenter finds the feature nearest the viewport center and shows a
// popup with its metadata.
func (m *Model) inspectCenter() {
	w, h := m.mapW, m.mapH
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	lon, lat, ok := m.cellToLonLat(w/2, h/2, w, h)
	if !ok {
		m.inspectPopup = "no feature nearby"
		m.status = m.inspectPopup
		return
	}
	idx, found := m.index.Nearest(orb.Point{lon, lat})
	if !found {
		m.inspectPopup = "no feature nearby"
		m.status = m.inspectPopup
		return
	}
	rec := m.collection.Records[idx]
	name := rec.Name
	if name == "" {
		name = fmt.Sprintf("feature %d", idx+1)
	}
	centroid, area := planar.CentroidArea(rec.Geometry)
	b := rec.Geometry.Bound()
	meta := []string{
		fmt.Sprintf("name: %s", name),
		fmt.Sprintf("source: %s", m.source),
		fmt.Sprintf("bbox: [%.5f, %.5f, %.5f, %.5f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1]),
		fmt.Sprintf("centroid: lon=%.6f lat=%.6f", centroid[0], centroid[1]),
		fmt.Sprintf("area: %.6f deg²", area),
		"crs: " + m.collection.CRS,
	}
	if idx < len(m.extrusions) {
		dc := m.extrusions[idx].Color
		depth := fmt.Sprintf("depth: %.2fm  height: %.4f", dc.Depth, dc.Height)
		if dc.Synthetic {
			depth += "  (synthetic)"
		}
		meta = append(meta, depth)
	}
	keys := make([]string, 0, len(rec.Attributes))
	for k := range rec.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, fmt.Sprintf("%s: %v", k, rec.Attributes[k]))
	}
	m.inspectPopup = strings.Join(meta, "\n")
	m.status = "inspect popup"
}

// trackHover mirrors the View layout math to find the hovered map cell and
// the nearest feature vertex.
func (m *Model) trackHover(msg tea.MouseMsg) {
	sidebarWidth := 0
	if m.showSidebar {
		sidebarWidth = 28
	}
	headerHeight := 1
	footerHeight := 2
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 4 {
		contentHeight = 4
	}
	contentWidth := max(10, m.width)

	if m.showSidebar {
		m.l.SetSize(28-2, contentHeight-2)
	}

	mapWidth := contentWidth - sidebarWidth - 1
	if mapWidth < 10 {
		mapWidth = 10
	}
	mapHeight := contentHeight
	mapOriginX := sidebarWidth
	if m.showSidebar {
		mapOriginX++
	}
	mapOriginY := headerHeight

	cx, cy := msg.X, msg.Y
	if cx < mapOriginX || cx >= mapOriginX+mapWidth || cy < mapOriginY || cy >= mapOriginY+mapHeight {
		m.hovering = false
		return
	}
	m.hovering = true
	m.hoverCellX = cx - mapOriginX
	m.hoverCellY = cy - mapOriginY
	if lon, lat, ok := m.cellToLonLat(m.hoverCellX, m.hoverCellY, mapWidth, mapHeight); ok {
		m.hoverHasGeo = true
		m.hoverLon = lon
		m.hoverLat = lat
	} else {
		m.hoverHasGeo = false
	}

	// snap to the nearest vertex of nearby features, using the index to
	// keep the candidate set small
	hxMic := m.hoverCellX * 2
	hyMic := m.hoverCellY * 4
	best := 1<<31 - 1
	bx, by := hxMic, hyMic
	if m.hoverHasGeo {
		if idx, ok := m.index.Nearest(orb.Point{m.hoverLon, m.hoverLat}); ok {
			for _, poly := range m.collection.Records[idx].Polygons() {
				for _, ring := range poly {
					for _, p := range ring {
						mx, my, ok := m.screenXYMicro(p[0], p[1], mapWidth, mapHeight)
						if !ok {
							continue
						}
						dx := mx - hxMic
						dy := my - hyMic
						d := dx*dx + dy*dy
						if d < best {
							best = d
							bx, by = mx, my
						}
					}
				}
			}
		}
	}
	m.hoverMicX, m.hoverMicY = bx, by
}
