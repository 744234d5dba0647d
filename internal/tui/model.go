package tui

import (
	"fmt"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"floodviz/internal/extrude"
	"floodviz/internal/geo"
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// Data
	collection *geo.Collection
	extrusions []extrude.Extrusion
	index      *geo.Index
	bbox       orb.Bound
	source     string

	// Feature sidebar
	l list.Model

	// last rendered map size (for inspect)
	mapW int
	mapH int

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// attributes table
	showAttrs bool
	tbl       table.Model
}

type featureItem struct {
	title, desc string
	idx         int
}

func (f featureItem) Title() string       { return f.title }
func (f featureItem) Description() string { return f.desc }
func (f featureItem) FilterValue() string { return f.title }

// New builds a preview over a loaded collection. The extrusions supply the
// depth colors; pass nil to render everything in the accent color.
func New(c *geo.Collection, extrusions []extrude.Extrusion, source string) Model {
	m := Model{
		showSidebar: false,
		helpVisible: true,
		zoom:        1.0,
		collection:  c,
		extrusions:  extrusions,
		index:       geo.NewIndex(c),
		bbox:        c.Bound(),
		source:      source,
	}
	if c.Len() == 0 {
		m.status = "warning: empty collection, nothing to draw"
	} else {
		m.status = fmt.Sprintf("loaded: %s  features: %d", source, c.Len())
	}

	// feature list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	items := make([]list.Item, 0, c.Len())
	for i, rec := range c.Records {
		title := rec.Name
		if title == "" {
			title = fmt.Sprintf("feature %d", i+1)
		}
		desc := ""
		if i < len(extrusions) {
			dc := extrusions[i].Color
			desc = fmt.Sprintf("depth %.2fm", dc.Depth)
			if dc.Synthetic {
				desc += " (synthetic)"
			}
		}
		items = append(items, featureItem{title: title, desc: desc, idx: i})
	}
	m.l = list.New(items, d, 0, 0)
	m.l.Title = "Features"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)

	// attributes table setup (columns inferred from the collection)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

func (m Model) Init() tea.Cmd { return nil }
