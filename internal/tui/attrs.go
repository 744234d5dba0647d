package tui

import (
	"encoding/json"
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"
)

// refreshAttrs rebuilds the table columns/rows from the collection's
// records: a row per feature, a column per attribute key seen anywhere.
func (m *Model) refreshAttrs() {
	cols, rows := m.buildAttributes()
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current dataset"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	maxColW := 24
	for _, c := range cols {
		w := len(c) + 2
		if w > maxColW {
			w = maxColW
		}
		tcols = append(tcols, table.Column{Title: c, Width: w})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Normalize each row to match the number of table columns
	colCount := len(tcols)
	for i := range trows {
		cells := []string(trows[i])
		if len(cells) < colCount {
			pad := make([]string, colCount-len(cells))
			cells = append(cells, pad...)
		} else if len(cells) > colCount {
			cells = cells[:colCount]
		}
		trows[i] = table.Row(cells)
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes unions attribute keys across all records and returns
// (columns, rows). Name and depth (when rendered) lead the columns.
func (m *Model) buildAttributes() ([]string, [][]string) {
	if m.collection.Len() == 0 {
		return []string{}, [][]string{}
	}
	order := []string{}
	seen := map[string]bool{}
	for _, rec := range m.collection.Records {
		for k := range rec.Attributes {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}
	sort.Strings(order)

	cols := []string{"name"}
	if len(m.extrusions) > 0 {
		cols = append(cols, "depth_m")
	}
	cols = append(cols, order...)

	rows := make([][]string, 0, m.collection.Len())
	for i, rec := range m.collection.Records {
		vals := []string{rec.Name}
		if len(m.extrusions) > 0 {
			if i < len(m.extrusions) {
				dc := m.extrusions[i].Color
				v := fmt.Sprintf("%.2f", dc.Depth)
				if dc.Synthetic {
					v += "*"
				}
				vals = append(vals, v)
			} else {
				vals = append(vals, "")
			}
		}
		for _, k := range order {
			vals = append(vals, attrString(rec.Attributes[k]))
		}
		rows = append(rows, vals)
	}
	return cols, rows
}

func attrString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		bs, _ := json.Marshal(t)
		return string(bs)
	}
}
