/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: Table rendering on top of go-pretty. Tables are built once and rendered
as terminal ASCII, Markdown or CSV.
*/

package reporting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
	CSV                  // Comma separated values
)

// ParseMode accepts "ascii", "markdown"/"md" and "csv"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "table":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	default:
		return ASCII, fmt.Errorf("unknown table format %q", s)
	}
}

// Table is a titled table rendered in a fixed Mode
type Table struct {
	writer table.Writer
	mode   Mode
}

// NewTable returns a table that renders in the given Mode
func NewTable(m Mode, title string) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
		w.SetTitle(title)
	}
	return &Table{writer: w, mode: m}
}

// Header sets the column headers
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Row appends a data row
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// Footer appends a footer row
func (t *Table) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

// AlignRight right-aligns the given 1-based columns, used for numbers
func (t *Table) AlignRight(columns ...int) {
	cfgs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight}
	}
	t.writer.SetColumnConfigs(cfgs)
}

// String renders the table in its Mode
func (t *Table) String() string {
	switch t.mode {
	case Markdown:
		return t.writer.RenderMarkdown()
	case CSV:
		return t.writer.RenderCSV()
	default:
		return t.writer.Render()
	}
}

// Number formats a crisp value for display
func Number(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
