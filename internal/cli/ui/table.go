package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table renders rows under a bold header and a rule. The last column is
// never padded.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	indent  string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
	// Indent prefixes every rendered line
	Indent string
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{writer: w, headers: headers}
	if opts != nil {
		t.noColor = opts.NoColor
		t.indent = opts.Indent
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	fmt.Fprint(t.writer, t.indent)
	for i, header := range t.headers {
		bold.Fprint(t.writer, t.pad(header, widths, i, len(t.headers)))
	}
	fmt.Fprintln(t.writer)

	rules := make([]string, len(widths))
	for i, width := range widths {
		rules[i] = strings.Repeat("─", width)
	}
	fmt.Fprint(t.writer, t.indent)
	gray.Fprintln(t.writer, strings.Join(rules, "  "))

	for _, row := range t.rows {
		fmt.Fprint(t.writer, t.indent)
		n := min(len(row), len(widths))
		for i := 0; i < n; i++ {
			fmt.Fprint(t.writer, t.pad(row[i], widths, i, n))
		}
		fmt.Fprintln(t.writer)
	}
}

func (t *Table) pad(cell string, widths []int, i, n int) string {
	if i == n-1 {
		return cell
	}
	return padRight(cell, widths[i]) + "  "
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	rows    [][2]string
	indent  string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, indent string, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, indent: indent, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.rows = append(t.rows, [2]string{key, value})
}

// Render writes the rows with keys padded to a common width
func (t *KeyValueTable) Render() {
	width := 0
	for _, row := range t.rows {
		width = max(width, len(row[0]))
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for _, row := range t.rows {
		fmt.Fprint(t.writer, t.indent)
		cyan.Fprint(t.writer, padRight(row[0]+":", width+1))
		fmt.Fprintf(t.writer, " %s\n", row[1])
	}
}
