// Package output renders CLI results: colored status lines, JSON dumps and
// aligned tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const ansiReset = "\033[0m"

// Style is a set of ANSI SGR attributes applied around a string.
type Style []int

// Common styles used across commands.
var (
	StyleSuccess = Style{1, 32} // bold green
	StyleError   = Style{1, 31} // bold red
	StyleInfo    = Style{36}    // cyan
	StyleWarn    = Style{33}    // yellow
	StyleHeader  = Style{1, 37} // bold white
)

func (s Style) seq() string {
	if len(s) == 0 {
		return ""
	}
	codes := make([]string, len(s))
	for i, c := range s {
		codes[i] = strconv.Itoa(c)
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}

// Apply wraps text in the style's escape sequence.
func (s Style) Apply(text string) string {
	if len(s) == 0 {
		return text
	}
	return s.seq() + text + ansiReset
}

func Success(format string, a ...any) {
	fmt.Println(StyleSuccess.Apply("✓ " + fmt.Sprintf(format, a...)))
}

func Error(format string, a ...any) {
	fmt.Fprintln(os.Stderr, StyleError.Apply("✗ "+fmt.Sprintf(format, a...)))
}

func Info(format string, a ...any) {
	fmt.Println(StyleInfo.Apply(fmt.Sprintf(format, a...)))
}

func Warn(format string, a ...any) {
	fmt.Println(StyleWarn.Apply("⚠ " + fmt.Sprintf(format, a...)))
}

// JSON pretty-prints v to stdout.
func JSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows under a header with columns padded to content width.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&b, "%-*s  ", widths[i], h)
	}
	b.WriteByte('\n')
	for i := range t.headers {
		b.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	b.WriteByte('\n')
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(w, b.String())
}

// Print renders the table to stdout.
func (t *Table) Print() {
	t.Render(os.Stdout)
}
