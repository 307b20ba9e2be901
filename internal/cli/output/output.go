// Package output provides structured output formatting for the countme CLI.
//
// Output supports multiple formats:
//   - table: Human-readable tables (default)
//   - json: Machine-readable JSON
//   - yaml: Machine-readable YAML
//   - quiet: Minimal output
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatQuiet Format = "quiet"
)

// ParseFormat parses a format string.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "quiet", "q":
		return FormatQuiet
	default:
		return FormatTable
	}
}

// Table holds tabular data for rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular is implemented by types that can render themselves as a table.
type Tabular interface {
	TableData() *Table
}

// Writer handles formatted output based on the configured format.
type Writer struct {
	format Format
	out    io.Writer
}

// NewWriter creates a new output writer with the specified format.
func NewWriter(format Format) *Writer {
	return &Writer{
		format: format,
		out:    os.Stdout,
	}
}

// WithOutput sets the output writer.
func (w *Writer) WithOutput(out io.Writer) *Writer {
	w.out = out
	return w
}

// Format returns the current format.
func (w *Writer) Format() Format {
	return w.format
}

// Write outputs data according to the configured format.
func (w *Writer) Write(data any) error {
	switch w.format {
	case FormatJSON:
		return w.writeJSON(data)
	case FormatYAML:
		return w.writeYAML(data)
	case FormatQuiet:
		return nil
	default:
		return w.writeTable(data)
	}
}

// writeJSON outputs data as pretty-printed JSON.
func (w *Writer) writeJSON(data any) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// writeYAML outputs data as YAML.
func (w *Writer) writeYAML(data any) error {
	return yaml.NewEncoder(w.out).Encode(data)
}

// writeTable outputs data as a formatted table.
func (w *Writer) writeTable(data any) error {
	switch v := data.(type) {
	case Tabular:
		return w.renderTable(v.TableData())
	case *Table:
		return w.renderTable(v)
	case string:
		fmt.Fprintln(w.out, v)
	default:
		return w.writeJSON(data)
	}
	return nil
}

// renderTable renders a table to the output.
func (w *Writer) renderTable(t *Table) error {
	if t == nil || len(t.Headers) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)

	for i, h := range t.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, strings.ToUpper(h))
	}
	fmt.Fprintln(tw)

	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// Println writes a line to output.
func (w *Writer) Println(a ...any) {
	fmt.Fprintln(w.out, a...)
}
