// Package output provides result writers for the crawler.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ctfhound/flagcrawl/internal/metrics"
)

// Report is the complete result of a crawl.
type Report struct {
	Target      string           `json:"target"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Flags       []string         `json:"flags"`
	QuotaMet    bool             `json:"quota_met"`
	Stats       metrics.Snapshot `json:"stats"`
}

// Writer defines the interface for result writers.
type Writer interface {
	// WriteFlag writes a single flag as it is harvested (streaming).
	WriteFlag(flag string) error

	// WriteReport writes the complete crawl report.
	WriteReport(report *Report) error

	// Flush flushes any buffered output.
	Flush() error
}

// Config holds output configuration.
type Config struct {
	Format string `json:"format" yaml:"format"` // "text" or "json"
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// NewWriter creates a writer for the configured format.
func NewWriter(w io.Writer, cfg Config) Writer {
	switch cfg.Format {
	case "json":
		return NewJSONWriter(w, cfg.Pretty)
	default:
		return NewTextWriter(w)
	}
}

// TextWriter prints each discovered flag once, one per line. Order is
// unspecified. This is the program's contract with callers that pipe the
// output.
type TextWriter struct {
	bw *bufio.Writer
}

// NewTextWriter creates a new text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{bw: bufio.NewWriter(w)}
}

// WriteFlag writes one flag line.
func (t *TextWriter) WriteFlag(flag string) error {
	_, err := fmt.Fprintln(t.bw, flag)
	return err
}

// WriteReport is a no-op for the text format; flags were already streamed.
func (t *TextWriter) WriteReport(report *Report) error {
	return nil
}

// Flush flushes buffered lines.
func (t *TextWriter) Flush() error {
	return t.bw.Flush()
}

// JSONWriter emits the full report as a single JSON document.
type JSONWriter struct {
	w      io.Writer
	pretty bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	return &JSONWriter{w: w, pretty: pretty}
}

// WriteFlag is a no-op for the JSON format; flags appear in the report.
func (j *JSONWriter) WriteFlag(flag string) error {
	return nil
}

// WriteReport writes the report document.
func (j *JSONWriter) WriteReport(report *Report) error {
	enc := json.NewEncoder(j.w)
	if j.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

// Flush is a no-op for JSONWriter.
func (j *JSONWriter) Flush() error {
	return nil
}
