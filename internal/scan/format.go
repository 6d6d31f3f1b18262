package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders f in shortest round-trip form, keeping a ".0" on
// integral values and switching to exponent form outside [1e-4, 1e16),
// e.g. 15 -> "15.0", 9.18e-16 -> "9.18e-16".
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		switch {
		case math.IsNaN(f):
			return "nan"
		case f > 0:
			return "inf"
		default:
			return "-inf"
		}
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// EdgeWriter renders edges to an output stream.
type EdgeWriter interface {
	Write(Edge) error
}

type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// Write prints "  lx, ly, lz, gx, gy, gz, path".
func (t *TextWriter) Write(e Edge) error {
	_, err := fmt.Fprintf(t.w, "  %s, %s, %s, %s, %s, %s, %s\n",
		FormatFloat(e.Local.X), FormatFloat(e.Local.Y), FormatFloat(e.Local.Z),
		FormatFloat(e.Global.X), FormatFloat(e.Global.Y), FormatFloat(e.Global.Z),
		e.Path)
	return err
}

// JSONWriter emits one JSON object per line.
type JSONWriter struct {
	enc *json.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

func (j *JSONWriter) Write(e Edge) error {
	return j.enc.Encode(e)
}

// NewEdgeWriter picks a writer by format name: "text" or "json".
func NewEdgeWriter(format string, w io.Writer) (EdgeWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return NewTextWriter(w), nil
	case "json":
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: text, json)", format)
	}
}
