// Package debug formats human readable dumps of documents and engine state.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/rect"

	"flipbook/geometry"
)

// TreeWriter builds indented text, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label with quoted value, empty value is left as is.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Size writes "label: WxH".
func (tw TreeWriter) Size(depth int, label string, s geometry.Size) {
	tw.Line(depth, "%s: %sx%s", label, num(s.Width), num(s.Height))
}

// Rect writes "label: [x1 y1 x2 y2]".
func (tw TreeWriter) Rect(depth int, label string, r rect.Rect) {
	tw.Line(depth, "%s: [%s %s %s %s]", label, num(r.LLx), num(r.LLy), num(r.URx), num(r.URy))
}

// num prints coordinates with at most two decimals.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
