package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates an indented, line oriented dump of nested
// structures.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: "  ",
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label followed by quoted value, empty values are written
// as is.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Node writes node kind, its quoted title when present and bracketed flags.
func (tw TreeWriter) Node(depth int, kind, title string, flags ...string) {
	tw.pad(depth)
	tw.w.WriteString(kind)
	if title != "" {
		tw.w.WriteByte(' ')
		tw.w.WriteString(encodeText(title))
	}
	for _, f := range flags {
		if f == "" {
			continue
		}
		tw.w.WriteString(" [")
		tw.w.WriteString(f)
		tw.w.WriteByte(']')
	}
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
