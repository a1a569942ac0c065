package css

import (
	"io"
	"strings"
)

const indentUnit = "    "

// Format renders doc as editor friendly CSS text. Imports always go first,
// keyframes last, everything else in document order. Blocks without selector
// are skipped.
func Format(doc Document, depth int) string {
	var sb strings.Builder
	writeDocument(&sb, doc, depth)
	return sb.String()
}

func writeDocument(sb *strings.Builder, doc Document, depth int) {
	for _, o := range doc {
		if o.Kind == KindImports {
			sb.WriteString(o.Styles)
			sb.WriteString("\n\n")
		}
	}

	prefix := strings.Repeat(indentUnit, depth)
	for _, o := range doc {
		if o.Selector == "" || o.Kind == KindImports || o.Kind == KindKeyframes {
			continue
		}
		if o.Comments != "" {
			sb.WriteString(prefix)
			sb.WriteString(o.Comments)
			sb.WriteByte('\n')
		}
		sb.WriteString(prefix)
		sb.WriteString(o.Selector)
		sb.WriteString(" {\n")
		if o.Kind == KindMedia {
			writeDocument(sb, o.SubStyles, depth+1)
		} else {
			sb.WriteString(FormatRules(o.Rules, depth+1))
		}
		sb.WriteString(prefix)
		sb.WriteString("}\n\n")
	}

	for _, o := range doc {
		if o.Kind == KindKeyframes {
			sb.WriteString(o.Styles)
			sb.WriteString("\n\n")
		}
	}
}

// FormatRules renders one declaration per line. An empty list renders as a
// single empty line.
func FormatRules(rules []Rule, depth int) string {
	if len(rules) == 0 {
		return "\n"
	}

	prefix := strings.Repeat(indentUnit, depth)

	var sb strings.Builder
	for _, r := range rules {
		sb.WriteString(prefix)
		if !r.Defective {
			sb.WriteString(r.Directive)
			sb.WriteString(": ")
		}
		sb.WriteString(r.Value)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// String returns the CSS text of the document.
func (d Document) String() string {
	return Format(d, 0)
}

// WriteTo writes CSS text of the document to w, implementing io.WriterTo.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}
