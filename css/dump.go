package css

import (
	"cssw/utils/debug"
)

// Dump returns an indented tree of the document model, rule states and
// defective rules included. Useful for debugging diffs which carry
// tombstones.
func Dump(doc Document) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "document (%d blocks)", len(doc))
	dumpDocument(tw, doc, 1)
	return tw.String()
}

func dumpDocument(tw *debug.TreeWriter, doc Document, depth int) {
	for _, o := range doc {
		kind := o.Kind.String()
		if kind == "" {
			kind = "rule"
		}
		switch o.Kind {
		case KindImports, KindKeyframes:
			tw.Node(depth, kind, "")
			tw.TextBlock(depth+1, "styles", o.Styles)
			continue
		}

		tw.Node(depth, kind, o.Selector)
		if o.Comments != "" {
			tw.TextBlock(depth+1, "comments", o.Comments)
		}
		if o.Kind == KindMedia {
			dumpDocument(tw, o.SubStyles, depth+1)
			continue
		}
		for _, r := range o.Rules {
			if r.Defective {
				tw.Node(depth+1, "defective", r.Value, r.State.String())
				continue
			}
			tw.Node(depth+1, r.Directive, r.Value, r.State.String())
		}
	}
}
