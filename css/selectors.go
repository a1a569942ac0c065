package css

import (
	"strings"
)

// Find returns blocks whose selector equals selector, or contains it when
// contains is set. Nothing is modified.
func Find(doc Document, selector string, contains bool) []*Object {
	var found []*Object
	for _, o := range doc {
		if o.Selector == selector || (contains && strings.Contains(o.Selector, selector)) {
			found = append(found, o)
		}
	}
	return found
}

// DedupeInto finds blocks like Find and folds all duplicates into the first
// one, which is modified in place. Result has at most one element.
func DedupeInto(doc Document, selector string, contains bool) []*Object {
	found := Find(doc, selector, contains)
	if len(found) < 2 {
		return found
	}
	base := Document{found[0]}
	for _, o := range found[1:] {
		base.Push(o, false)
	}
	return base[:1]
}

// DeleteBySelector returns a new document without blocks having exactly the
// given selector.
func DeleteBySelector(doc Document, selector string) Document {
	kept := make(Document, 0, len(doc))
	for _, o := range doc {
		if o.Selector != selector {
			kept = append(kept, o)
		}
	}
	return kept
}

// Compress returns a document with one block per distinct selector, all
// declarations of duplicates folded into the first occurrence. doc itself is
// left intact.
func Compress(doc Document) Document {
	work := doc.Clone()

	compressed := make(Document, 0, len(work))
	done := make(map[string]bool, len(work))
	for _, o := range work {
		if o.Kind == KindImports || o.Kind == KindKeyframes {
			// opaque statements share reserved selectors
			compressed = append(compressed, o)
			continue
		}
		if done[o.Selector] {
			continue
		}
		if found := DedupeInto(work, o.Selector, false); len(found) != 0 {
			compressed = append(compressed, found[0])
			done[o.Selector] = true
		}
	}
	return compressed
}

// ImportsOf returns @import statements of the document in order.
func ImportsOf(doc Document) []string {
	var imports []string
	for _, o := range doc {
		if o.Kind == KindImports {
			imports = append(imports, o.Styles)
		}
	}
	return imports
}
