package css

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Segmenter expressions. Each pass removes what it matched so later passes see
// only the residual text. Lazy matching stands in for brace counting, nested
// blocks deeper than one level (media body) are not supported.
var (
	importRe    = regexp.MustCompile(`(?i)@import .*?;`)
	keyframesRe = regexp.MustCompile(`(?i)((@.*?keyframes [\s\S]*?)\{([\s\S]*?\}\s*?)\})`)
	commentRe   = regexp.MustCompile(`(` + comment + `)`)

	// Either a media block (groups 2 and 3 are header and body without the
	// closing brace of its last rule) or an ordinary block (groups 5 and 6 are
	// selector and declarations).
	blockRe = regexp.MustCompile(`(?i)((\s*?(?:` + comment + `\s*?)*@media[\s\S]*?)\{([\s\S]*?)\}\s*?\})|(([\s\S]*?)\{([\s\S]*?)\})`)
)

// comment matches a single comment, it never runs past the first "*/".
const comment = `/\*(?:[^*]|\*+[^*/])*\*+/`

// Parse parses CSS text into a document. Empty input produces an empty
// document. Every @import found is also added to the engine accumulator.
func (e *Engine) Parse(src string) Document {
	doc := make(Document, 0)
	if src == "" {
		return doc
	}

	e.log.Debug("Parsing CSS", zap.Int("bytes", len(src)))

	src, doc = e.extractImports(src, doc)
	src, doc = extractKeyframes(src, doc)
	return e.parseBlocks(src, doc)
}

// extractImports moves @import statements from src to doc.
func (e *Engine) extractImports(src string, doc Document) (string, Document) {
	for _, stmt := range importRe.FindAllString(src, -1) {
		e.imports = append(e.imports, stmt)
		doc = append(doc, &Object{Selector: SelectorImports, Kind: KindImports, Styles: stmt})
	}
	return importRe.ReplaceAllLiteralString(src, ""), doc
}

// extractKeyframes moves @keyframes blocks from src to doc verbatim.
func extractKeyframes(src string, doc Document) (string, Document) {
	for _, block := range keyframesRe.FindAllString(src, -1) {
		doc = append(doc, &Object{Selector: SelectorKeyframes, Kind: KindKeyframes, Styles: block})
	}
	return keyframesRe.ReplaceAllLiteralString(src, ""), doc
}

// parseBlocks builds media and ordinary blocks from what is left of src.
func (e *Engine) parseBlocks(src string, doc Document) Document {
	for _, m := range blockRe.FindAllStringSubmatch(src, -1) {
		selector, body := m[5], m[6]
		if m[1] != "" {
			selector, body = m[2], m[3]
		}
		selector = strings.TrimSpace(normalizeEOL(selector))

		var comments string
		if c := commentRe.FindString(selector); c != "" {
			comments = c
			selector = strings.TrimSpace(commentRe.ReplaceAllLiteralString(selector, ""))
		}

		obj := &Object{Selector: selector, Comments: comments}
		switch {
		case strings.Contains(selector, "@media"):
			obj.Kind = KindMedia
			// last inner rule lost its closing brace to the outer match
			obj.SubStyles = e.Parse(body + "\n}")
		default:
			obj.Rules = ParseRules(body)
			if selector == SelectorFontFace {
				obj.Kind = KindFontFace
			}
		}
		doc = append(doc, obj)
	}
	return doc
}

// StripComments removes all CSS comments from src.
func StripComments(src string) string {
	return commentRe.ReplaceAllLiteralString(src, "")
}

func normalizeEOL(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
