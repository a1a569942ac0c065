package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Blocks with selectors containing any of these are never scoped.
var namespaceExclusions = []string{"@font-face", "keyframes", "@import", ".form-all", "#stage"}

// Selectors containing this class are intentionally global and left alone.
const globalScopeClass = ".supernova"

func excludedFromNamespacing(selector string) bool {
	for _, x := range namespaceExclusions {
		if strings.Contains(selector, x) {
			return true
		}
	}
	return false
}

// ApplyNamespacing prefixes every selector of every top level block (and of
// blocks inside media queries) with the scoping class. forced replaces the
// engine class when not empty. doc is modified in place and returned.
func (e *Engine) ApplyNamespacing(doc Document, forced string) Document {
	class := e.scopingClass(forced)
	for _, o := range doc {
		if excludedFromNamespacing(o.Selector) {
			continue
		}
		if o.Kind == KindMedia {
			o.SubStyles = e.ApplyNamespacing(o.SubStyles, forced)
			continue
		}
		parts := splitSelectorList(o.Selector)
		for i, part := range parts {
			if !strings.Contains(part, globalScopeClass) {
				parts[i] = class + " " + part
			}
		}
		o.Selector = strings.Join(parts, ",")
	}
	return doc
}

// ApplyNamespacingText parses src and namespaces the result.
func (e *Engine) ApplyNamespacingText(src, forced string) Document {
	return e.ApplyNamespacing(e.Parse(src), forced)
}

// ClearNamespacing removes the scoping class prefix from all selectors,
// recursing into media queries. doc is modified in place and returned.
func (e *Engine) ClearNamespacing(doc Document, forced string) Document {
	prefix := e.scopingClass(forced) + " "
	for _, o := range doc {
		if o.Kind == KindMedia {
			o.SubStyles = e.ClearNamespacing(o.SubStyles, forced)
			continue
		}
		parts := splitSelectorList(o.Selector)
		for i, part := range parts {
			parts[i] = strings.ReplaceAll(part, prefix, "")
		}
		o.Selector = strings.Join(parts, ",")
	}
	return doc
}

// ClearNamespacingText parses src, clears namespacing and renders the result.
func (e *Engine) ClearNamespacingText(src, forced string) string {
	return e.ClearNamespacing(e.Parse(src), forced).String()
}

func (e *Engine) scopingClass(forced string) string {
	if forced != "" {
		return forced
	}
	return e.NamespaceClass()
}

// splitSelectorList splits a selector group on commas which are not inside
// parentheses, brackets or strings. Whitespace around parts is kept so that
// joining parts with "," restores the input.
func splitSelectorList(selector string) []string {
	if !strings.ContainsAny(selector, "([\"'") {
		return strings.Split(selector, ",")
	}

	var (
		parts []string
		sb    strings.Builder
		depth int
	)
	l := css.NewLexer(parse.NewInputString(selector))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if sb.Len()+joinedLen(parts) != len(selector) {
				// lexer gave up before the end, no better than plain split
				return strings.Split(selector, ",")
			}
			return append(parts, sb.String())
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, sb.String())
				sb.Reset()
				continue
			}
		}
		sb.Write(data)
	}
}

// joinedLen is the length of parts joined back with commas, including the
// trailing separator before the part being accumulated.
func joinedLen(parts []string) int {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	return n
}
