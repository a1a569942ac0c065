package css

import (
	"bytes"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// RewriteURLs replaces every referenced location in the document with the
// result of fn: targets of @import statements and url() values of rule blocks,
// including blocks nested in media queries. Data URIs are kept, keyframes are
// opaque. Rewritten references are always written as url("..."). Returns
// number of references rewritten.
func (d Document) RewriteURLs(fn func(ref string) string) int {
	var n int
	for _, o := range d {
		switch o.Kind {
		case KindImports:
			o.Styles = rewriteRefs(o.Styles, true, fn, &n)
		case KindMedia:
			n += o.SubStyles.RewriteURLs(fn)
		case KindRule, KindFontFace:
			for i, r := range o.Rules {
				if !r.Defective && hasURL(r.Value) {
					o.Rules[i].Value = rewriteRefs(r.Value, false, fn, &n)
				}
			}
		}
	}
	return n
}

func hasURL(s string) bool {
	return strings.Contains(strings.ToLower(s), "url(")
}

// rewriteRefs lexes text so strings and comments which happen to contain
// "url(" are left alone. In import statements the first bare string is the
// target as well.
func rewriteRefs(text string, stmt bool, fn func(string) string, n *int) string {
	var (
		sb       strings.Builder
		atImport bool
	)
	l := css.NewLexer(parse.NewInputString(text))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if l.Err() != io.EOF {
				return text
			}
			return sb.String()
		case css.AtKeywordToken:
			atImport = stmt && parse.EqualFold(data, []byte("@import"))
		case css.StringToken:
			if atImport {
				atImport = false
				if ref := unquote(data); !isDataURI(ref) {
					sb.WriteString(quotedURL(fn(ref)))
					*n++
					continue
				}
			}
		case css.URLToken:
			atImport = false
			if ref := urlTokenRef(data); !isDataURI(ref) {
				sb.WriteString(quotedURL(fn(ref)))
				*n++
				continue
			}
		}
		sb.Write(data)
	}
}

// urlTokenRef returns location of url(...) token without quotes.
func urlTokenRef(data []byte) string {
	ref := data[bytes.IndexByte(data, '(')+1:]
	ref = bytes.TrimSuffix(ref, []byte{')'})
	return unquote(bytes.TrimSpace(ref))
}

func unquote(s []byte) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return string(s)
}

func isDataURI(ref string) bool {
	return len(ref) >= 5 && strings.EqualFold(ref[:5], "data:")
}

func quotedURL(ref string) string {
	return `url("` + quoteEscaper.Replace(ref) + `")`
}
