package css_test

import (
	"testing"

	"cssw/css"
)

func TestRewriteURLs(t *testing.T) {
	e := newEngine()
	doc := e.Parse(`@import "a.css";
.a { background: url(img/x.png); }
.b { background: url(data:image/png;base64,AAA); }
@media print { .c { background-image: url('p.png'); } }`)

	var seen []string
	n := doc.RewriteURLs(func(u string) string {
		seen = append(seen, u)
		return "/static/" + u
	})
	if n != 3 {
		t.Errorf("RewriteURLs() = %d, want 3", n)
	}

	if got := css.ImportsOf(doc)[0]; got != `@import url("/static/a.css");` {
		t.Errorf("import = %q", got)
	}
	if got := css.Find(doc, ".a", false)[0].Rules[0].Value; got != `url("/static/img/x.png")` {
		t.Errorf(".a background = %q", got)
	}
	if got := css.Find(doc, ".b", false)[0].Rules[0].Value; got != "url(data:image/png;base64,AAA)" {
		t.Errorf("data uri must be kept, got %q", got)
	}
	media := css.Find(doc, "@media print", false)[0]
	if got := media.SubStyles[0].Rules[0].Value; got != `url("/static/p.png")` {
		t.Errorf("nested background = %q", got)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 rewritten references, got %v", seen)
	}
}

func TestRewriteURLs_EscapesQuotes(t *testing.T) {
	doc := css.Document{{Selector: ".a", Rules: []css.Rule{{Directive: "background", Value: "url(x.png)"}}}}

	doc.RewriteURLs(func(string) string { return `a"b` })

	if got := doc[0].Rules[0].Value; got != `url("a\"b")` {
		t.Errorf("value = %q", got)
	}
}

func TestRewriteURLs_OnlyReferences(t *testing.T) {
	e := newEngine()
	doc := e.Parse(`@import url(data:text/css,AAA);
@import 'theme.css' screen;
.a { content: "url(x.png)"; background: URL( "y.png" ) no-repeat, url(z.png); }`)

	n := doc.RewriteURLs(func(u string) string { return "r/" + u })

	if n != 3 {
		t.Errorf("RewriteURLs() = %d, want 3", n)
	}
	imports := css.ImportsOf(doc)
	if imports[0] != "@import url(data:text/css,AAA);" {
		t.Errorf("data uri import = %q", imports[0])
	}
	if imports[1] != `@import url("r/theme.css") screen;` {
		t.Errorf("import = %q", imports[1])
	}
	a := css.Find(doc, ".a", false)[0]
	if got := a.Rules[0].Value; got != `"url(x.png)"` {
		t.Errorf("string value must be kept, got %q", got)
	}
	if got := a.Rules[1].Value; got != `url("r/y.png") no-repeat, url("r/z.png")` {
		t.Errorf("background = %q", got)
	}
}
