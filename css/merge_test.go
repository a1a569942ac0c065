package css_test

import (
	"reflect"
	"slices"
	"testing"

	"cssw/css"
)

func TestMerge_TombstoneCompaction(t *testing.T) {
	doc := css.Document{{Selector: ".a", Rules: []css.Rule{{Directive: "color", Value: "red"}}}}
	incoming := css.Document{{Selector: ".a", Rules: []css.Rule{{Directive: "color", Value: "red", State: css.RuleDeleted}}}}

	doc.Merge(incoming, false)

	if len(doc) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc))
	}
	if len(doc[0].Rules) != 0 {
		t.Errorf("tombstoned rule must be compacted, got %v", doc[0].Rules)
	}
	if got := doc.String(); got != ".a {\n\n}\n\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestPush_AddsAndOverwrites(t *testing.T) {
	doc := css.Document{{Selector: ".a", Rules: []css.Rule{
		{Directive: "color", Value: "red"},
		{Directive: "margin", Value: "0"},
	}}}

	doc.Push(&css.Object{Selector: ".a", Rules: []css.Rule{
		{Directive: "color", Value: "blue"},
		{Directive: "padding", Value: "2px"},
	}}, false)

	want := []css.Rule{
		{Directive: "color", Value: "blue"},
		{Directive: "margin", Value: "0"},
		{Directive: "padding", Value: "2px"},
	}
	if !reflect.DeepEqual(doc[0].Rules, want) {
		t.Errorf("rules = %v, want %v", doc[0].Rules, want)
	}
}

func TestPush_NewSelectorIsCopied(t *testing.T) {
	var doc css.Document
	in := &css.Object{Selector: ".n", Rules: []css.Rule{{Directive: "top", Value: "0"}}}

	doc.Push(in, false)
	in.Rules[0].Value = "5px"

	if len(doc) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc))
	}
	if doc[0] == in {
		t.Error("pushed block must be a copy")
	}
	if got := doc[0].Rules[0].Value; got != "0" {
		t.Errorf("copy shares rules with input, value = %q", got)
	}
}

func TestPush_Reverse(t *testing.T) {
	mk := func() css.Document {
		return css.Document{
			{Selector: ".a", Rules: []css.Rule{{Directive: "color", Value: "red"}}},
			{Selector: ".b"},
			{Selector: ".a", Rules: []css.Rule{{Directive: "color", Value: "green"}}},
		}
	}
	in := &css.Object{Selector: ".a", Rules: []css.Rule{{Directive: "color", Value: "blue"}}}

	forward := mk()
	forward.Push(in, false)
	if forward[0].Rules[0].Value != "blue" || forward[2].Rules[0].Value != "green" {
		t.Errorf("forward push must update the first match, got %q and %q", forward[0].Rules[0].Value, forward[2].Rules[0].Value)
	}

	reverse := mk()
	reverse.Push(in, true)
	if reverse[0].Rules[0].Value != "red" || reverse[2].Rules[0].Value != "blue" {
		t.Errorf("reverse push must update the last match, got %q and %q", reverse[0].Rules[0].Value, reverse[2].Rules[0].Value)
	}
}

func TestPush_MediaReplacesBody(t *testing.T) {
	e := newEngine()
	doc := e.Parse("@media print { .a { color: red; } .b { top: 0; } }")
	in := e.Parse("@media print { .c { left: 0; } }")

	doc.Merge(in, false)

	if len(doc) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc))
	}
	if got := doc[0].SubStyles.Selectors(); !slices.Equal(got, []string{".c"}) {
		t.Errorf("media body = %q, want [.c]", got)
	}

	in[0].SubStyles[0].Selector = ".changed"
	if got := doc[0].SubStyles[0].Selector; got != ".c" {
		t.Errorf("media body must be copied, got %q", got)
	}
}

func TestPush_OpaqueStatements(t *testing.T) {
	e := newEngine()
	doc := e.Parse(`@import "a.css"; .x { top: 0; }`)

	doc.Merge(e.Parse(`@import "a.css"; @import "b.css";`), false)

	want := []string{`@import "a.css";`, `@import "b.css";`}
	if got := css.ImportsOf(doc); !slices.Equal(got, want) {
		t.Errorf("imports = %q, want %q", got, want)
	}
}
