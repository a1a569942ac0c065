package css

import (
	"slices"
)

// Kind discriminates parsed blocks.
type Kind int

const (
	KindRule      Kind = iota // ordinary "selector { rules }" block
	KindMedia                 // @media block, body in SubStyles
	KindKeyframes             // @keyframes block, verbatim in Styles
	KindImports               // @import statement, verbatim in Styles
	KindFontFace              // @font-face block
)

// String returns the kind name used in the object model, ordinary blocks have
// no name.
func (k Kind) String() string {
	switch k {
	case KindMedia:
		return "media"
	case KindKeyframes:
		return "keyframes"
	case KindImports:
		return "imports"
	case KindFontFace:
		return "font-face"
	default:
		return ""
	}
}

// HasRules reports whether blocks of this kind keep declarations in Rules.
func (k Kind) HasRules() bool {
	return k == KindRule || k == KindFontFace
}

// Reserved selectors for opaque blocks.
const (
	SelectorImports   = "@imports"
	SelectorKeyframes = "@keyframes"
	SelectorFontFace  = "@font-face"
)

// RuleState marks rules removed by diff or merge without physically deleting
// them.
type RuleState int

const (
	RuleActive RuleState = iota
	RuleDeleted
)

// String returns the tombstone marker for deleted rules.
func (s RuleState) String() string {
	if s == RuleDeleted {
		return "DELETED"
	}
	return ""
}

// Rule is a single declaration inside a rule block.
type Rule struct {
	Directive string    // property name, empty for defective rules
	Value     string    // property value or the whole line for defective rules
	Defective bool      // line had no ':' separator
	State     RuleState // tombstone marker
}

// Deleted reports whether rule is a tombstone.
func (r Rule) Deleted() bool {
	return r.State == RuleDeleted
}

// Object is a single parsed block. Which of Rules, SubStyles or Styles is
// populated is determined by Kind.
type Object struct {
	Selector  string
	Kind      Kind
	Rules     []Rule   // KindRule, KindFontFace
	SubStyles Document // KindMedia
	Styles    string   // KindKeyframes, KindImports
	Comments  string   // comment immediately preceding the block
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	c.Rules = slices.Clone(o.Rules)
	c.SubStyles = o.SubStyles.Clone()
	return &c
}

// Document is an ordered list of parsed blocks.
type Document []*Object

// Clone returns a deep copy of the document, no node is shared with the
// original.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	c := make(Document, 0, len(d))
	for _, o := range d {
		c = append(c, o.Clone())
	}
	return c
}

// Selectors returns selectors of all top level blocks in document order.
func (d Document) Selectors() []string {
	sels := make([]string, 0, len(d))
	for _, o := range d {
		sels = append(sels, o.Selector)
	}
	return sels
}
