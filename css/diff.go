package css

// Diff returns changes needed to turn b's rules into a's: rules of a that are
// new or have a different value in b, and rules of b missing from a marked as
// deleted. Blocks with different selectors and media blocks cannot be
// compared, false is returned for them, as well as when there is no
// difference. Neither argument is modified.
func Diff(a, b *Object) (*Object, bool) {
	if a.Selector != b.Selector {
		return nil, false
	}
	if a.Kind == KindMedia || b.Kind == KindMedia {
		return nil, false
	}

	diff := &Object{Selector: a.Selector, Kind: a.Kind}
	for _, ra := range a.Rules {
		i := FindRule(b.Rules, ra.Directive, ra.Value)
		if i < 0 || b.Rules[i].Value != ra.Value {
			diff.Rules = append(diff.Rules, ra)
		}
	}
	for _, rb := range b.Rules {
		if FindRule(a.Rules, rb.Directive, "") < 0 {
			rb.State = RuleDeleted
			diff.Rules = append(diff.Rules, rb)
		}
	}

	if len(diff.Rules) == 0 {
		return nil, false
	}
	return diff, true
}

// DiffDocuments reconciles two documents. Blocks only present in live are
// carried as is, rule blocks present in both carry their Diff, media blocks
// which render differently are carried wholesale. Selectors present in base
// only are returned separately since the merge has no notion of block
// removal. Imports and keyframes are opaque and carried when live has a
// statement base does not.
func DiffDocuments(base, live Document) (Document, []string) {
	var (
		patch   Document
		removed []string
		seen    = make(map[string]bool, len(live))
	)

	for _, lo := range live {
		if lo.Kind == KindImports || lo.Kind == KindKeyframes {
			if !hasStatement(base, lo) {
				patch = append(patch, lo.Clone())
			}
			continue
		}
		if seen[lo.Selector] {
			continue
		}
		seen[lo.Selector] = true

		found := Find(base, lo.Selector, false)
		if len(found) == 0 {
			patch = append(patch, lo.Clone())
			continue
		}
		bo := found[0]
		if lo.Kind == KindMedia || bo.Kind == KindMedia {
			if Format(lo.SubStyles, 1) != Format(bo.SubStyles, 1) || lo.Kind != bo.Kind {
				patch = append(patch, lo.Clone())
			}
			continue
		}
		if d, ok := Diff(lo, bo); ok {
			patch = append(patch, d)
		}
	}

	for _, bo := range base {
		if bo.Kind == KindImports || bo.Kind == KindKeyframes {
			continue
		}
		if !seen[bo.Selector] && len(Find(live, bo.Selector, false)) == 0 {
			seen[bo.Selector] = true
			removed = append(removed, bo.Selector)
		}
	}
	return patch, removed
}

// ApplyPatch merges patch produced by DiffDocuments into base and drops
// removed selectors.
func ApplyPatch(base *Document, patch Document, removed []string) {
	base.Merge(patch, false)
	for _, sel := range removed {
		*base = DeleteBySelector(*base, sel)
	}
}

func hasStatement(doc Document, o *Object) bool {
	for _, x := range doc {
		if x.Kind == o.Kind && x.Styles == o.Styles {
			return true
		}
	}
	return false
}
