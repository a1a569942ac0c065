package css

// Push merges o into the block with the same selector. Blocks are searched
// from the start, or from the end when reverse is set, giving priority to
// later declarations. A new selector is appended as a copy. Incoming rules
// are added or overwrite values of existing ones, deleted rules tombstone
// existing ones. Incoming media blocks replace the existing body wholesale.
// Imports and keyframes are opaque and appended unless the same statement is
// already present.
func (d *Document) Push(o *Object, reverse bool) {
	if o.Kind == KindImports || o.Kind == KindKeyframes {
		if !hasStatement(*d, o) {
			*d = append(*d, o.Clone())
		}
		return
	}

	target := d.lookup(o.Selector, reverse)
	if target == nil {
		*d = append(*d, o.Clone())
		return
	}

	if o.Kind == KindMedia {
		target.SubStyles = o.SubStyles.Clone()
		return
	}

	for _, r := range o.Rules {
		i := FindRule(target.Rules, r.Directive, "")
		switch {
		case i < 0:
			target.Rules = append(target.Rules, r)
		case r.Deleted():
			target.Rules[i].State = RuleDeleted
		default:
			target.Rules[i].Value = r.Value
		}
	}
}

// Merge pushes every block of incoming into the document and compacts
// tombstoned rules afterwards.
func (d *Document) Merge(incoming Document, reverse bool) {
	for _, o := range incoming {
		d.Push(o, reverse)
	}
	d.Compact()
}

// Compact drops tombstoned rules from every top level rule block.
func (d *Document) Compact() {
	for _, o := range *d {
		if o.Kind.HasRules() {
			o.Rules = CompactRules(o.Rules)
		}
	}
}

func (d *Document) lookup(selector string, reverse bool) *Object {
	doc := *d
	if reverse {
		for i := len(doc) - 1; i >= 0; i-- {
			if doc[i].Selector == selector {
				return doc[i]
			}
		}
		return nil
	}
	for _, o := range doc {
		if o.Selector == selector {
			return o
		}
	}
	return nil
}
