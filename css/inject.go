package css

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// InjectMode controls how CSS text is prepared before injection.
type InjectMode int

const (
	InjectAsIs        InjectMode = iota // namespaced, text otherwise untouched
	InjectReformat                      // namespaced and reformatted
	InjectNoNamespace                   // injected without scoping
)

// String returns the mode name.
func (m InjectMode) String() string {
	switch m {
	case InjectReformat:
		return "reformat"
	case InjectNoNamespace:
		return "nonamespace"
	default:
		return "asis"
	}
}

// ParseInjectMode converts mode name into InjectMode.
func ParseInjectMode(name string) (InjectMode, error) {
	switch strings.ToLower(name) {
	case "", "asis":
		return InjectAsIs, nil
	case "reformat":
		return InjectReformat, nil
	case "nonamespace":
		return InjectNoNamespace, nil
	}
	return InjectAsIs, fmt.Errorf("unknown inject mode %q", name)
}

// StyleSink is an environment styles are injected into. Remove of an id which
// is not present is not an error.
type StyleSink interface {
	Apply(id, css string) error
	Remove(id string) error
}

// Inject replaces style resource id in the sink with css. Empty css only
// removes the existing resource.
func (e *Engine) Inject(id, css string, mode InjectMode) error {
	if css == "" {
		return e.clear(id)
	}
	if mode == InjectReformat {
		css = e.Parse(css).String()
	}
	if mode != InjectNoNamespace {
		css = e.ApplyNamespacingText(css, "").String()
	}
	return e.inject(id, css, mode)
}

// InjectDocument renders doc and injects it like Inject. doc is not modified.
func (e *Engine) InjectDocument(id string, doc Document, mode InjectMode) error {
	if len(doc) == 0 {
		return e.clear(id)
	}
	if mode != InjectNoNamespace {
		doc = e.ApplyNamespacing(doc.Clone(), "")
	}
	return e.inject(id, doc.String(), mode)
}

func (e *Engine) clear(id string) error {
	e.log.Debug("Clearing style", zap.String("id", id))
	if err := e.sink.Remove(id); err != nil {
		return fmt.Errorf("unable to remove style #%s: %w", id, err)
	}
	return nil
}

func (e *Engine) inject(id, css string, mode InjectMode) error {
	if err := e.clear(id); err != nil {
		return err
	}
	// namespacing may leave nothing of text without any block
	if css == "" {
		return nil
	}
	e.log.Debug("Injecting style", zap.String("id", id), zap.Stringer("mode", mode), zap.Int("bytes", len(css)))
	if err := e.sink.Apply(id, css); err != nil {
		return fmt.Errorf("unable to create style #%s: %w", id, err)
	}
	return nil
}

// Action is a single operation observed by RecordingSink.
type Action struct {
	Label string
	ID    string
	CSS   string
}

// RecordingSink keeps injected styles in memory and records every operation.
type RecordingSink struct {
	Actions []Action
	styles  map[string]string
	order   []string
}

// NewRecordingSink creates an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{styles: make(map[string]string)}
}

// Apply implements StyleSink.
func (s *RecordingSink) Apply(id, css string) error {
	s.Actions = append(s.Actions, Action{Label: "create style #" + id, ID: id, CSS: css})
	if _, ok := s.styles[id]; !ok {
		s.order = append(s.order, id)
	}
	s.styles[id] = css
	return nil
}

// Remove implements StyleSink.
func (s *RecordingSink) Remove(id string) error {
	s.Actions = append(s.Actions, Action{Label: "remove style #" + id, ID: id})
	if _, ok := s.styles[id]; !ok {
		return nil
	}
	delete(s.styles, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Style returns text currently injected under id.
func (s *RecordingSink) Style(id string) (string, bool) {
	css, ok := s.styles[id]
	return css, ok
}

// IDs returns ids of injected styles in injection order.
func (s *RecordingSink) IDs() []string {
	return append([]string(nil), s.order...)
}
