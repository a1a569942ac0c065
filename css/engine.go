package css

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine parses, rewrites and injects stylesheets. It keeps the default
// namespace and all @import statements seen by Parse across calls.
// NOTE: not to be used concurrently, every editing session needs its own
// engine.
type Engine struct {
	log       *zap.Logger
	namespace string
	imports   []string
	sink      StyleSink
}

// WithNamespace sets the namespace identifier used to build the default
// scoping class.
func WithNamespace(ns string) func(*Engine) {
	return func(e *Engine) {
		e.namespace = strings.TrimPrefix(strings.TrimSpace(ns), ".")
	}
}

// WithSink routes injected styles to s.
func WithSink(s StyleSink) func(*Engine) {
	return func(e *Engine) {
		e.sink = s
	}
}

// NewEngine creates a new engine. Without a namespace a random one is
// generated, without a sink injected styles are recorded in memory.
func NewEngine(log *zap.Logger, options ...func(*Engine)) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{log: log.Named("css-engine")}
	for _, setOpt := range options {
		setOpt(e)
	}
	if e.namespace == "" {
		e.namespace = "ns-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	if e.sink == nil {
		e.sink = NewRecordingSink()
	}
	return e
}

// Namespace returns the namespace identifier.
func (e *Engine) Namespace() string {
	return e.namespace
}

// NamespaceClass returns the default scoping class selector.
func (e *Engine) NamespaceClass() string {
	return "." + e.namespace
}

// Sink returns the sink injected styles go to.
func (e *Engine) Sink() StyleSink {
	return e.sink
}

// Imports returns all @import statements accumulated by Parse so far.
func (e *Engine) Imports() []string {
	return append([]string(nil), e.imports...)
}

// ResetImports drops accumulated @import statements.
func (e *Engine) ResetImports() {
	e.imports = nil
}
