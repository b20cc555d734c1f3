package extension

import (
	"strings"
	"time"
)

// StaticOption configures a Static extension.
type StaticOption func(*Static)

// Static is an Extension assembled from plain values. It is handy for small
// application-level bundles and for manifests loaded from disk.
type Static struct {
	id            string
	functions     []Function
	filters       []Filter
	tests         []Test
	tokenHandlers []TokenHandler
	nodeVisitors  []NodeVisitor
	operators     OperatorSet
	globals       map[string]any
	provenance    Provenance
	init          func(Host) error
}

var (
	_ Extension          = (*Static)(nil)
	_ OperatorProvider   = (*Static)(nil)
	_ GlobalsProvider    = (*Static)(nil)
	_ RuntimeInitializer = (*Static)(nil)
	_ Provenance         = (*Static)(nil)
)

// NewStatic builds a Static extension identified by id.
func NewStatic(id string, options ...StaticOption) *Static {
	ext := &Static{id: strings.TrimSpace(id)}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(ext)
	}
	return ext
}

// WithFunctions appends functions.
func WithFunctions(functions ...Function) StaticOption {
	return func(s *Static) {
		s.functions = append(s.functions, functions...)
	}
}

// WithFilters appends filters.
func WithFilters(filters ...Filter) StaticOption {
	return func(s *Static) {
		s.filters = append(s.filters, filters...)
	}
}

// WithTests appends tests.
func WithTests(tests ...Test) StaticOption {
	return func(s *Static) {
		s.tests = append(s.tests, tests...)
	}
}

// WithTokenHandlers appends token handlers.
func WithTokenHandlers(handlers ...TokenHandler) StaticOption {
	return func(s *Static) {
		s.tokenHandlers = append(s.tokenHandlers, handlers...)
	}
}

// WithNodeVisitors appends node visitors.
func WithNodeVisitors(visitors ...NodeVisitor) StaticOption {
	return func(s *Static) {
		s.nodeVisitors = append(s.nodeVisitors, visitors...)
	}
}

// WithOperators sets the contributed operator pair.
func WithOperators(set OperatorSet) StaticOption {
	return func(s *Static) {
		s.operators = set
	}
}

// WithGlobals merges globals into the extension; later calls overwrite
// earlier keys.
func WithGlobals(globals map[string]any) StaticOption {
	return func(s *Static) {
		if len(globals) == 0 {
			return
		}
		if s.globals == nil {
			s.globals = make(map[string]any, len(globals))
		}
		for key, value := range globals {
			s.globals[key] = value
		}
	}
}

// WithProvenance sets the source used by LastModified.
func WithProvenance(p Provenance) StaticOption {
	return func(s *Static) {
		s.provenance = p
	}
}

// WithRuntimeInit sets the hook run once per owning environment.
func WithRuntimeInit(fn func(Host) error) StaticOption {
	return func(s *Static) {
		s.init = fn
	}
}

func (s *Static) ID() string                    { return s.id }
func (s *Static) Functions() []Function         { return s.functions }
func (s *Static) Filters() []Filter             { return s.filters }
func (s *Static) Tests() []Test                 { return s.tests }
func (s *Static) TokenHandlers() []TokenHandler { return s.tokenHandlers }
func (s *Static) NodeVisitors() []NodeVisitor   { return s.nodeVisitors }
func (s *Static) Operators() OperatorSet        { return s.operators }

// Globals returns a copy of the contributed globals.
func (s *Static) Globals() map[string]any {
	if len(s.globals) == 0 {
		return nil
	}
	out := make(map[string]any, len(s.globals))
	for key, value := range s.globals {
		out[key] = value
	}
	return out
}

// InitRuntime runs the configured hook, if any.
func (s *Static) InitRuntime(host Host) error {
	if s.init == nil {
		return nil
	}
	return s.init(host)
}

// LastModified delegates to the configured provenance and declines without
// one.
func (s *Static) LastModified() (time.Time, bool) {
	if s.provenance == nil {
		return time.Time{}, false
	}
	return s.provenance.LastModified()
}
