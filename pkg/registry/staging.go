package registry

import "github.com/goliatone/go-tmplext/pkg/extension"

const stagingID = "registry.staging"

// staging holds symbols added directly on the registry. It is an ordinary
// extension that the aggregation pass always merges last.
type staging struct {
	functions     []extension.Function
	filters       []extension.Filter
	tests         []extension.Test
	tokenHandlers []extension.TokenHandler
	nodeVisitors  []extension.NodeVisitor
	globals       map[string]any
}

var (
	_ extension.Extension       = (*staging)(nil)
	_ extension.GlobalsProvider = (*staging)(nil)
)

func (s *staging) ID() string                              { return stagingID }
func (s *staging) Functions() []extension.Function         { return s.functions }
func (s *staging) Filters() []extension.Filter             { return s.filters }
func (s *staging) Tests() []extension.Test                 { return s.tests }
func (s *staging) TokenHandlers() []extension.TokenHandler { return s.tokenHandlers }
func (s *staging) NodeVisitors() []extension.NodeVisitor   { return s.nodeVisitors }

func (s *staging) Globals() map[string]any {
	if len(s.globals) == 0 {
		return nil
	}
	out := make(map[string]any, len(s.globals))
	for key, value := range s.globals {
		out[key] = value
	}
	return out
}

func (s *staging) setGlobal(name string, value any) {
	if s.globals == nil {
		s.globals = make(map[string]any)
	}
	s.globals[name] = value
}
