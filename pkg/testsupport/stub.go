package testsupport

import (
	"time"

	"go.uber.org/atomic"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// CountingExtension wraps an extension and records how often each list
// accessor is called, so tests can assert the aggregation pass ran once.
// Operators, globals, provenance and runtime init are forwarded to the
// wrapped extension; when it lacks one of them the wrapper reports the empty
// value.
type CountingExtension struct {
	extension.Extension

	FunctionCalls     atomic.Int32
	FilterCalls       atomic.Int32
	TestCalls         atomic.Int32
	TokenHandlerCalls atomic.Int32
	NodeVisitorCalls  atomic.Int32
}

var (
	_ extension.OperatorProvider   = (*CountingExtension)(nil)
	_ extension.GlobalsProvider    = (*CountingExtension)(nil)
	_ extension.Provenance         = (*CountingExtension)(nil)
	_ extension.RuntimeInitializer = (*CountingExtension)(nil)
)

// NewCountingExtension wraps ext.
func NewCountingExtension(ext extension.Extension) *CountingExtension {
	return &CountingExtension{Extension: ext}
}

func (c *CountingExtension) Functions() []extension.Function {
	c.FunctionCalls.Inc()
	return c.Extension.Functions()
}

func (c *CountingExtension) Filters() []extension.Filter {
	c.FilterCalls.Inc()
	return c.Extension.Filters()
}

func (c *CountingExtension) Tests() []extension.Test {
	c.TestCalls.Inc()
	return c.Extension.Tests()
}

func (c *CountingExtension) TokenHandlers() []extension.TokenHandler {
	c.TokenHandlerCalls.Inc()
	return c.Extension.TokenHandlers()
}

func (c *CountingExtension) NodeVisitors() []extension.NodeVisitor {
	c.NodeVisitorCalls.Inc()
	return c.Extension.NodeVisitors()
}

func (c *CountingExtension) Operators() extension.OperatorSet {
	if provider, ok := c.Extension.(extension.OperatorProvider); ok {
		return provider.Operators()
	}
	return extension.OperatorSet{}
}

func (c *CountingExtension) Globals() map[string]any {
	if provider, ok := c.Extension.(extension.GlobalsProvider); ok {
		return provider.Globals()
	}
	return nil
}

func (c *CountingExtension) LastModified() (time.Time, bool) {
	if provider, ok := c.Extension.(extension.Provenance); ok {
		return provider.LastModified()
	}
	return time.Time{}, false
}

func (c *CountingExtension) InitRuntime(host extension.Host) error {
	if initializer, ok := c.Extension.(extension.RuntimeInitializer); ok {
		return initializer.InitRuntime(host)
	}
	return nil
}

// Echo returns a function callable that reports its arguments, useful for
// asserting wildcard bindings.
func Echo(args ...any) (any, error) {
	return args, nil
}

// Constant returns a function callable that always yields value.
func Constant(value any) extension.FunctionFunc {
	return func(...any) (any, error) {
		return value, nil
	}
}

// Tag is a minimal token handler.
type Tag string

// Tag returns the tag name.
func (t Tag) Tag() string { return string(t) }

// Visitor is a minimal node visitor identified by name.
type Visitor struct {
	Name  string
	Order int
}

func (v Visitor) Priority() int          { return v.Order }
func (v Visitor) EnterNode(node any) any { return node }
func (v Visitor) LeaveNode(node any) any { return node }
