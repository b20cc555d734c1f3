package extension

import (
	"time"

	"go.uber.org/zap"
)

// Extension is a bundle of template symbols contributed to a registry.
// Implementations must be immutable once constructed; the registry only reads
// from them.
type Extension interface {
	// ID returns the identity used to reject duplicate registrations and to
	// compute the registry signature.
	ID() string
	Functions() []Function
	Filters() []Filter
	Tests() []Test
	TokenHandlers() []TokenHandler
	NodeVisitors() []NodeVisitor
}

// OperatorProvider is implemented by extensions contributing unary and binary
// operators.
type OperatorProvider interface {
	Operators() OperatorSet
}

// GlobalsProvider is implemented by extensions contributing template globals.
type GlobalsProvider interface {
	Globals() map[string]any
}

// RuntimeInitializer is implemented by extensions that need a one-time hook
// when the owning environment starts rendering.
type RuntimeInitializer interface {
	InitRuntime(host Host) error
}

// Provenance is implemented by extensions able to report when their source
// artifacts last changed. ok=false declines.
type Provenance interface {
	LastModified() (modified time.Time, ok bool)
}

// Host is the view of the owning environment handed to runtime initializers.
type Host interface {
	Charset() string
	Debug() bool
	Logger() *zap.Logger
}

// TokenHandler contributes a tag to the template parser.
type TokenHandler interface {
	Tag() string
}

// NodeVisitor walks compiled template nodes. Lower priority runs first.
type NodeVisitor interface {
	Priority() int
	EnterNode(node any) any
	LeaveNode(node any) any
}

// Base implements the list accessors of Extension with empty results. Embed it
// and override only what the extension contributes.
type Base struct{}

func (Base) Functions() []Function         { return nil }
func (Base) Filters() []Filter             { return nil }
func (Base) Tests() []Test                 { return nil }
func (Base) TokenHandlers() []TokenHandler { return nil }
func (Base) NodeVisitors() []NodeVisitor   { return nil }
