package registry

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// Function resolves name to a function, freezing the registry on first use.
// Lookup order: exact name, wildcard patterns in aggregation order (the match
// is returned as a copy bound to the captured values), then fallback
// resolvers in registration order. ok is false when nothing matched.
func (r *Registry) Function(name string) (fn extension.Function, ok bool) {
	r.mustInit()
	defer func() {
		if ok {
			r.warnDeprecated("function", name, fn.DeprecationMessage("function", fn.Name()))
		}
	}()

	if fn, ok := r.functions.get(name); ok {
		return fn, true
	}
	if fn, args, ok := r.functions.match(name); ok {
		return fn.WithArguments(args), true
	}

	r.resolversMu.RLock()
	resolvers := r.functionResolvers
	r.resolversMu.RUnlock()
	for _, resolve := range resolvers {
		if fn, ok := resolve(name); ok {
			return fn, true
		}
	}
	return extension.Function{}, false
}

// Filter resolves name to a filter with the same lookup order as Function.
func (r *Registry) Filter(name string) (filter extension.Filter, ok bool) {
	r.mustInit()
	defer func() {
		if ok {
			r.warnDeprecated("filter", name, filter.DeprecationMessage("filter", filter.Name()))
		}
	}()

	if filter, ok := r.filters.get(name); ok {
		return filter, true
	}
	if filter, args, ok := r.filters.match(name); ok {
		return filter.WithArguments(args), true
	}

	r.resolversMu.RLock()
	resolvers := r.filterResolvers
	r.resolversMu.RUnlock()
	for _, resolve := range resolvers {
		if filter, ok := resolve(name); ok {
			return filter, true
		}
	}
	return extension.Filter{}, false
}

// Test resolves name to a test. Tests only match verbatim: wildcard patterns
// and fallback resolvers never apply.
func (r *Registry) Test(name string) (extension.Test, bool) {
	r.mustInit()

	test, ok := r.tests.get(name)
	if ok {
		r.warnDeprecated("test", name, test.DeprecationMessage("test", test.Name()))
	}
	return test, ok
}

// Functions returns every aggregated function in aggregation order, with
// shadowed entries replaced in place.
func (r *Registry) Functions() []extension.Function {
	r.mustInit()
	return r.functions.values()
}

// Filters returns every aggregated filter in aggregation order.
func (r *Registry) Filters() []extension.Filter {
	r.mustInit()
	return r.filters.values()
}

// Tests returns every aggregated test in aggregation order.
func (r *Registry) Tests() []extension.Test {
	r.mustInit()
	return r.tests.values()
}

// TokenHandlers returns the token handlers of every extension, staging last,
// in insertion order and without deduplication.
func (r *Registry) TokenHandlers() []extension.TokenHandler {
	r.mustInit()
	return append([]extension.TokenHandler(nil), r.tokenHandlers...)
}

// NodeVisitors returns the node visitors of every extension, staging last, in
// insertion order and without deduplication.
func (r *Registry) NodeVisitors() []extension.NodeVisitor {
	r.mustInit()
	return append([]extension.NodeVisitor(nil), r.nodeVisitors...)
}

// UnaryOperators returns the merged unary operators.
func (r *Registry) UnaryOperators() map[string]extension.Operator {
	r.mustInit()
	return copyOperators(r.unaryOperators)
}

// BinaryOperators returns the merged binary operators.
func (r *Registry) BinaryOperators() map[string]extension.Operator {
	r.mustInit()
	return copyOperators(r.binaryOperators)
}

func (r *Registry) warnDeprecated(kind, requested, message string) {
	if message == "" {
		return
	}
	r.logger.Warn(message, zap.String("kind", kind), zap.String("requested", requested))
}

func copyOperators(in map[string]extension.Operator) map[string]extension.Operator {
	out := make(map[string]extension.Operator, len(in))
	for symbol, op := range in {
		out[symbol] = op
	}
	return out
}
