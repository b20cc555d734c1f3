package environment

import (
	"errors"
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

const (
	// CallGlobal names the dispatcher resolving functions by name at render
	// time, wildcard patterns and fallback resolvers included.
	CallGlobal = "call"
	// FilterGlobal names the dispatcher applying registry filters:
	// filter(name, value, args...). It resolves through Registry.Filter, so
	// wildcard patterns and fallback resolvers apply.
	FilterGlobal = "filter"
	// TestGlobal names the dispatcher evaluating registered tests.
	TestGlobal = "test"

	htmlContext = "html"
)

// TagParser is implemented by token handlers that can parse themselves as a
// pongo2 tag. Other token handlers are left for different compilers.
type TagParser interface {
	extension.TokenHandler
	Parse(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error)
}

var (
	tagsMu         sync.Mutex
	registeredTags = make(map[string]struct{})
)

// RegisterTags installs token handlers into pongo2's tag table. pongo2 keeps
// tags process-wide and reads them while parsing, so call RegisterTags during
// program start-up, before any environment parses a template. A name that is
// already taken, pongo2 built-ins included, is an error and is never
// replaced.
func RegisterTags(handlers ...extension.TokenHandler) error {
	tagsMu.Lock()
	defer tagsMu.Unlock()

	var errs error
	for _, handler := range handlers {
		if handler == nil {
			errs = multierr.Append(errs, errors.New("environment: tag handler is nil"))
			continue
		}
		parser, ok := handler.(TagParser)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("environment: tag %q does not parse pongo2 templates", handler.Tag()))
			continue
		}
		if err := pongo2.RegisterTag(parser.Tag(), parser.Parse); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("environment: register tag %q: %w", parser.Tag(), err))
			continue
		}
		registeredTags[parser.Tag()] = struct{}{}
	}
	return errs
}

func tagRegistered(name string) bool {
	tagsMu.Lock()
	defer tagsMu.Unlock()
	_, ok := registeredTags[name]
	return ok
}

// install publishes the frozen symbol table to this environment's template
// set only. Functions, globals and the dispatchers live in the set's
// globals; pongo2's process-wide filter and tag tables are left untouched.
func (e *Environment) install() error {
	globals, err := e.registry.Globals()
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	for _, handler := range e.registry.TokenHandlers() {
		if !tagRegistered(handler.Tag()) {
			e.logger.Warn("token handler is not a registered pongo2 tag", zap.String("tag", handler.Tag()))
		}
	}

	ctx := pongo2.Context{
		CallGlobal:   e.callFunction,
		FilterGlobal: e.callFilter,
		TestGlobal:   e.callTest,
	}
	for _, fn := range e.registry.Functions() {
		if extension.IsPattern(fn.Name()) {
			continue
		}
		ctx[fn.Name()] = pongoFunction(fn)
	}
	for name, value := range globals {
		ctx[name] = value
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(ctx)
	return nil
}

func pongoFunction(fn extension.Function) func(args ...any) (*pongo2.Value, error) {
	safe := isSafeFor(fn.SafeFor(), htmlContext)
	return func(args ...any) (*pongo2.Value, error) {
		result, err := fn.Call(args...)
		if err != nil {
			return nil, err
		}
		return toValue(result, safe), nil
	}
}

// callFunction backs the call(...) dispatcher.
func (e *Environment) callFunction(name string, args ...any) (*pongo2.Value, error) {
	fn, ok := e.registry.Function(name)
	if !ok {
		return nil, fmt.Errorf("environment: unknown function %q", name)
	}
	return pongoFunction(fn)(args...)
}

// callFilter backs the filter(...) dispatcher.
func (e *Environment) callFilter(name string, value any, args ...any) (*pongo2.Value, error) {
	filter, ok := e.registry.Filter(name)
	if !ok {
		return nil, fmt.Errorf("environment: unknown filter %q", name)
	}
	result, err := filter.Call(value, args...)
	if err != nil {
		return nil, fmt.Errorf("environment: filter %q: %w", name, err)
	}
	return toValue(result, isSafeFor(filter.SafeFor(), htmlContext)), nil
}

// callTest backs the test(...) dispatcher.
func (e *Environment) callTest(name string, value any, args ...any) (bool, error) {
	test, ok := e.registry.Test(name)
	if !ok {
		return false, fmt.Errorf("environment: unknown test %q", name)
	}
	return test.Call(value, args...)
}

func toValue(result any, safe bool) *pongo2.Value {
	if safe {
		return pongo2.AsSafeValue(result)
	}
	return pongo2.AsValue(result)
}

func isSafeFor(contexts []string, want string) bool {
	for _, ctx := range contexts {
		if ctx == want || ctx == "all" {
			return true
		}
	}
	return false
}
