package registry

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// table is a name-keyed symbol map that remembers first-insertion order.
// Overwriting a name keeps its original position, so pattern iteration order
// follows the order names were first seen.
type table[T any] struct {
	entries  map[string]T
	order    []string
	patterns []wildcard
}

type wildcard struct {
	name string
	re   *regexp.Regexp
}

func newTable[T any]() *table[T] {
	return &table[T]{entries: make(map[string]T)}
}

// set stores value under name and reports whether an earlier entry was
// shadowed.
func (t *table[T]) set(name string, value T) bool {
	_, exists := t.entries[name]
	if !exists {
		t.order = append(t.order, name)
	}
	t.entries[name] = value
	return exists
}

func (t *table[T]) get(name string) (T, bool) {
	value, ok := t.entries[name]
	return value, ok
}

func (t *table[T]) values() []T {
	out := make([]T, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.entries[name])
	}
	return out
}

// compilePatterns builds the wildcard matchers for every pattern name.
func (t *table[T]) compilePatterns() error {
	var errs error
	for _, name := range t.order {
		if !extension.IsPattern(name) {
			continue
		}
		re, err := compileWildcard(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		t.patterns = append(t.patterns, wildcard{name: name, re: re})
	}
	return errs
}

// match returns the first pattern entry matching name along with the captured
// placeholder values.
func (t *table[T]) match(name string) (T, []string, bool) {
	for _, pattern := range t.patterns {
		captures := pattern.re.FindStringSubmatch(name)
		if captures == nil {
			continue
		}
		return t.entries[pattern.name], captures[1:], true
	}
	var zero T
	return zero, nil, false
}

// compileWildcard turns "foo.*" into ^foo\.(.+?)$. Every literal rune is
// quoted so separators keep their meaning: "foo.*" never matches "foobar".
// The placeholder must capture at least one character, so "foo.*" does not
// match "foo." either. Twig compiles the same placeholder to (.*?) and would
// match it with an empty argument.
func compileWildcard(name string) (*regexp.Regexp, error) {
	parts := strings.Split(name, extension.Placeholder)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, "(.+?)") + "$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", name, err)
	}
	return re, nil
}

// Init runs the aggregation pass if it has not run yet and freezes the
// registry. It returns the contract violations found by that pass; the error
// is memoised, so every later call returns the same value.
func (r *Registry) Init() error {
	if r.IsFrozen() {
		return r.initErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.IsFrozen() {
		return r.initErr
	}
	r.initErr = r.aggregate()
	r.state.Store(int32(Frozen))

	if r.initErr != nil {
		r.logger.Error("extension aggregation failed", zap.Error(r.initErr))
	}
	return r.initErr
}

// mustInit is used by the lazy query methods. A contract violation is fatal
// there: it means an extension is broken, and callers that want an error value
// should call Init first.
func (r *Registry) mustInit() {
	if err := r.Init(); err != nil {
		panic(err)
	}
}

// aggregate walks every extension in registration order, then the staging
// bucket, building the flat tables. Caller holds r.mu.
func (r *Registry) aggregate() error {
	r.functions = newTable[extension.Function]()
	r.filters = newTable[extension.Filter]()
	r.tests = newTable[extension.Test]()
	r.unaryOperators = make(map[string]extension.Operator)
	r.binaryOperators = make(map[string]extension.Operator)

	sources := make([]extension.Extension, 0, len(r.extensions)+1)
	sources = append(sources, r.extensions...)
	sources = append(sources, r.staging)

	var errs error
	for _, ext := range sources {
		id := ext.ID()
		logger := r.logger.With(zap.String("extension", id))

		for _, fn := range ext.Functions() {
			if r.functions.set(fn.Name(), fn) {
				logger.Debug("function shadowed", zap.String("name", fn.Name()))
			}
		}
		for _, filter := range ext.Filters() {
			if r.filters.set(filter.Name(), filter) {
				logger.Debug("filter shadowed", zap.String("name", filter.Name()))
			}
		}
		for _, test := range ext.Tests() {
			if r.tests.set(test.Name(), test) {
				logger.Debug("test shadowed", zap.String("name", test.Name()))
			}
		}
		r.tokenHandlers = append(r.tokenHandlers, ext.TokenHandlers()...)
		r.nodeVisitors = append(r.nodeVisitors, ext.NodeVisitors()...)

		if provider, ok := ext.(extension.OperatorProvider); ok {
			if err := r.mergeOperators(id, provider.Operators()); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	if err := r.functions.compilePatterns(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("registry: function patterns: %w", err))
	}
	if err := r.filters.compilePatterns(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("registry: filter patterns: %w", err))
	}

	r.logger.Debug("extensions aggregated",
		zap.Int("extensions", len(r.extensions)),
		zap.Int("functions", len(r.functions.order)),
		zap.Int("filters", len(r.filters.order)),
		zap.Int("tests", len(r.tests.order)),
		zap.Int("token_handlers", len(r.tokenHandlers)),
		zap.Int("node_visitors", len(r.nodeVisitors)),
	)
	return errs
}

func (r *Registry) mergeOperators(id string, set extension.OperatorSet) error {
	if err := set.Validate(); err != nil {
		return &ContractError{ExtensionID: id, Err: err}
	}
	for symbol, op := range set.Unary {
		r.unaryOperators[symbol] = op
	}
	for symbol, op := range set.Binary {
		r.binaryOperators[symbol] = op
	}
	return nil
}
