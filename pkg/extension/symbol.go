package extension

import (
	"fmt"
	"strings"
)

// Placeholder marks the wildcard segment of a pattern symbol name, e.g.
// "asset_*" or "foo.*".
const Placeholder = "*"

// FunctionFunc is the callable behind a template function. Bound wildcard
// arguments are passed first.
type FunctionFunc func(args ...any) (any, error)

// FilterFunc is the callable behind a template filter.
type FilterFunc func(input any, args ...any) (any, error)

// TestFunc is the callable behind a template test.
type TestFunc func(input any, args ...any) (bool, error)

// SymbolOption configures metadata shared by functions, filters, and tests.
type SymbolOption func(*symbolOptions)

type symbolOptions struct {
	safe              []string
	preservesSafety   bool
	deprecatedSince   string
	alternative       string
	deprecatedEnabled bool
}

// WithSafe marks the symbol output as safe for the given escaping contexts
// (for example "html").
func WithSafe(contexts ...string) SymbolOption {
	return func(opts *symbolOptions) {
		for _, ctx := range contexts {
			if trimmed := strings.TrimSpace(ctx); trimmed != "" {
				opts.safe = append(opts.safe, trimmed)
			}
		}
	}
}

// WithPreservesSafety marks a filter whose output keeps the safety of its
// input.
func WithPreservesSafety() SymbolOption {
	return func(opts *symbolOptions) {
		opts.preservesSafety = true
	}
}

// WithDeprecated flags the symbol as deprecated since the given version,
// optionally naming a replacement.
func WithDeprecated(since, alternative string) SymbolOption {
	return func(opts *symbolOptions) {
		opts.deprecatedEnabled = true
		opts.deprecatedSince = strings.TrimSpace(since)
		opts.alternative = strings.TrimSpace(alternative)
	}
}

func newSymbolOptions(options []SymbolOption) symbolOptions {
	var opts symbolOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

// SafeFor reports the escaping contexts the output is safe for.
func (o symbolOptions) SafeFor() []string {
	return append([]string(nil), o.safe...)
}

// IsDeprecated reports whether the symbol was registered as deprecated.
func (o symbolOptions) IsDeprecated() bool {
	return o.deprecatedEnabled
}

// DeprecationMessage describes the deprecation, empty when not deprecated.
func (o symbolOptions) DeprecationMessage(kind, name string) string {
	if !o.deprecatedEnabled {
		return ""
	}
	msg := fmt.Sprintf("%s %q is deprecated", kind, name)
	if o.deprecatedSince != "" {
		msg += " since " + o.deprecatedSince
	}
	if o.alternative != "" {
		msg += fmt.Sprintf("; use %q instead", o.alternative)
	}
	return msg
}

// IsPattern reports whether name contains the wildcard placeholder.
func IsPattern(name string) bool {
	return strings.Contains(name, Placeholder)
}

// Function is a named callable available to templates, e.g. {{ range(1, 3) }}.
type Function struct {
	symbolOptions
	name      string
	callable  FunctionFunc
	arguments []string
}

// NewFunction builds a Function. The name is trimmed; a pattern name may
// contain the "*" placeholder.
func NewFunction(name string, fn FunctionFunc, options ...SymbolOption) Function {
	return Function{
		symbolOptions: newSymbolOptions(options),
		name:          strings.TrimSpace(name),
		callable:      fn,
	}
}

// Name returns the registered (possibly pattern) name.
func (f Function) Name() string { return f.name }

// Callable returns the underlying function.
func (f Function) Callable() FunctionFunc { return f.callable }

// Arguments returns the values captured by a wildcard match.
func (f Function) Arguments() []string { return append([]string(nil), f.arguments...) }

// WithArguments returns a copy bound to the captured wildcard values. The
// receiver is left untouched.
func (f Function) WithArguments(args []string) Function {
	f.arguments = append([]string(nil), args...)
	return f
}

// Call invokes the function with the bound arguments prepended.
func (f Function) Call(args ...any) (any, error) {
	if f.callable == nil {
		return nil, fmt.Errorf("extension: function %q has no callable", f.name)
	}
	return f.callable(prependArguments(f.arguments, args)...)
}

// Filter transforms a value in a template, e.g. {{ name|upper }}.
type Filter struct {
	symbolOptions
	name      string
	callable  FilterFunc
	arguments []string
}

// NewFilter builds a Filter.
func NewFilter(name string, fn FilterFunc, options ...SymbolOption) Filter {
	return Filter{
		symbolOptions: newSymbolOptions(options),
		name:          strings.TrimSpace(name),
		callable:      fn,
	}
}

// Name returns the registered (possibly pattern) name.
func (f Filter) Name() string { return f.name }

// Callable returns the underlying function.
func (f Filter) Callable() FilterFunc { return f.callable }

// Arguments returns the values captured by a wildcard match.
func (f Filter) Arguments() []string { return append([]string(nil), f.arguments...) }

// PreservesSafety reports whether the filter keeps the safety of its input.
func (f Filter) PreservesSafety() bool { return f.preservesSafety }

// WithArguments returns a copy bound to the captured wildcard values.
func (f Filter) WithArguments(args []string) Filter {
	f.arguments = append([]string(nil), args...)
	return f
}

// Call applies the filter to input. Bound arguments come before call-site
// arguments.
func (f Filter) Call(input any, args ...any) (any, error) {
	if f.callable == nil {
		return nil, fmt.Errorf("extension: filter %q has no callable", f.name)
	}
	return f.callable(input, prependArguments(f.arguments, args)...)
}

// Test is a named predicate, e.g. {% if value is even %}. Tests never take
// part in wildcard resolution.
type Test struct {
	symbolOptions
	name     string
	callable TestFunc
}

// NewTest builds a Test.
func NewTest(name string, fn TestFunc, options ...SymbolOption) Test {
	return Test{
		symbolOptions: newSymbolOptions(options),
		name:          strings.TrimSpace(name),
		callable:      fn,
	}
}

// Name returns the registered name.
func (t Test) Name() string { return t.name }

// Callable returns the underlying predicate.
func (t Test) Callable() TestFunc { return t.callable }

// Call evaluates the test against input.
func (t Test) Call(input any, args ...any) (bool, error) {
	if t.callable == nil {
		return false, fmt.Errorf("extension: test %q has no callable", t.name)
	}
	return t.callable(input, args...)
}

func prependArguments(bound []string, args []any) []any {
	if len(bound) == 0 {
		return args
	}
	out := make([]any, 0, len(bound)+len(args))
	for _, arg := range bound {
		out = append(out, arg)
	}
	return append(out, args...)
}
