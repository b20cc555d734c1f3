package core

import "github.com/goliatone/go-tmplext/pkg/extension"

// ID identifies the core extension.
const ID = "core"

// Extension is the default extension bundle.
type Extension struct{}

var (
	_ extension.Extension        = Extension{}
	_ extension.OperatorProvider = Extension{}
)

// New returns the core extension.
func New() Extension {
	return Extension{}
}

func (Extension) ID() string { return ID }

func (Extension) Functions() []extension.Function {
	return []extension.Function{
		extension.NewFunction("range", fnRange),
		extension.NewFunction("max", fnMax),
		extension.NewFunction("min", fnMin),
	}
}

func (Extension) Filters() []extension.Filter {
	return []extension.Filter{
		extension.NewFilter("trim", filterTrim, extension.WithPreservesSafety()),
		extension.NewFilter("lowerfirst", filterLowerFirst, extension.WithPreservesSafety()),
		extension.NewFilter("upper", filterUpper, extension.WithPreservesSafety()),
		extension.NewFilter("lower", filterLower, extension.WithPreservesSafety()),
		extension.NewFilter("title", filterTitle, extension.WithPreservesSafety()),
		extension.NewFilter("default", filterDefault),
		extension.NewFilter("join", filterJoin),
		extension.NewFilter("length", filterLength),
		extension.NewFilter("sanitize", filterSanitize, extension.WithSafe("html")),
		extension.NewFilter("striptags", filterStripTags),
	}
}

func (Extension) Tests() []extension.Test {
	return []extension.Test{
		extension.NewTest("defined", testDefined),
		extension.NewTest("none", testNone),
		extension.NewTest("empty", testEmpty),
		extension.NewTest("even", testEven),
		extension.NewTest("odd", testOdd),
		extension.NewTest("iterable", testIterable),
	}
}

func (Extension) TokenHandlers() []extension.TokenHandler { return nil }

func (Extension) NodeVisitors() []extension.NodeVisitor { return nil }

// Operators returns the default precedence table. Higher binds tighter.
func (Extension) Operators() extension.OperatorSet {
	left := func(precedence int) extension.Operator {
		return extension.Operator{Precedence: precedence, Associativity: extension.AssocLeft}
	}
	right := func(precedence int) extension.Operator {
		return extension.Operator{Precedence: precedence, Associativity: extension.AssocRight}
	}
	return extension.OperatorSet{
		Unary: map[string]extension.Operator{
			"not": left(50),
			"-":   left(500),
			"+":   left(500),
		},
		Binary: map[string]extension.Operator{
			"or":          left(10),
			"and":         left(15),
			"b-or":        left(16),
			"b-xor":       left(17),
			"b-and":       left(18),
			"==":          left(20),
			"!=":          left(20),
			"<":           left(20),
			">":           left(20),
			">=":          left(20),
			"<=":          left(20),
			"in":          left(20),
			"not in":      left(20),
			"matches":     left(20),
			"starts with": left(20),
			"ends with":   left(20),
			"..":          left(25),
			"+":           left(30),
			"-":           left(30),
			"~":           left(40),
			"*":           left(60),
			"/":           left(60),
			"//":          left(60),
			"%":           left(60),
			"is":          left(100),
			"is not":      left(100),
			"**":          right(200),
			"??":          right(300),
		},
	}
}
