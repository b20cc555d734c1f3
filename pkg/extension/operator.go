package extension

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Associativity controls how binary operators of equal precedence group.
type Associativity int

const (
	// AssocLeft groups a op b op c as (a op b) op c.
	AssocLeft Associativity = iota
	// AssocRight groups a op b op c as a op (b op c).
	AssocRight
)

func (a Associativity) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return fmt.Sprintf("associativity(%d)", int(a))
	}
}

// Operator describes how the parser binds an operator symbol.
type Operator struct {
	Precedence    int
	Associativity Associativity
}

// OperatorSet is the unary/binary pair an OperatorProvider contributes.
type OperatorSet struct {
	Unary  map[string]Operator
	Binary map[string]Operator
}

// Validate checks the set against the operator contract and returns every
// violation combined.
func (s OperatorSet) Validate() error {
	var errs error
	for symbol, op := range s.Unary {
		if err := validateOperator("unary", symbol, op); err != nil {
			errs = multierr.Append(errs, err)
		}
		if op.Associativity != AssocLeft {
			errs = multierr.Append(errs, fmt.Errorf("unary operator %q: associativity is not supported", symbol))
		}
	}
	for symbol, op := range s.Binary {
		if err := validateOperator("binary", symbol, op); err != nil {
			errs = multierr.Append(errs, err)
		}
		if op.Associativity != AssocLeft && op.Associativity != AssocRight {
			errs = multierr.Append(errs, fmt.Errorf("binary operator %q: invalid %s", symbol, op.Associativity))
		}
	}
	return errs
}

func validateOperator(kind, symbol string, op Operator) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("%s operator symbol is empty", kind)
	}
	if op.Precedence < 0 {
		return fmt.Errorf("%s operator %q: negative precedence %d", kind, symbol, op.Precedence)
	}
	return nil
}
