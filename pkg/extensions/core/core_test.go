package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tmplext/pkg/registry"
)

func TestCore_RegistersCleanly(t *testing.T) {
	reg := registry.New()
	if err := reg.AddExtension(New()); err != nil {
		t.Fatalf("add extension: %v", err)
	}
	if err := reg.Init(); err != nil {
		t.Fatalf("expected core operators to satisfy the contract: %v", err)
	}

	for _, name := range []string{"trim", "lowerfirst", "upper", "sanitize", "striptags"} {
		if _, ok := reg.Filter(name); !ok {
			t.Fatalf("expected filter %q", name)
		}
	}
	for _, name := range []string{"even", "odd", "empty", "defined", "none", "iterable"} {
		if _, ok := reg.Test(name); !ok {
			t.Fatalf("expected test %q", name)
		}
	}
	if op := reg.BinaryOperators()["**"]; op.Precedence != 200 || op.Associativity.String() != "right" {
		t.Fatalf("unexpected ** operator %+v", op)
	}
}

func TestFilters(t *testing.T) {
	cases := []struct {
		name   string
		filter func(any, ...any) (any, error)
		input  any
		args   []any
		expect any
	}{
		{name: "trim", filter: filterTrim, input: "  Ada  ", expect: "Ada"},
		{name: "trim nil", filter: filterTrim, input: nil, expect: ""},
		{name: "lowerfirst", filter: filterLowerFirst, input: "  Hello World", expect: "  hello World"},
		{name: "lowerfirst blank", filter: filterLowerFirst, input: "   ", expect: "   "},
		{name: "upper", filter: filterUpper, input: "ada", expect: "ADA"},
		{name: "lower", filter: filterLower, input: "ADA", expect: "ada"},
		{name: "title", filter: filterTitle, input: "hello wORLD", expect: "Hello World"},
		{name: "default empty", filter: filterDefault, input: "", args: []any{"n/a"}, expect: "n/a"},
		{name: "default zero kept", filter: filterDefault, input: 0, args: []any{"n/a"}, expect: 0},
		{name: "join", filter: filterJoin, input: []string{"a", "b"}, args: []any{", "}, expect: "a, b"},
		{name: "length string", filter: filterLength, input: "héllo", expect: 5},
		{name: "length slice", filter: filterLength, input: []int{1, 2, 3}, expect: 3},
		{name: "striptags", filter: filterStripTags, input: "<b>Tom &amp; Jerry</b>", expect: "Tom & Jerry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.filter(tc.input, tc.args...)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterSanitize_DropsScripts(t *testing.T) {
	got, err := filterSanitize(`<p>Hi <script>alert(1)</script><a href="https://example.com">link</a></p>`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	out := got.(string)
	if strings.Contains(out, "script") {
		t.Fatalf("expected script to be removed, got %q", out)
	}
	if !strings.Contains(out, "nofollow") {
		t.Fatalf("expected nofollow on links, got %q", out)
	}
}

func TestFilterJoin_RejectsScalars(t *testing.T) {
	if _, err := filterJoin(42, ","); err == nil {
		t.Fatalf("expected error for scalar input")
	}
}

func TestFunctions(t *testing.T) {
	got, err := fnRange(1, 3)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if diff := cmp.Diff([]any{int64(1), int64(2), int64(3)}, got); diff != "" {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}

	got, err = fnRange(5, 1, 2)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if diff := cmp.Diff([]any{int64(5), int64(3), int64(1)}, got); diff != "" {
		t.Fatalf("descending range mismatch (-want +got):\n%s", diff)
	}

	if _, err := fnRange(1, 2, 0); err == nil {
		t.Fatalf("expected zero step error")
	}
	if hi, _ := fnMax(3, 9.5, 2); hi != 9.5 {
		t.Fatalf("expected max 9.5, got %v", hi)
	}
	if lo, _ := fnMin([]any{4, 2, 8}); lo != 2 {
		t.Fatalf("expected min 2, got %v", lo)
	}
	if _, err := fnMax(); err == nil {
		t.Fatalf("expected error without values")
	}
}

func TestPredicates(t *testing.T) {
	check := func(name string, fn func(any, ...any) (bool, error), input any, want bool) {
		t.Helper()
		got, err := fn(input)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s(%v): want %v, got %v", name, input, want, got)
		}
	}
	check("even", testEven, 4, true)
	check("odd", testOdd, 4, false)
	check("empty", testEmpty, "", true)
	check("empty", testEmpty, []any{}, true)
	check("empty", testEmpty, 0, false)
	check("defined", testDefined, nil, false)
	check("none", testNone, nil, true)
	check("iterable", testIterable, map[string]int{}, true)
	check("iterable", testIterable, "abc", false)

	if _, err := testEven("x"); err == nil {
		t.Fatalf("expected error for non numeric input")
	}
}
