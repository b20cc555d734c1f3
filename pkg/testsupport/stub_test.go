package testsupport_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tmplext/pkg/extension"
	"github.com/goliatone/go-tmplext/pkg/registry"
	"github.com/goliatone/go-tmplext/pkg/testsupport"
)

func TestCountingExtension_ForwardsCapabilities(t *testing.T) {
	modified := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	inner := extension.NewStatic("inner",
		extension.WithFunctions(extension.NewFunction("x", testsupport.Constant(1))),
		extension.WithGlobals(map[string]any{"site": "docs"}),
		extension.WithOperators(extension.OperatorSet{
			Binary: map[string]extension.Operator{"~": {Precedence: 40}},
		}),
		extension.WithProvenance(extension.FixedProvenance(modified)),
	)
	counting := testsupport.NewCountingExtension(inner)

	reg := registry.New()
	reg.MustAddExtension(counting)

	globals, err := reg.Globals()
	if err != nil {
		t.Fatalf("globals: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"site": "docs"}, globals); diff != "" {
		t.Fatalf("globals mismatch (-want +got):\n%s", diff)
	}
	if op, ok := reg.BinaryOperators()["~"]; !ok || op.Precedence != 40 {
		t.Fatalf("expected forwarded operator, got %+v (ok=%v)", op, ok)
	}
	if got, ok := reg.LastModified(); !ok || !got.Equal(modified) {
		t.Fatalf("expected forwarded provenance %v, got %v (ok=%v)", modified, got, ok)
	}
	if got := counting.FunctionCalls.Load(); got != 1 {
		t.Fatalf("expected one Functions call, got %d", got)
	}
}

func TestCountingExtension_MissingCapabilitiesAreEmpty(t *testing.T) {
	counting := testsupport.NewCountingExtension(extension.NewStatic("bare"))

	if globals := counting.Globals(); len(globals) != 0 {
		t.Fatalf("expected no globals, got %v", globals)
	}
	if err := counting.Operators().Validate(); err != nil {
		t.Fatalf("expected empty operators to validate: %v", err)
	}
	if _, ok := counting.LastModified(); ok {
		t.Fatalf("expected provenance to decline")
	}
	if err := counting.InitRuntime(nil); err != nil {
		t.Fatalf("expected no-op runtime init: %v", err)
	}
}
