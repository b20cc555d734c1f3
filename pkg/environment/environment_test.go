package environment_test

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/atomic"

	"github.com/goliatone/go-tmplext/pkg/environment"
	"github.com/goliatone/go-tmplext/pkg/extension"
	"github.com/goliatone/go-tmplext/pkg/registry"
	"github.com/goliatone/go-tmplext/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestEnvironment_RenderTemplate(t *testing.T) {
	env := newEnvironment(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return env.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "hello.golden", result, written)
}

func TestEnvironment_RenderFilter(t *testing.T) {
	shout := extension.NewFilter("envtest_shout", func(input any, _ ...any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("shout", extension.WithFilters(shout)),
	))

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return env.RenderTemplate("use-filter", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "use-filter.golden", result, written)
}

func TestEnvironment_RenderGlobals(t *testing.T) {
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("site", extension.WithGlobals(map[string]any{
			"site":  map[string]any{"env": "staging"},
			"owner": "dev",
		})),
	))
	if err := env.AddGlobal("owner", "ops"); err != nil {
		t.Fatalf("add global: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return env.RenderTemplate("use-global", nil, w)
	})
	assertGolden(t, "use-global.golden", result, written)
}

func TestEnvironment_RenderDispatchers(t *testing.T) {
	greet := extension.NewFunction("greet_*", func(args ...any) (any, error) {
		var b strings.Builder
		b.WriteString("hello ")
		for _, arg := range args {
			b.WriteString(fmt.Sprint(arg))
		}
		return b.String(), nil
	})
	maxOf := extension.NewFunction("max_of", func(args ...any) (any, error) {
		best := 0
		for _, arg := range args {
			if n, ok := arg.(int); ok && n > best {
				best = n
			}
		}
		return best, nil
	})
	even := extension.NewTest("envtest_even", func(input any, _ ...any) (bool, error) {
		n, ok := input.(int)
		return ok && n%2 == 0, nil
	})
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("dispatch",
			extension.WithFunctions(greet, maxOf),
			extension.WithTests(even),
		),
	))

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return env.RenderTemplate("use-call", nil, w)
	})
	assertGolden(t, "use-call.golden", result, written)
}

func TestEnvironment_UnknownFunctionFails(t *testing.T) {
	env := newEnvironment(t)

	if _, err := env.RenderString(`{{ call("envtest_missing") }}`, nil); err == nil {
		t.Fatalf("expected unknown function to fail the render")
	}
}

func TestEnvironment_SafeFilterSkipsEscaping(t *testing.T) {
	bold := func(input any, _ ...any) (any, error) {
		return "<b>" + fmt.Sprint(input) + "</b>", nil
	}
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("markup", extension.WithFilters(
			extension.NewFilter("envtest_bold_safe", bold, extension.WithSafe("html")),
			extension.NewFilter("envtest_bold", bold),
		)),
	))

	got, err := env.RenderString(`{{ filter("envtest_bold_safe", name) }} {{ filter("envtest_bold", name) }}`, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<b>Ada</b> &lt;b&gt;Ada&lt;/b&gt;"
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEnvironment_FiltersStayPerEnvironment(t *testing.T) {
	mark := func(label string) extension.Extension {
		return extension.NewStatic("mark", extension.WithFilters(
			extension.NewFilter("envtest_mark", func(any, ...any) (any, error) { return label, nil }),
			extension.NewFilter("upper", func(any, ...any) (any, error) { return "registry-" + label, nil }),
		))
	}
	a := newEnvironment(t, environment.WithExtensions(mark("A")))
	b := newEnvironment(t, environment.WithExtensions(mark("B")))
	for _, env := range []*environment.Environment{a, b} {
		if err := env.Init(); err != nil {
			t.Fatalf("init: %v", err)
		}
	}

	cases := []struct {
		env  *environment.Environment
		want string
	}{
		{env: a, want: "A registry-A ADA"},
		{env: b, want: "B registry-B ADA"},
	}
	for _, tc := range cases {
		got, err := tc.env.RenderString(`{{ filter("envtest_mark", 1) }} {{ filter("upper", "ada") }} {{ "ada"|upper }}`, nil)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if got != tc.want {
			t.Fatalf("render mismatch\nwant: %q\n got: %q", tc.want, got)
		}
	}
}

func TestEnvironment_FilterDispatcherResolvesPatternsAndFallbacks(t *testing.T) {
	wrap := extension.NewFilter("wrap_*", func(input any, args ...any) (any, error) {
		return fmt.Sprintf("[%v]%v", args[0], input), nil
	})
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("wrap", extension.WithFilters(wrap)),
	))
	env.Registry().RegisterFilterResolver(func(name string) (extension.Filter, bool) {
		if !strings.HasPrefix(name, "dyn_") {
			return extension.Filter{}, false
		}
		return extension.NewFilter(name, func(input any, _ ...any) (any, error) {
			return "dyn:" + fmt.Sprint(input), nil
		}), true
	})

	got, err := env.RenderString(`{{ filter("wrap_em", name) }} {{ filter("dyn_x", name) }}`, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "[em]Ada dyn:Ada"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}

	if _, err := env.RenderString(`{{ filter("envtest_absent", name) }}`, map[string]any{"name": "Ada"}); err == nil {
		t.Fatalf("expected unknown filter to fail the render")
	}
}

func TestEnvironment_InitWhileOthersRender(t *testing.T) {
	shout := func(label string) extension.Extension {
		return extension.NewStatic("shout", extension.WithFilters(
			extension.NewFilter("envtest_race", func(input any, _ ...any) (any, error) {
				return label + fmt.Sprint(input), nil
			}),
		))
	}
	busy := newEnvironment(t, environment.WithExtensions(shout("busy:")))
	if err := busy.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			got, err := busy.RenderString(`{{ filter("envtest_race", n) }}`, map[string]any{"n": i})
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("busy:%d", i); got != want {
				errs <- fmt.Errorf("want %q, got %q", want, got)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			fresh, err := environment.New(
				environment.WithFS(fstest.MapFS{}),
				environment.WithExtensions(shout("fresh:")),
			)
			if err != nil {
				errs <- err
				return
			}
			if err := fresh.Init(); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent init and render: %v", err)
	}
}

var registerStampOnce sync.Once

type stampTag struct{ name string }

func (s stampTag) Tag() string { return s.name }

func (s stampTag) Parse(_ *pongo2.Parser, _ *pongo2.Token, _ *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	return stampNode{}, nil
}

type stampNode struct{}

func (stampNode) Execute(_ *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	_, _ = w.WriteString("stamped")
	return nil
}

func TestRegisterTags(t *testing.T) {
	registerStampOnce.Do(func() {
		if err := environment.RegisterTags(stampTag{name: "envtest_stamp"}); err != nil {
			t.Fatalf("register tags: %v", err)
		}
	})

	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("stamp", extension.WithTokenHandlers(stampTag{name: "envtest_stamp"})),
	))
	got, err := env.RenderString(`{% envtest_stamp %}`, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "stamped" {
		t.Fatalf("unexpected tag output %q", got)
	}

	if err := environment.RegisterTags(stampTag{name: "if"}); err == nil {
		t.Fatalf("expected a collision with the built-in if tag")
	}
	if err := environment.RegisterTags(testsupport.Tag("envtest_plain")); err == nil {
		t.Fatalf("expected a handler without a parser to be rejected")
	}
}

func TestEnvironment_Render_DetectsInlineContent(t *testing.T) {
	env := newEnvironment(t)

	got, err := env.Render("{{ greeting }}, {{ name }}", struct {
		Greeting string `json:"greeting"`
		Name     string `json:"name"`
	}{Greeting: "Hi", Name: "Ada"})
	if err != nil {
		t.Fatalf("render inline: %v", err)
	}
	if got != "Hi, Ada" {
		t.Fatalf("unexpected inline render %q", got)
	}

	got, err = env.Render("hello", map[string]any{"name": "Grace"})
	if err != nil {
		t.Fatalf("render path: %v", err)
	}
	if got != "Hello Grace!" {
		t.Fatalf("unexpected path render %q", got)
	}
}

func TestEnvironment_LocksRegistryAfterRender(t *testing.T) {
	env := newEnvironment(t)

	if _, err := env.RenderString("{{ 1 }}", nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !env.Registry().IsFrozen() {
		t.Fatalf("expected rendering to freeze the registry")
	}
	err := env.AddExtension(extension.NewStatic("late"))
	if !errors.Is(err, registry.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := env.AddGlobal("late", true); !errors.Is(err, registry.ErrLocked) {
		t.Fatalf("expected ErrLocked for global, got %v", err)
	}
}

func TestEnvironment_InitRuntimeRunsOncePerEnvironment(t *testing.T) {
	var calls atomic.Int32
	var charset string
	ext := extension.NewStatic("runtime", extension.WithRuntimeInit(func(host extension.Host) error {
		calls.Inc()
		charset = host.Charset()
		return nil
	}))

	reg := registry.New()
	env := newEnvironment(t, environment.WithRegistry(reg), environment.WithExtensions(ext), environment.WithCharset("ISO-8859-1"))

	for i := 0; i < 3; i++ {
		if err := env.Init(); err != nil {
			t.Fatalf("init: %v", err)
		}
	}
	if _, err := env.RenderTemplate("hello", map[string]any{"name": "Ada"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected runtime init once, got %d", got)
	}
	if charset != "ISO-8859-1" {
		t.Fatalf("expected host charset to reach the extension, got %q", charset)
	}

	other := newEnvironment(t, environment.WithRegistry(reg))
	if err := other.Init(); err != nil {
		t.Fatalf("init second environment: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected a second environment to run its own runtime init, got %d", got)
	}
}

func TestEnvironment_InitRuntimeCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("first", extension.WithRuntimeInit(func(extension.Host) error { return boom })),
		extension.NewStatic("second", extension.WithRuntimeInit(func(extension.Host) error { return boom })),
	))

	err := env.Init()
	if !errors.Is(err, boom) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"first"`) || !strings.Contains(err.Error(), `"second"`) {
		t.Fatalf("expected both extension ids in %q", err.Error())
	}
	if _, renderErr := env.RenderString("{{ 1 }}", nil); !errors.Is(renderErr, boom) {
		t.Fatalf("expected render to surface init error, got %v", renderErr)
	}
}

func TestEnvironment_ContractViolationSurfacesFromInit(t *testing.T) {
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("broken", extension.WithOperators(extension.OperatorSet{
			Binary: map[string]extension.Operator{"??": {Precedence: -1}},
		})),
	))

	if err := env.Init(); !errors.Is(err, registry.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestEnvironment_MergeGlobals(t *testing.T) {
	env := newEnvironment(t, environment.WithExtensions(
		extension.NewStatic("site", extension.WithGlobals(map[string]any{
			"site":  "docs",
			"theme": "light",
		})),
	))

	got, err := env.MergeGlobals(map[string]any{"theme": "dark", "page": 2})
	if err != nil {
		t.Fatalf("merge globals: %v", err)
	}
	want := map[string]any{"site": "docs", "theme": "dark", "page": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if env.Registry().IsFrozen() {
		t.Fatalf("expected MergeGlobals to leave the registry building")
	}
}

func TestEnvironment_CachesCompiledTemplates(t *testing.T) {
	cache := newCountingCache()
	env := newEnvironment(t, environment.WithCache(cache))

	for i := 0; i < 3; i++ {
		if _, err := env.RenderTemplate("hello", map[string]any{"name": "Ada"}); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if got := cache.sets.Load(); got != 1 {
		t.Fatalf("expected a single compile, got %d", got)
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("expected one cached entry, got %d", got)
	}
}

func TestEnvironment_AutoReloadRecompilesStaleEntries(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	source := extension.NewStatic("source", extension.WithProvenance(extension.FixedProvenance(modified)))

	cases := []struct {
		name       string
		autoReload bool
		compiledAt time.Time
		wantSets   int32
	}{
		{name: "stale entries recompile", autoReload: true, compiledAt: modified.Add(-time.Minute), wantSets: 3},
		{name: "fresh entries reused", autoReload: true, compiledAt: modified.Add(time.Minute), wantSets: 1},
		{name: "reload disabled", autoReload: false, compiledAt: modified.Add(-time.Minute), wantSets: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := newCountingCache()
			env := newEnvironment(t,
				environment.WithExtensions(source),
				environment.WithCache(cache),
				environment.WithAutoReload(tc.autoReload),
				environment.WithClock(func() time.Time { return tc.compiledAt }),
			)
			for i := 0; i < 3; i++ {
				if _, err := env.RenderString("{{ name }}", map[string]any{"name": "Ada"}); err != nil {
					t.Fatalf("render: %v", err)
				}
			}
			if got := cache.sets.Load(); got != tc.wantSets {
				t.Fatalf("expected %d compiles, got %d", tc.wantSets, got)
			}
		})
	}
}

func TestEnvironment_ConcurrentRenders(t *testing.T) {
	env := newEnvironment(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user-%d", i)
			got, err := env.RenderTemplate("hello", map[string]any{"name": name})
			if err != nil {
				errs <- err
				return
			}
			if got != "Hello "+name+"!" {
				errs <- fmt.Errorf("unexpected output %q", got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent render: %v", err)
	}
}

func TestNew_RequiresTemplateSource(t *testing.T) {
	if _, err := environment.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func TestNew_RejectsDuplicateExtensions(t *testing.T) {
	_, err := environment.New(
		environment.WithFS(templatesFS(t)),
		environment.WithExtensions(extension.NewStatic("dup"), extension.NewStatic("dup")),
	)
	if !errors.Is(err, registry.ErrDuplicateExtension) {
		t.Fatalf("expected duplicate extension error, got %v", err)
	}
}

type countingCache struct {
	*environment.MemoryCache
	sets atomic.Int32
}

func newCountingCache() *countingCache {
	return &countingCache{MemoryCache: environment.NewMemoryCache()}
}

func (c *countingCache) Set(key string, entry environment.Entry) {
	c.sets.Inc()
	c.MemoryCache.Set(key, entry)
}

func newEnvironment(t *testing.T, options ...environment.Option) *environment.Environment {
	t.Helper()

	options = append([]environment.Option{environment.WithFS(templatesFS(t))}, options...)
	env, err := environment.New(options...)
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	return env
}

func templatesFS(t *testing.T) fs.FS {
	t.Helper()

	templates, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return templates
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", name))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}
