package environment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-tmplext/pkg/extension"
	"github.com/goliatone/go-tmplext/pkg/registry"
)

// Environment owns a registry and renders templates against its aggregated
// symbol table.
type Environment struct {
	mu sync.RWMutex

	registry    *registry.Registry
	templateSet *pongo2.TemplateSet
	tplExt      string
	charset     string
	debug       bool
	autoReload  bool
	logger      *zap.Logger
	cache       Cache
	clock       func() time.Time
	compiles    singleflight.Group

	readyOnce sync.Once
	readyErr  error

	runtimeOnce sync.Once
	runtimeErr  error
}

var _ extension.Host = (*Environment)(nil)

// New constructs an Environment using the provided configuration options.
func New(options ...Option) (*Environment, error) {
	cfg := &config{
		extension: defaultExtension,
		setName:   defaultSetName,
		charset:   defaultCharset,
		logger:    zap.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("environment: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("environment: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	reg := cfg.registry
	if reg == nil {
		reg = registry.New(registry.WithLogger(cfg.logger))
	}
	for _, ext := range cfg.extensions {
		if err := reg.AddExtension(ext); err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
	}

	set := pongo2.NewSet(cfg.setName, loaders...)
	set.Debug = cfg.debug

	cache := cfg.cache
	if cache == nil {
		cache = NewMemoryCache()
	}

	return &Environment{
		registry:    reg,
		templateSet: set,
		tplExt:      cfg.extension,
		charset:     cfg.charset,
		debug:       cfg.debug,
		autoReload:  cfg.autoReload,
		logger:      cfg.logger,
		cache:       cache,
		clock:       cfg.clock,
	}, nil
}

// Registry returns the registry backing the environment.
func (e *Environment) Registry() *registry.Registry { return e.registry }

// Charset implements extension.Host.
func (e *Environment) Charset() string { return e.charset }

// Debug implements extension.Host.
func (e *Environment) Debug() bool { return e.debug }

// Logger implements extension.Host.
func (e *Environment) Logger() *zap.Logger { return e.logger }

// AddExtension registers ext on the backing registry. It fails once the
// environment has rendered or been initialised.
func (e *Environment) AddExtension(ext extension.Extension) error {
	return e.registry.AddExtension(ext)
}

// AddGlobal stages a global on the backing registry.
func (e *Environment) AddGlobal(name string, value any) error {
	return e.registry.AddGlobal(name, value)
}

// Init freezes the registry, runs runtime initializers, and publishes the
// symbol table to the environment's template set. Rendering calls it
// implicitly; calling it up front surfaces extension errors before the first
// request. Init never writes pongo2's process-wide tables, so environments
// can initialise while others render.
func (e *Environment) Init() error {
	e.readyOnce.Do(func() {
		if err := e.registry.Init(); err != nil {
			e.readyErr = fmt.Errorf("environment: %w", err)
			return
		}
		if err := e.InitRuntime(); err != nil {
			e.readyErr = err
			return
		}
		e.readyErr = e.install()
	})
	return e.readyErr
}

// InitRuntime invokes every extension's runtime hook once per environment.
// The guard lives on the environment, so two environments sharing a registry
// each run the hooks.
func (e *Environment) InitRuntime() error {
	e.runtimeOnce.Do(func() {
		var errs error
		for _, ext := range e.registry.Extensions() {
			initializer, ok := ext.(extension.RuntimeInitializer)
			if !ok {
				continue
			}
			if err := initializer.InitRuntime(e); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("environment: init runtime %q: %w", ext.ID(), err))
			}
		}
		e.runtimeErr = errs
	})
	return e.runtimeErr
}

// Globals returns the registry globals.
func (e *Environment) Globals() (map[string]any, error) {
	return e.registry.Globals()
}

// MergeGlobals returns ctx layered over the registry globals; values in ctx
// win.
func (e *Environment) MergeGlobals(ctx map[string]any) (map[string]any, error) {
	globals, err := e.registry.Globals()
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(globals)+len(ctx))
	for key, value := range globals {
		merged[key] = value
	}
	for key, value := range ctx {
		merged[key] = value
	}
	return merged, nil
}
