package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// State is the registry lifecycle phase.
type State int32

const (
	// Building accepts registrations.
	Building State = iota
	// Frozen rejects registrations and serves precomputed tables.
	Frozen
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Frozen:
		return "frozen"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FunctionResolver is consulted, in registration order, when a function name
// matches neither an exact entry nor a wildcard pattern.
type FunctionResolver func(name string) (extension.Function, bool)

// FilterResolver is the filter counterpart of FunctionResolver.
type FilterResolver func(name string) (extension.Filter, bool)

// Registry aggregates extensions into a flat symbol table. The zero value is
// not usable; construct with New.
type Registry struct {
	// mu serialises registration, the freeze transition, and the
	// memoised values computed while building.
	mu     sync.Mutex
	state  atomic.Int32
	logger *zap.Logger

	extensions []extension.Extension
	byID       map[string]extension.Extension
	staging    *staging

	// Written once by aggregate, read-only afterwards.
	functions       *table[extension.Function]
	filters         *table[extension.Filter]
	tests           *table[extension.Test]
	tokenHandlers   []extension.TokenHandler
	nodeVisitors    []extension.NodeVisitor
	unaryOperators  map[string]extension.Operator
	binaryOperators map[string]extension.Operator
	initErr         error

	resolversMu       sync.RWMutex
	functionResolvers []FunctionResolver
	filterResolvers   []FilterResolver

	globalsOnce sync.Once
	globals     map[string]any
	globalsErr  error

	signatureOnce sync.Once
	signature     string

	lastModified lastModifiedMemo
}

type lastModifiedMemo struct {
	done     bool
	modified time.Time
	ok       bool
}

// New creates an empty registry in the Building state.
func New(options ...Option) *Registry {
	r := &Registry{
		logger:  zap.NewNop(),
		byID:    make(map[string]extension.Extension),
		staging: &staging{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// State returns the current lifecycle phase.
func (r *Registry) State() State {
	return State(r.state.Load())
}

// IsFrozen reports whether the aggregation pass has run.
func (r *Registry) IsFrozen() bool {
	return r.State() == Frozen
}

// AddExtension registers ext. It fails with ErrLocked once frozen and with
// ErrDuplicateExtension when ext's id is already present.
func (r *Registry) AddExtension(ext extension.Extension) error {
	if ext == nil {
		return fmt.Errorf("registry: extension is required: %w", ErrInvalidExtension)
	}
	id := strings.TrimSpace(ext.ID())
	if id == "" {
		return fmt.Errorf("registry: extension id is required: %w", ErrInvalidExtension)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.IsFrozen() {
		return fmt.Errorf("registry: unable to register extension %q: %w", id, ErrLocked)
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("registry: unable to register extension %q: %w", id, ErrDuplicateExtension)
	}

	r.byID[id] = ext
	r.extensions = append(r.extensions, ext)
	r.lastModified = lastModifiedMemo{}
	return nil
}

// MustAddExtension panics on registration failure. Useful for init-time
// wiring.
func (r *Registry) MustAddExtension(ext extension.Extension) {
	if err := r.AddExtension(ext); err != nil {
		panic(err)
	}
}

// SetExtensions registers each extension in order, stopping at the first
// failure.
func (r *Registry) SetExtensions(exts ...extension.Extension) error {
	for _, ext := range exts {
		if err := r.AddExtension(ext); err != nil {
			return err
		}
	}
	return nil
}

// AddFunction stages a function on the registry itself.
func (r *Registry) AddFunction(fn extension.Function) error {
	if err := requireName("function", fn.Name()); err != nil {
		return err
	}
	return r.stage("function", fn.Name(), func(s *staging) {
		s.functions = append(s.functions, fn)
	})
}

// AddFilter stages a filter on the registry itself.
func (r *Registry) AddFilter(filter extension.Filter) error {
	if err := requireName("filter", filter.Name()); err != nil {
		return err
	}
	return r.stage("filter", filter.Name(), func(s *staging) {
		s.filters = append(s.filters, filter)
	})
}

// AddTest stages a test on the registry itself.
func (r *Registry) AddTest(test extension.Test) error {
	if err := requireName("test", test.Name()); err != nil {
		return err
	}
	return r.stage("test", test.Name(), func(s *staging) {
		s.tests = append(s.tests, test)
	})
}

// AddTokenHandler stages a token handler on the registry itself.
func (r *Registry) AddTokenHandler(handler extension.TokenHandler) error {
	if handler == nil {
		return fmt.Errorf("registry: token handler is required: %w", ErrInvalidExtension)
	}
	return r.stage("token handler", handler.Tag(), func(s *staging) {
		s.tokenHandlers = append(s.tokenHandlers, handler)
	})
}

// AddNodeVisitor stages a node visitor on the registry itself.
func (r *Registry) AddNodeVisitor(visitor extension.NodeVisitor) error {
	if visitor == nil {
		return fmt.Errorf("registry: node visitor is required: %w", ErrInvalidExtension)
	}
	return r.stage("node visitor", fmt.Sprintf("%T", visitor), func(s *staging) {
		s.nodeVisitors = append(s.nodeVisitors, visitor)
	})
}

// AddGlobal stages a global variable. Staged globals are merged after every
// extension's globals.
func (r *Registry) AddGlobal(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("registry: global name is required: %w", ErrInvalidExtension)
	}
	return r.stage("global", name, func(s *staging) {
		s.setGlobal(name, value)
	})
}

func requireName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("registry: %s name is required: %w", kind, ErrInvalidExtension)
	}
	return nil
}

func (r *Registry) stage(kind, name string, apply func(*staging)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.IsFrozen() {
		return fmt.Errorf("registry: unable to add %s %q: %w", kind, name, ErrLocked)
	}
	apply(r.staging)
	return nil
}

// RegisterFunctionResolver appends a fallback resolver for unknown function
// names. Resolvers may be added at any time.
func (r *Registry) RegisterFunctionResolver(resolver FunctionResolver) {
	if resolver == nil {
		return
	}
	r.resolversMu.Lock()
	defer r.resolversMu.Unlock()
	r.functionResolvers = append(r.functionResolvers, resolver)
}

// RegisterFilterResolver appends a fallback resolver for unknown filter
// names. Resolvers may be added at any time.
func (r *Registry) RegisterFilterResolver(resolver FilterResolver) {
	if resolver == nil {
		return
	}
	r.resolversMu.Lock()
	defer r.resolversMu.Unlock()
	r.filterResolvers = append(r.filterResolvers, resolver)
}

// Extension returns the registered extension with the given id.
func (r *Registry) Extension(id string) (extension.Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ext, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("registry: extension %q: %w", id, ErrExtensionNotFound)
	}
	return ext, nil
}

// HasExtension reports whether an extension with the given id is registered.
func (r *Registry) HasExtension(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byID[strings.TrimSpace(id)]
	return ok
}

// Extensions returns the registered extensions in registration order. The
// staging bucket is not included.
func (r *Registry) Extensions() []extension.Extension {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]extension.Extension(nil), r.extensions...)
}
