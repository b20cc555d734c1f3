package tmplext

import (
	"io/fs"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-tmplext/pkg/environment"
	"github.com/goliatone/go-tmplext/pkg/extension"
	"github.com/goliatone/go-tmplext/pkg/extensions/core"
	"github.com/goliatone/go-tmplext/pkg/extensions/theme"
	"github.com/goliatone/go-tmplext/pkg/registry"
)

// Extension aliases extension.Extension so callers can implement extensions
// against the root package.
type Extension = extension.Extension

// Registry aliases the extension registry.
type Registry = registry.Registry

// Environment aliases the rendering environment.
type Environment = environment.Environment

// NewRegistry exposes the registry constructor from the top-level module.
func NewRegistry(options ...registry.Option) *Registry {
	return registry.New(options...)
}

// NewEnvironment builds an environment with the core extension registered
// ahead of any extensions passed through options. Use environment.New
// directly for an environment without the core set.
func NewEnvironment(options ...environment.Option) (*Environment, error) {
	opts := make([]environment.Option, 0, len(options)+1)
	opts = append(opts, environment.WithExtensions(core.New()))
	opts = append(opts, options...)
	return environment.New(opts...)
}

// WithTheme registers a theme extension publishing cfg to templates.
func WithTheme(cfg *gotheme.RendererConfig) environment.Option {
	return environment.WithExtensions(theme.New(cfg))
}

// WithManifests loads every manifest under fsys and registers the resulting
// extensions in path order.
func WithManifests(fsys fs.FS) (environment.Option, error) {
	manifests, err := extension.LoadManifests(fsys)
	if err != nil {
		return nil, err
	}
	exts := make([]extension.Extension, 0, len(manifests))
	for _, manifest := range manifests {
		exts = append(exts, manifest)
	}
	return environment.WithExtensions(exts...), nil
}
