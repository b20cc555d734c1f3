package environment

import (
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-tmplext/pkg/extension"
	"github.com/goliatone/go-tmplext/pkg/registry"
)

const (
	defaultCharset   = "UTF-8"
	defaultExtension = ".tpl"
	defaultSetName   = "tmplext"
)

// Option configures the environment before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	setName    string
	charset    string
	debug      bool
	autoReload bool
	logger     *zap.Logger
	registry   *registry.Registry
	extensions []extension.Extension
	cache      Cache
	clock      func() time.Time
}

// WithBaseDir configures the environment to load templates from a base
// directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS configures the environment to load templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default template file extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithSetName names the underlying pongo2 template set.
func WithSetName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.setName = trimmed
		}
	}
}

// WithCharset sets the charset reported to runtime initializers.
func WithCharset(charset string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(charset); trimmed != "" {
			cfg.charset = trimmed
		}
	}
}

// WithDebug toggles debug mode, reported to runtime initializers and
// forwarded to the pongo2 set.
func WithDebug(debug bool) Option {
	return func(cfg *config) {
		cfg.debug = debug
	}
}

// WithAutoReload recompiles cached templates older than the registry's
// last-modified time.
func WithAutoReload(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoReload = enabled
	}
}

// WithLogger sets the logger shared with the registry when the environment
// creates it.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithRegistry injects a registry. Without it the environment creates one.
func WithRegistry(reg *registry.Registry) Option {
	return func(cfg *config) {
		cfg.registry = reg
	}
}

// WithExtensions registers extensions, in order, during construction.
func WithExtensions(exts ...extension.Extension) Option {
	return func(cfg *config) {
		cfg.extensions = append(cfg.extensions, exts...)
	}
}

// WithCache replaces the default in-memory compiled template cache.
func WithCache(cache Cache) Option {
	return func(cfg *config) {
		if cache != nil {
			cfg.cache = cache
		}
	}
}

// WithClock overrides the time source used to stamp compiled templates.
func WithClock(clock func() time.Time) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}
