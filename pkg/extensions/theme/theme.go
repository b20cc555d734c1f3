// Package theme exposes a go-theme renderer configuration to templates as an
// extension: a "theme" global plus helpers resolving assets and tokens.
package theme

import (
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// ID identifies the theme extension.
const ID = "theme"

// Extension publishes a resolved theme configuration.
type Extension struct {
	extension.Base
	cfg *gotheme.RendererConfig
}

var (
	_ extension.Extension       = (*Extension)(nil)
	_ extension.GlobalsProvider = (*Extension)(nil)
)

// New wraps cfg. A nil cfg yields an extension with empty globals whose
// helpers resolve nothing.
func New(cfg *gotheme.RendererConfig) *Extension {
	return &Extension{cfg: cfg}
}

func (e *Extension) ID() string { return ID }

// Functions contributes theme_asset(key), theme_token(name), and the
// theme_token_* pattern, which binds the token name from the function name.
func (e *Extension) Functions() []extension.Function {
	return []extension.Function{
		extension.NewFunction("theme_asset", e.asset),
		extension.NewFunction("theme_token", e.token),
		extension.NewFunction("theme_token_*", e.token),
	}
}

// Globals exposes the configuration under the "theme" key.
func (e *Extension) Globals() map[string]any {
	ctx := map[string]any{
		"name":     "",
		"variant":  "",
		"tokens":   map[string]any{},
		"css_vars": map[string]any{},
		"partials": map[string]any{},
	}
	if e.cfg != nil {
		ctx["name"] = e.cfg.Theme
		ctx["variant"] = e.cfg.Variant
		ctx["tokens"] = toAnyMap(e.cfg.Tokens)
		ctx["css_vars"] = toAnyMap(e.cfg.CSSVars)
		ctx["partials"] = toAnyMap(e.cfg.Partials)
	}
	return map[string]any{"theme": ctx}
}

func (e *Extension) asset(args ...any) (any, error) {
	key, err := singleKey("theme_asset", args)
	if err != nil {
		return nil, err
	}
	if e.cfg == nil || e.cfg.AssetURL == nil {
		return "", nil
	}
	return e.cfg.AssetURL(key), nil
}

func (e *Extension) token(args ...any) (any, error) {
	key, err := singleKey("theme_token", args)
	if err != nil {
		return nil, err
	}
	if e.cfg == nil {
		return "", nil
	}
	return e.cfg.Tokens[key], nil
}

func singleKey(name string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("theme: %s expects one argument, got %d", name, len(args))
	}
	return strings.TrimSpace(fmt.Sprint(args[0])), nil
}

func toAnyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
