package environment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Render treats name as inline template content when it contains template
// delimiters and as a template path otherwise.
func (e *Environment) Render(name string, data any, out ...io.Writer) (string, error) {
	if isTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate loads name (with the configured file extension) through the
// template loaders and renders it with data.
func (e *Environment) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("environment: engine is nil")
	}
	if err := e.Init(); err != nil {
		return "", err
	}

	templatePath := name
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	key := cacheKey(e.registry.Signature(), "file", templatePath)
	tmpl, err := e.compile(key, func() (*pongo2.Template, error) {
		tmpl, err := e.templateSet.FromFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("environment: load template %q: %w", templatePath, err)
		}
		return tmpl, nil
	})
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, fmt.Sprintf("template %q", templatePath), out)
}

// RenderString compiles templateContent and renders it with data.
func (e *Environment) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("environment: engine is nil")
	}
	if err := e.Init(); err != nil {
		return "", err
	}

	key := cacheKey(e.registry.Signature(), "string", templateContent)
	tmpl, err := e.compile(key, func() (*pongo2.Template, error) {
		tmpl, err := e.templateSet.FromString(templateContent)
		if err != nil {
			return nil, fmt.Errorf("environment: parse template string: %w", err)
		}
		return tmpl, nil
	})
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, "template string", out)
}

func (e *Environment) execute(tmpl *pongo2.Template, data any, label string, out []io.Writer) (string, error) {
	viewContext, err := renderContext(data)
	if err != nil {
		return "", fmt.Errorf("environment: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("environment: execute %s: %w", label, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func isTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

// renderContext turns call-site data into the pongo2 scope. Maps are copied
// with blank keys dropped; any other value is flattened through its JSON
// form so struct tags name the template variables. Registry globals are not
// merged here: they live in the template set and call-site values shadow
// them.
func renderContext(data any) (pongo2.Context, error) {
	var scope map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		scope = v
	case map[string]any:
		scope = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &scope); err != nil {
			return nil, fmt.Errorf("render data must encode as an object: %w", err)
		}
	}

	ctx := make(pongo2.Context, len(scope))
	for key, value := range scope {
		if key = strings.TrimSpace(key); key != "" {
			ctx[key] = value
		}
	}
	return ctx, nil
}
