package extension

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	ID      string         `json:"id" yaml:"id"`
	Globals map[string]any `json:"globals" yaml:"globals"`
}

// LoadManifest reads a JSON or YAML manifest declaring an extension id and its
// globals. The returned extension reports the manifest file's modification
// time as its provenance.
//
//	id: site
//	globals:
//	  site_name: Acme
//	  year: 2026
func LoadManifest(fsys fs.FS, path string) (*Static, error) {
	if fsys == nil {
		return nil, fmt.Errorf("extension: manifest fs is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("extension: read manifest %s: %w", path, err)
	}
	doc, err := parseManifest(data, path)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	globals := make(map[string]any, len(doc.Globals))
	for key, value := range doc.Globals {
		name := strings.TrimSpace(key)
		if name == "" {
			return nil, fmt.Errorf("extension: manifest %s declares an empty global name", path)
		}
		globals[name] = normaliseManifestValue(value)
	}

	return NewStatic(id,
		WithGlobals(globals),
		WithProvenance(FSProvenance(fsys, path)),
	), nil
}

// LoadManifests walks fsys and loads every .json, .yaml, and .yml file as a
// manifest, sorted by path so registration order is stable.
func LoadManifests(fsys fs.FS) ([]*Static, error) {
	if fsys == nil {
		return nil, nil
	}
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isManifestFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extension: walk manifests: %w", err)
	}
	sort.Strings(paths)

	out := make([]*Static, 0, len(paths))
	for _, path := range paths {
		ext, err := LoadManifest(fsys, path)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

func parseManifest(data []byte, source string) (manifestFile, error) {
	var doc manifestFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return manifestFile{}, fmt.Errorf("extension: manifest %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = manifestFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return manifestFile{}, fmt.Errorf("extension: parse manifest %s: invalid JSON or YAML", source)
}

// yaml.v3 decodes nested mappings as map[string]any already; older documents
// with non-string keys still come through as map[any]any.
func normaliseManifestValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normaliseManifestValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normaliseManifestValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normaliseManifestValue(item)
		}
		return out
	default:
		return v
	}
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
