package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/multierr"

	"github.com/goliatone/go-tmplext/pkg/extension"
)

// Globals merges the globals of every extension in registration order, with
// staged globals last; later values overwrite earlier ones. Globals does not
// freeze the registry. The merged map is cached only once the registry is
// frozen, so a building registry never pins a partial view.
func (r *Registry) Globals() (map[string]any, error) {
	if !r.IsFrozen() {
		r.mu.Lock()
		if !r.IsFrozen() {
			globals, err := r.mergeGlobals()
			r.mu.Unlock()
			return globals, err
		}
		r.mu.Unlock()
	}

	r.globalsOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.globals, r.globalsErr = r.mergeGlobals()
	})
	if r.globalsErr != nil {
		return nil, r.globalsErr
	}
	return copyGlobals(r.globals), nil
}

// mergeGlobals assumes r.mu is held.
func (r *Registry) mergeGlobals() (map[string]any, error) {
	merged := make(map[string]any)
	sources := make([]extension.Extension, 0, len(r.extensions)+1)
	sources = append(sources, r.extensions...)
	sources = append(sources, r.staging)

	var errs error
	for _, ext := range sources {
		provider, ok := ext.(extension.GlobalsProvider)
		if !ok {
			continue
		}
		for name, value := range provider.Globals() {
			if strings.TrimSpace(name) == "" {
				errs = multierr.Append(errs, &ContractError{
					ExtensionID: ext.ID(),
					Err:         errors.New("global with empty name"),
				})
				continue
			}
			merged[name] = value
		}
	}
	if errs != nil {
		return nil, errs
	}
	return merged, nil
}

// Signature fingerprints the ordered set of registered extension ids. It is
// independent of the aggregation pass and stable for a given registration
// sequence, which makes it suitable as part of a compiled-template cache key.
func (r *Registry) Signature() string {
	if !r.IsFrozen() {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.computeSignature()
	}
	r.signatureOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.signature = r.computeSignature()
	})
	return r.signature
}

func (r *Registry) computeSignature() string {
	ids := make([]string, 0, len(r.extensions))
	for _, ext := range r.extensions {
		ids = append(ids, ext.ID())
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		// a []string always encodes
		panic(err)
	}
	sum := xxh3.Hash128(payload)
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}

// LastModified reports the newest modification time among the extensions
// implementing extension.Provenance. ok is false when no extension reported
// one. The value is probed once and memoised; adding an extension while
// building drops the memo.
func (r *Registry) LastModified() (modified time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastModified.done {
		return r.lastModified.modified, r.lastModified.ok
	}
	for _, ext := range r.extensions {
		provider, isProvider := ext.(extension.Provenance)
		if !isProvider {
			continue
		}
		mod, reported := provider.LastModified()
		if !reported {
			continue
		}
		if !ok || mod.After(modified) {
			modified = mod
			ok = true
		}
	}
	r.lastModified = lastModifiedMemo{done: true, modified: modified, ok: ok}
	return modified, ok
}

func copyGlobals(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
