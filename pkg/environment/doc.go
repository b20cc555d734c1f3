// Package environment hosts an extension registry and renders templates with
// it.
//
// An Environment owns a registry.Registry and a pongo2 template set. On first
// use it freezes the registry, runs every extension's runtime hook once, and
// publishes the aggregated symbol table as template-set globals: functions,
// registry globals, and three dispatchers.
//
//	{{ call("asset_css", "main.css") }}   resolves through Registry.Function,
//	                                      including wildcard and fallback lookup
//	{{ filter("sanitize", body) }}        resolves through Registry.Filter,
//	                                      including wildcard and fallback lookup
//	{% if test("even", n) %}             resolves through Registry.Test
//
// Each environment keeps its symbols to its own template set. The pipe syntax
// ({{ x|upper }}) reads pongo2's process-wide filter table and keeps pongo2's
// built-in filters. Tags are process-wide in pongo2 too; install them once at
// start-up with RegisterTags.
//
// Compiled templates are cached under a key derived from the registry
// signature, and with auto-reload enabled an entry older than the registry's
// last-modified time is recompiled.
package environment
