// Package tplbridge renders text templates from a template source and a JSON
// context. The heavy lifting lives in pkg/bridge; the C entry points live in
// pkg/cabi and are linked by cmd/libtplbridge.
package tplbridge

import (
	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

// Request aliases bridge.Request for callers importing the module root.
type Request = bridge.Request

// Result aliases bridge.Result, the success-or-diagnostic value a host sees.
type Result = bridge.Result

// Option aliases bridge.Option.
type Option = bridge.Option

// NewRenderer exposes the renderer constructor from the top-level module.
func NewRenderer(options ...Option) *bridge.Renderer {
	return bridge.New(options...)
}

// RenderString renders inline source against a JSON context. escape applies
// HTML escaping to every substituted value.
func RenderString(source string, jsonContext []byte, escape bool, options ...Option) (string, error) {
	return bridge.New(options...).Render(Request{
		Source:     source,
		Context:    jsonContext,
		Autoescape: escape,
	})
}

// RenderFile renders the template called name from the set selected by
// pattern. Names ending in one of escapeOn are HTML escaped.
func RenderFile(pattern, name string, jsonContext []byte, escapeOn []string, options ...Option) Result {
	return bridge.New(options...).RenderResult(Request{
		Source:       name,
		Context:      jsonContext,
		TemplatePath: pattern,
		Autoescape:   len(escapeOn) > 0,
		AutoescapeOn: escapeOn,
	})
}
