// Package bridge renders pongo2 templates on behalf of a foreign host.
//
// A call carries the template source, a JSON document used as the render
// context, an optional glob pattern and the autoescape settings. When the
// pattern is empty the source is rendered inline; otherwise every file matching
// the pattern is loaded into a fresh template set and the source is treated as
// the name of the template to render. Nothing is cached between calls.
//
// Failures are reported as *Error values tagged with one of ErrInvalidJSON,
// ErrTemplateLoad or ErrRender; FormatError flattens them into the diagnostic
// text handed back across the C boundary (see package cabi).
//
// Variables missing from the context render as empty text, as pongo2 has no
// strict mode; a template referencing an undefined name does not fail. Type
// errors such as attribute access on a string, failing filters and references
// to templates outside the loaded set do fail as ErrRender. The ssi tag is
// refused in both modes, so inline templates never touch the file system and
// path-mode templates only see the loaded set.
package bridge
