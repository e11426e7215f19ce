package bridge

import (
	"errors"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Failure kinds. Every *Error unwraps to exactly one of these.
var (
	ErrInvalidJSON  = errors.New("invalid json")
	ErrTemplateLoad = errors.New("template load")
	ErrRender       = errors.New("render")
)

// Diagnostic prefixes. Hosts match on these, keep them stable.
const (
	invalidJSONPrefix  = "Invalid JSON: "
	templateLoadPrefix = "Template loading error: "
	renderPrefix       = "Tera render error: "
	causedByPrefix     = "Caused by: "
)

const maxCauseDepth = 32

// Error is a failed call. Kind is one of ErrInvalidJSON, ErrTemplateLoad or
// ErrRender and Err is the collaborator error that caused it.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Unwrap exposes both the kind sentinel and the underlying error to errors.Is
// and errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{e.Kind, e.Err}
}

func invalidJSON(err error) error  { return &Error{Kind: ErrInvalidJSON, Err: err} }
func templateLoad(err error) error { return &Error{Kind: ErrTemplateLoad, Err: err} }
func renderFailure(err error) error {
	return &Error{Kind: ErrRender, Err: err}
}

// FormatError flattens err into the diagnostic text returned to hosts.
//
// JSON and load failures produce a single prefixed line. Render failures
// start with the engine's top-level message and append one "Caused by:" line
// per nested cause, outermost first. Errors that did not come out of Render
// are formatted as render failures.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var bridgeErr *Error
	if errors.As(err, &bridgeErr) && bridgeErr.Err != nil {
		switch bridgeErr.Kind {
		case ErrInvalidJSON:
			return invalidJSONPrefix + bridgeErr.Err.Error()
		case ErrTemplateLoad:
			return templateLoadPrefix + bridgeErr.Err.Error()
		}
		err = bridgeErr.Err
	}

	chain := CauseChain(err)
	if len(chain) == 0 {
		return renderPrefix + "unknown error"
	}
	lines := make([]string, 0, len(chain))
	for i, msg := range chain {
		if i == 0 {
			lines = append(lines, renderPrefix+msg)
			continue
		}
		lines = append(lines, causedByPrefix+msg)
	}
	return strings.Join(lines, "\n")
}

// CauseChain lists the messages of err and its nested causes, outermost first.
// A cause whose message repeats the previous one is dropped. A pongo2 error
// contributes only its location header, since its cause follows on the next
// line.
func CauseChain(err error) []string {
	var out []string
	for depth := 0; err != nil && depth < maxCauseDepth; depth++ {
		if p2, ok := err.(*pongo2.Error); ok && p2.OrigError == nil {
			break
		}
		msg := causeMessage(err)
		if len(out) == 0 || out[len(out)-1] != msg {
			out = append(out, msg)
		}
		err = cause(err)
	}
	return out
}

func causeMessage(err error) string {
	msg := err.Error()
	if p2, ok := err.(*pongo2.Error); ok && p2.OrigError != nil {
		if header := strings.TrimSpace(strings.TrimSuffix(msg, p2.OrigError.Error())); header != "" && header != msg {
			return header
		}
	}
	return msg
}

func cause(err error) error {
	switch e := err.(type) {
	case *pongo2.Error:
		// pongo2 errors carry their cause without implementing Unwrap.
		return e.OrigError
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := e.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}
