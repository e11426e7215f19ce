package bridge

import (
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"
)

// Problem is a template that failed to parse.
type Problem struct {
	Name    string
	Message string
}

// Lint parses every template selected by pattern on its own and reports each
// one that fails, sorted by name. Unlike a render, one broken template does
// not hide the others, and references to templates outside the set are
// reported too. A pattern that cannot be loaded at all is returned as
// an ErrTemplateLoad error.
func (r *Renderer) Lint(pattern string) ([]Problem, error) {
	loader, names, err := readSources(r.files, pattern)
	if err != nil {
		return nil, templateLoad(err)
	}

	engineMu.RLock()
	defer engineMu.RUnlock()

	var problems []Problem
	for _, name := range names {
		set := newTemplateSet("tplbridge-lint", loader)
		if _, err := set.FromFile(name); err != nil {
			problems = append(problems, Problem{Name: name, Message: lintMessage(err)})
		}
	}
	r.logger.Debug("lint finished", "pattern", pattern, "templates", len(names), "problems", len(problems))
	return problems, nil
}

func lintMessage(err error) string {
	var perr *pongo2.Error
	if !errors.As(err, &perr) || perr.OrigError == nil {
		return err.Error()
	}
	msg := perr.OrigError.Error()
	if missing, ok := missingTemplate(err); ok {
		msg = resolveFailure(missing, err).Error()
	}
	if perr.Line > 0 {
		return fmt.Sprintf("line %d: %s", perr.Line, msg)
	}
	return msg
}
