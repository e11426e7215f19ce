package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

var errPickCancelled = errors.New("template selection cancelled")

// interactive reports whether a template may be picked with a prompt.
var interactive = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// pickTemplate prompts for one of names.
var pickTemplate = func(pattern string, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no templates match %s", pattern)
	}

	var out string
	prompt := &survey.Select{
		Message: "Template to render",
		Options: names,
		Help:    fmt.Sprintf("Templates loaded from %s", pattern),
	}
	if len(names) > 15 {
		prompt.PageSize = 15
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errPickCancelled
		}
		return "", err
	}
	return out, nil
}
