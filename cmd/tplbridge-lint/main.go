// Command tplbridge-lint parses template sets and reports every template that
// fails, so a broken file is caught before a render hits it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

type violation struct {
	pattern  string
	template string
	message  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("tplbridge-lint", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [patterns...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flags.Output(), "\nParse every template matched by the glob patterns and report failures.\n")
	}
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	patterns := flags.Args()
	if len(patterns) == 0 {
		patterns = []string{filepath.Join("templates", "**", "*")}
	}

	renderer := bridge.New()

	var violations []violation
	for _, pattern := range patterns {
		problems, err := renderer.Lint(pattern)
		if err != nil {
			fmt.Fprintf(stderr, "lint %s: %s\n", pattern, bridge.FormatError(err))
			return 1
		}
		for _, p := range problems {
			violations = append(violations, violation{pattern: pattern, template: p.Name, message: p.Message})
		}
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].pattern == violations[j].pattern {
				return violations[i].template < violations[j].template
			}
			return violations[i].pattern < violations[j].pattern
		})
		for _, v := range violations {
			fmt.Fprintf(stderr, "%s: %s -> %s\n", v.pattern, v.template, v.message)
		}
		return 1
	}

	fmt.Fprintf(stdout, "%d pattern(s) clean\n", len(patterns))
	return 0
}
