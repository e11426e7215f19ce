// Command tplbridge renders a template from the command line through the same
// pipeline the shared library uses.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("tplbridge", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var s settings
	var suffixes, configPath string
	flags.StringVar(&s.template, "template", "", "inline template source, or a template name with -path")
	flags.StringVar(&s.context, "context", "{}", "JSON context, @file to read it from a file, @- for stdin")
	flags.StringVar(&s.templatePath, "path", "", "glob selecting the template set (path mode)")
	flags.BoolVar(&s.autoescape, "autoescape", false, "escape output (inline) or enable suffix escaping (path mode)")
	flags.StringVar(&suffixes, "autoescape-on", "", "comma separated template name suffixes escaped in path mode")
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&s.output, "output", "", "output file (stdout if empty)")
	flags.StringVar(&s.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&s.list, "list", false, "list the templates selected by -path and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	s.autoescapeOn = splitSuffixes(suffixes)

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "tplbridge: %v\n", err)
		return 1
	}
	s = s.merge(cfg, set)

	logger, err := newLogger(stderr, s.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "tplbridge: %v\n", err)
		return 2
	}
	renderer := bridge.New(bridge.WithLogger(logger))

	if s.list {
		return list(renderer, s.templatePath, stdout, stderr)
	}

	if s.template == "" {
		if s.templatePath == "" || !interactive() {
			fmt.Fprintln(stderr, "tplbridge: -template is required")
			flags.Usage()
			return 2
		}
		names, err := renderer.LoadNames(s.templatePath)
		if err != nil {
			fmt.Fprintln(stderr, bridge.FormatError(err))
			return 1
		}
		if s.template, err = pickTemplate(s.templatePath, names); err != nil {
			fmt.Fprintf(stderr, "tplbridge: %v\n", err)
			return 1
		}
	}

	data, err := readContext(s.context, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "tplbridge: %v\n", err)
		return 1
	}

	res := renderer.RenderResult(bridge.Request{
		Source:       s.template,
		Context:      data,
		TemplatePath: s.templatePath,
		Autoescape:   s.autoescape,
		AutoescapeOn: s.autoescapeOn,
	})
	if !res.OK {
		fmt.Fprintln(stderr, res.Text)
		return 1
	}

	if s.output != "" {
		if err := atomic.WriteFile(s.output, strings.NewReader(res.Text)); err != nil {
			fmt.Fprintf(stderr, "tplbridge: write output: %v\n", err)
			return 1
		}
		logger.Info("output written", "path", s.output, "bytes", len(res.Text))
		return 0
	}
	fmt.Fprintln(stdout, res.Text)
	return 0
}

func list(renderer *bridge.Renderer, pattern string, stdout, stderr io.Writer) int {
	if pattern == "" {
		fmt.Fprintln(stderr, "tplbridge: -list needs -path")
		return 2
	}
	names, err := renderer.LoadNames(pattern)
	if err != nil {
		fmt.Fprintln(stderr, bridge.FormatError(err))
		return 1
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return 0
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
