package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML accepted by -config. Flags given on the command line
// take precedence over it.
type fileConfig struct {
	TemplatePath string   `yaml:"template_path"`
	Autoescape   *bool    `yaml:"autoescape"`
	AutoescapeOn []string `yaml:"autoescape_on"`
	LogLevel     string   `yaml:"log_level"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// settings is the merged view of config file and flags.
type settings struct {
	template     string
	context      string
	templatePath string
	autoescape   bool
	autoescapeOn []string
	output       string
	logLevel     string
	list         bool
}

// merge applies cfg underneath s. set names the flags given explicitly.
func (s settings) merge(cfg fileConfig, set map[string]bool) settings {
	if !set["path"] && cfg.TemplatePath != "" {
		s.templatePath = cfg.TemplatePath
	}
	if !set["autoescape"] && cfg.Autoescape != nil {
		s.autoescape = *cfg.Autoescape
	}
	if !set["autoescape-on"] && len(cfg.AutoescapeOn) > 0 {
		s.autoescapeOn = append([]string(nil), cfg.AutoescapeOn...)
	}
	if !set["log-level"] && cfg.LogLevel != "" {
		s.logLevel = cfg.LogLevel
	}
	return s
}

func splitSuffixes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readContext resolves the -context value: literal JSON, @file, or @- for
// stdin.
func readContext(value string, stdin io.Reader) ([]byte, error) {
	name, ok := strings.CutPrefix(value, "@")
	if !ok {
		return []byte(value), nil
	}
	if name == "" {
		return nil, errors.New("context file name is empty")
	}
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read context from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	return data, nil
}
