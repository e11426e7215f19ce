package bridge

import (
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Option configures a Renderer.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	files   fs.FS
	filters map[string]pongo2.FilterFunction
}

// WithLogger routes the renderer's debug output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithFS resolves path-mode patterns inside files instead of the operating
// system's file system. Patterns are then slash-separated and relative to the
// root of files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithFilters registers extra template filters. Filters are process-wide in
// pongo2, so a name that already exists is left untouched.
func WithFilters(filters map[string]pongo2.FilterFunction) Option {
	return func(cfg *config) {
		if len(filters) == 0 {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]pongo2.FilterFunction, len(filters))
		}
		for name, fn := range filters {
			name = strings.TrimSpace(name)
			if name == "" || fn == nil {
				continue
			}
			cfg.filters[name] = fn
		}
	}
}

func newConfig(options ...Option) *config {
	cfg := &config{logger: discardLogger()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
