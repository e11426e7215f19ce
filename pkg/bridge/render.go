package bridge

import (
	"bytes"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// engineMu guards pongo2's process-wide state: the filter registry and the
// autoescape flag read when an execution starts. Parsing holds it for
// reading; filter registration and execution hold it exclusively.
var engineMu sync.RWMutex

// Request is one render call.
type Request struct {
	// Source is inline template content, or a template name in path mode.
	Source string
	// Context is a JSON document. Only a top-level object contributes
	// variables.
	Context []byte
	// TemplatePath is a glob pattern selecting the template set. Empty means
	// inline mode.
	TemplatePath string
	// Autoescape is the uniform escape flag in inline mode and the master
	// switch of the suffix policy in path mode.
	Autoescape bool
	// AutoescapeOn lists the template name suffixes escaped in path mode.
	AutoescapeOn []string
}

// Mode is the render mode chosen for a request.
type Mode int

const (
	ModeInline Mode = iota
	ModePath
)

func (m Mode) String() string {
	if m == ModePath {
		return "path"
	}
	return "inline"
}

// Mode reports which render mode the request selects.
func (r Request) Mode() Mode {
	if r.TemplatePath != "" {
		return ModePath
	}
	return ModeInline
}

// Renderer executes requests. It holds configuration only; every call builds
// its own engine, so a Renderer is safe for concurrent use.
type Renderer struct {
	logger *slog.Logger
	files  fs.FS
}

// New constructs a Renderer.
func New(options ...Option) *Renderer {
	cfg := newConfig(options...)
	registerDefaultFilters()
	if len(cfg.filters) > 0 {
		registerFilters(cfg.filters)
	}
	return &Renderer{
		logger: cfg.logger,
		files:  cfg.files,
	}
}

var (
	defaultRendererOnce sync.Once
	defaultRenderer     *Renderer
)

// Render executes req with a default Renderer.
func Render(req Request) (string, error) {
	defaultRendererOnce.Do(func() {
		defaultRenderer = New()
	})
	return defaultRenderer.Render(req)
}

// Render builds the context, selects the render mode and renders. The first
// failure ends the call: a JSON error never reaches the engine and a load
// error never attempts a render.
func (r *Renderer) Render(req Request) (string, error) {
	ctx, err := buildContext(req.Context, r.logger)
	if err != nil {
		return "", err
	}

	mode := req.Mode()
	r.logger.Debug("rendering template", "mode", mode.String(), "context_keys", len(ctx))

	if mode == ModeInline {
		return r.renderInline(req.Source, ctx, req.Autoescape)
	}
	return r.renderPath(req, ctx)
}

// LoadNames loads the template set selected by pattern and returns the
// template names it contains, sorted.
func (r *Renderer) LoadNames(pattern string) ([]string, error) {
	ts, err := loadTemplateSet(r.files, pattern)
	if err != nil {
		return nil, templateLoad(err)
	}
	return ts.names(), nil
}

func (r *Renderer) renderInline(source string, ctx pongo2.Context, escape bool) (string, error) {
	set := newTemplateSet("tplbridge-inline", &sourceLoader{})

	tpl, err := parseString(set, source)
	if err != nil {
		if missing, ok := missingTemplate(err); ok {
			return "", renderFailure(resolveFailure(missing, err))
		}
		return "", renderFailure(err)
	}
	return execute(tpl, ctx, escape)
}

func parseString(set *pongo2.TemplateSet, source string) (*pongo2.Template, error) {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return set.FromString(source)
}

func (r *Renderer) renderPath(req Request, ctx pongo2.Context) (string, error) {
	ts, err := loadTemplateSet(r.files, req.TemplatePath)
	if err != nil {
		return "", templateLoad(err)
	}

	policy := ResolveAutoescape(req.Autoescape, req.AutoescapeOn)
	escape := policy.Applies(req.Source)
	r.logger.Debug("template set loaded",
		"pattern", req.TemplatePath,
		"templates", len(ts.templates),
		"template", req.Source,
		"autoescape", escape,
	)

	tpl, err := ts.lookup(strings.TrimPrefix(req.Source, "/"))
	if err != nil {
		return "", renderFailure(err)
	}
	return execute(tpl, ctx, escape)
}

func execute(tpl *pongo2.Template, ctx pongo2.Context, escape bool) (string, error) {
	var buf bytes.Buffer
	if err := executeWriter(tpl, ctx, escape, &buf); err != nil {
		return "", renderFailure(err)
	}
	return buf.String(), nil
}

func executeWriter(tpl *pongo2.Template, ctx pongo2.Context, escape bool, w io.Writer) error {
	engineMu.Lock()
	defer engineMu.Unlock()

	pongo2.SetAutoescape(escape)
	return tpl.ExecuteWriter(ctx, w)
}
