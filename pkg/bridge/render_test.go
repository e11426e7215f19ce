package bridge_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplbridge/pkg/bridge"
)

var templatesGlob = filepath.Join("testdata", "templates", "**", "*")

func TestRenderInlineSubstitutes(t *testing.T) {
	out, err := bridge.Render(bridge.Request{
		Source:  "Hello, {{ name }}!",
		Context: []byte(`{"name": "World"}`),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello, World!" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderInlineEscapeFlag(t *testing.T) {
	ctx := []byte(`{"body": "<b>Tom & Jerry</b>"}`)

	raw, err := bridge.Render(bridge.Request{Source: "{{ body }}", Context: ctx})
	if err != nil {
		t.Fatalf("render unescaped: %v", err)
	}
	if raw != "<b>Tom & Jerry</b>" {
		t.Fatalf("unexpected unescaped output %q", raw)
	}

	escaped, err := bridge.Render(bridge.Request{Source: "{{ body }}", Context: ctx, Autoescape: true})
	if err != nil {
		t.Fatalf("render escaped: %v", err)
	}
	if escaped != "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;" {
		t.Fatalf("unexpected escaped output %q", escaped)
	}
}

func TestRenderInlineIgnoresSuffixes(t *testing.T) {
	out, err := bridge.Render(bridge.Request{
		Source:       "{{ body }}",
		Context:      []byte(`{"body": "<i>"}`),
		Autoescape:   false,
		AutoescapeOn: []string{""},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<i>" {
		t.Fatalf("inline mode must only honour the uniform flag, got %q", out)
	}
}

func TestRenderNonObjectContextIsEmpty(t *testing.T) {
	for _, doc := range []string{`[1,2,3]`, `"x"`, `null`} {
		t.Run(doc, func(t *testing.T) {
			out, err := bridge.Render(bridge.Request{Source: "[{{ name }}]", Context: []byte(doc)})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if out != "[]" {
				t.Fatalf("undefined variables render empty, got %q", out)
			}
		})
	}
}

func TestRenderInvalidJSONNeverRenders(t *testing.T) {
	// The template would fail to parse; seeing a JSON error proves the
	// engine was never reached.
	res := bridge.New().RenderResult(bridge.Request{
		Source:  "Hello, {% frobnicate %}",
		Context: []byte("not valid json"),
	})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.HasPrefix(res.Text, "Invalid JSON:") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
}

func TestRenderErrorCarriesCauses(t *testing.T) {
	res := bridge.New().RenderResult(bridge.Request{
		Source:  "Hello, {{ name.first }}!",
		Context: []byte(`{"name": "World"}`),
	})
	if res.OK {
		t.Fatalf("expected failure, got %q", res.Text)
	}
	if !strings.HasPrefix(res.Text, "Tera render error:") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
	if !strings.Contains(res.Text, "\nCaused by: ") {
		t.Fatalf("expected a cause line in %q", res.Text)
	}
}

func TestRenderInlineSyntaxErrorIsRenderError(t *testing.T) {
	_, err := bridge.Render(bridge.Request{Source: "{% frobnicate %}", Context: []byte(`{}`)})
	if !errors.Is(err, bridge.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
}

func TestRenderPathEscapingBySuffix(t *testing.T) {
	ctx := []byte(`{"body": "<b>Tom & Jerry</b>"}`)

	cases := []struct {
		name       string
		template   string
		autoescape bool
		suffixes   []string
		want       string
	}{
		{name: "html escaped", template: "page.html", autoescape: true, suffixes: []string{"html"},
			want: "<p>&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;</p>"},
		{name: "txt untouched", template: "page.txt", autoescape: true, suffixes: []string{"html"},
			want: "<b>Tom & Jerry</b>"},
		{name: "disabled", template: "page.html", autoescape: false, suffixes: []string{"html"},
			want: "<p><b>Tom & Jerry</b></p>"},
		{name: "no suffixes", template: "page.html", autoescape: true, suffixes: nil,
			want: "<p><b>Tom & Jerry</b></p>"},
	}

	renderer := bridge.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := renderer.Render(bridge.Request{
				Source:       tc.template,
				Context:      ctx,
				TemplatePath: templatesGlob,
				Autoescape:   tc.autoescape,
				AutoescapeOn: tc.suffixes,
			})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if out != tc.want {
				t.Fatalf("output mismatch\nwant: %q\n got: %q", tc.want, out)
			}
		})
	}
}

func TestRenderPathCrossTemplateReferences(t *testing.T) {
	renderer := bridge.New()
	ctx := []byte(`{"name": "Ada"}`)

	cases := map[string]string{
		"child.html":             "<html>Hi Ada</html>",
		"with_include.html":      "[Hello, Ada!]",
		"partials/greeting.html": "Hello, Ada!",
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := renderer.Render(bridge.Request{Source: name, Context: ctx, TemplatePath: templatesGlob})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if out != want {
				t.Fatalf("output mismatch\nwant: %q\n got: %q", want, out)
			}
		})
	}
}

func TestRenderPathMissingDirectory(t *testing.T) {
	res := bridge.New().RenderResult(bridge.Request{
		Source:       "page.html",
		Context:      []byte(`{}`),
		TemplatePath: filepath.Join("testdata", "does-not-exist", "*.html"),
	})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.HasPrefix(res.Text, "Template loading error:") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
}

func TestRenderPathParseErrorIsLoadError(t *testing.T) {
	_, err := bridge.Render(bridge.Request{
		Source:       "good.html",
		Context:      []byte(`{}`),
		TemplatePath: filepath.Join("testdata", "broken", "*.html"),
	})
	if !errors.Is(err, bridge.ErrTemplateLoad) {
		t.Fatalf("expected ErrTemplateLoad, got %v", err)
	}
}

func TestRenderPathUnknownTemplate(t *testing.T) {
	res := bridge.New().RenderResult(bridge.Request{
		Source:       "nope.html",
		Context:      []byte(`{}`),
		TemplatePath: templatesGlob,
	})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.HasPrefix(res.Text, "Tera render error:") || !strings.Contains(res.Text, "nope.html") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
}

func TestRenderPathFromFS(t *testing.T) {
	files := fstest.MapFS{
		"site/layout.html":   {Data: []byte("<main>{% block body %}{% endblock %}</main>")},
		"site/index.html":    {Data: []byte(`{% extends "layout.html" %}{% block body %}{{ title }}{% endblock %}`)},
		"site/robots.txt":    {Data: []byte("ignored")},
		"elsewhere/x.html":   {Data: []byte("not loaded")},
		"site/nested/a.html": {Data: []byte("deep")},
	}
	renderer := bridge.New(bridge.WithFS(files))

	out, err := renderer.Render(bridge.Request{
		Source:       "index.html",
		Context:      []byte(`{"title": "<Home>"}`),
		TemplatePath: "site/*.html",
		Autoescape:   true,
		AutoescapeOn: []string{".html"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<main>&lt;Home&gt;</main>" {
		t.Fatalf("unexpected output %q", out)
	}

	names, err := renderer.LoadNames("site/**/*.html")
	if err != nil {
		t.Fatalf("load names: %v", err)
	}
	if diff := cmp.Diff([]string{"index.html", "layout.html", "nested/a.html"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if _, err := renderer.LoadNames("missing/*.html"); !errors.Is(err, bridge.ErrTemplateLoad) {
		t.Fatalf("expected ErrTemplateLoad for missing base, got %v", err)
	}
}

func TestRenderEmptyPathIsInline(t *testing.T) {
	out, err := bridge.Render(bridge.Request{
		Source:       "{{ 1 }}+{{ n }}",
		Context:      []byte(`{"n": 2}`),
		TemplatePath: "",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "1+2" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderConcurrentEscapeModes(t *testing.T) {
	renderer := bridge.New()
	ctx := []byte(`{"body": "<b>"}`)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		escape := i%2 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := renderer.Render(bridge.Request{Source: "{{ body }}", Context: ctx, Autoescape: escape})
			if err != nil {
				errs <- err
				return
			}
			want := "<b>"
			if escape {
				want = "&lt;b&gt;"
			}
			if out != want {
				errs <- fmt.Errorf("escape=%v: got %q want %q", escape, out, want)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRenderInlineRefusesSSI(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(secret, []byte("SECRET"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	res := bridge.New().RenderResult(bridge.Request{
		Source:  fmt.Sprintf("[{%% ssi %q %%}]", secret),
		Context: []byte(`{}`),
	})
	if res.OK {
		t.Fatalf("inline templates must not read files, got %q", res.Text)
	}
	if !strings.HasPrefix(res.Text, "Tera render error:") || !strings.Contains(res.Text, "not allowed") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
	if strings.Contains(res.Text, "SECRET") {
		t.Fatalf("diagnostic leaked file contents: %q", res.Text)
	}
}

func TestRenderPathRefusesSSI(t *testing.T) {
	files := fstest.MapFS{
		"site/a.html": {Data: []byte(`[{% ssi "render_test.go" %}]`)},
	}
	res := bridge.New(bridge.WithFS(files)).RenderResult(bridge.Request{
		Source:       "a.html",
		Context:      []byte(`{}`),
		TemplatePath: "site/*.html",
	})
	if res.OK {
		t.Fatalf("ssi must not bypass the loaded set, got %q", res.Text)
	}
	if !strings.HasPrefix(res.Text, "Template loading error:") || !strings.Contains(res.Text, "not allowed") {
		t.Fatalf("unexpected diagnostic %q", res.Text)
	}
}

func TestRenderInlineMissingInclude(t *testing.T) {
	_, err := bridge.Render(bridge.Request{Source: `[{% include "nope.html" %}]`, Context: []byte(`{}`)})
	if !errors.Is(err, bridge.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if msg := bridge.FormatError(err); !strings.HasPrefix(msg, "Tera render error: template 'nope.html' not found") {
		t.Fatalf("unexpected diagnostic %q", msg)
	}
}

func TestRenderPathMissingIncludeFailsOnlyItsTemplate(t *testing.T) {
	files := fstest.MapFS{
		"site/a.html": {Data: []byte(`A{% include "missing.html" %}`)},
		"site/b.html": {Data: []byte("B")},
		"site/c.html": {Data: []byte(`{% extends "a.html" %}`)},
	}
	renderer := bridge.New(bridge.WithFS(files))
	render := func(name string) bridge.Result {
		return renderer.RenderResult(bridge.Request{Source: name, Context: []byte(`{}`), TemplatePath: "site/*.html"})
	}

	if res := render("b.html"); !res.OK || res.Text != "B" {
		t.Fatalf("sibling template must render, got %+v", res)
	}

	for _, name := range []string{"a.html", "c.html"} {
		res := render(name)
		if res.OK {
			t.Fatalf("%s: expected failure, got %q", name, res.Text)
		}
		if !strings.HasPrefix(res.Text, "Tera render error:") {
			t.Fatalf("%s: unexpected diagnostic %q", name, res.Text)
		}
		if !strings.Contains(res.Text, "template 'missing.html' not found") || !strings.Contains(res.Text, "\nCaused by: ") {
			t.Fatalf("%s: expected the missing name and causes in %q", name, res.Text)
		}
	}

	names, err := renderer.LoadNames("site/*.html")
	if err != nil {
		t.Fatalf("load names: %v", err)
	}
	if diff := cmp.Diff([]string{"a.html", "b.html", "c.html"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderErrorCauseIsNotRepeated(t *testing.T) {
	res := bridge.New().RenderResult(bridge.Request{
		Source:  "{{ name.first }}",
		Context: []byte(`{"name": "World"}`),
	})
	lines := strings.Split(res.Text, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a cause line, got %q", res.Text)
	}
	cause := strings.TrimPrefix(lines[1], "Caused by: ")
	if strings.HasSuffix(lines[0], cause) {
		t.Fatalf("first line repeats its cause: %q", res.Text)
	}
}
