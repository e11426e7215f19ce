package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flosch/pongo2/v6"
)

// templateSet is the per-call engine of a path-mode render: every template
// matching the pattern, parsed, keyed by its slash-separated name relative to
// the pattern's base directory.
type templateSet struct {
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	// unresolved holds templates that reference a template outside the set.
	// They only fail when they are rendered.
	unresolved map[string]error
	all        []string
}

func (ts *templateSet) names() []string {
	return append([]string(nil), ts.all...)
}

// lookup returns the parsed template called name, or the render error that
// was deferred for it at load time.
func (ts *templateSet) lookup(name string) (*pongo2.Template, error) {
	if tpl, ok := ts.templates[name]; ok {
		return tpl, nil
	}
	if err, ok := ts.unresolved[name]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("template '%s' not found", name)
}

// bannedTags are refused by every set. ssi reads straight from the operating
// system file system, around the loader.
var bannedTags = []string{"ssi"}

func newTemplateSet(name string, loader pongo2.TemplateLoader) *pongo2.TemplateSet {
	set := pongo2.NewSet(name, loader)
	for _, tag := range bannedTags {
		_ = set.BanTag(tag)
	}
	return set
}

// missingTemplate reports the name a parse failed to resolve through the
// loader. pongo2 tags those failures with the "fromfile" sender.
func missingTemplate(err error) (string, bool) {
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr.Sender == "fromfile" && perr.Filename != "" {
		return perr.Filename, true
	}
	return "", false
}

// resolveFailure rewrites a failed reference into the loader's message,
// keeping the engine error as its cause.
func resolveFailure(missing string, err error) error {
	return &notFoundError{name: missing, err: err}
}

type notFoundError struct {
	name string
	err  error
}

func (e *notFoundError) Error() string { return fmt.Sprintf("template '%s' not found", e.name) }
func (e *notFoundError) Unwrap() error { return e.err }

// sourceLoader serves templates from the sources read at load time, so
// includes and extends only see the loaded set.
type sourceLoader struct {
	sources map[string][]byte
}

var _ pongo2.TemplateLoader = (*sourceLoader)(nil)

// Abs resolves names against the set root; base is ignored.
func (l *sourceLoader) Abs(_, name string) string {
	return path.Clean("/" + filepath.ToSlash(name))[1:]
}

func (l *sourceLoader) Get(name string) (io.Reader, error) {
	src, ok := l.sources[name]
	if !ok {
		return nil, fmt.Errorf("template '%s' not found", name)
	}
	return bytes.NewReader(src), nil
}

// loadTemplateSet reads and parses every file matching pattern. When files is
// nil the pattern is an operating system path.
func loadTemplateSet(files fs.FS, pattern string) (*templateSet, error) {
	loader, names, err := readSources(files, pattern)
	if err != nil {
		return nil, err
	}

	ts := &templateSet{
		set:        newTemplateSet("tplbridge", loader),
		templates:  make(map[string]*pongo2.Template, len(names)),
		unresolved: map[string]error{},
		all:        names,
	}

	engineMu.RLock()
	defer engineMu.RUnlock()

	for _, name := range names {
		tpl, err := ts.set.FromFile(name)
		if err != nil {
			if missing, ok := missingTemplate(err); ok {
				ts.unresolved[name] = fmt.Errorf("failed to render %q: %w", name, resolveFailure(missing, err))
				continue
			}
			return nil, fmt.Errorf("failed to parse %q: %w", name, err)
		}
		ts.templates[name] = tpl
	}
	return ts, nil
}

// readSources globs pattern and reads every match. Names come back sorted.
func readSources(files fs.FS, pattern string) (*sourceLoader, []string, error) {
	fsys, glob, err := resolvePattern(files, pattern)
	if err != nil {
		return nil, nil, err
	}

	matches, err := doublestar.Glob(fsys, glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	loader := &sourceLoader{sources: make(map[string][]byte, len(matches))}
	for _, match := range matches {
		src, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, nil, fmt.Errorf("read template %q: %w", match, err)
		}
		loader.sources[match] = src
	}
	sort.Strings(matches)
	return loader, matches, nil
}

// resolvePattern splits pattern into the file system rooted at its static
// base directory and the glob to run inside it.
func resolvePattern(files fs.FS, pattern string) (fs.FS, string, error) {
	base, glob := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if glob == "" {
		return nil, "", fmt.Errorf("invalid template path pattern %q", pattern)
	}

	if files != nil {
		if base == "." {
			return files, glob, nil
		}
		sub, err := fs.Sub(files, base)
		if err != nil {
			return nil, "", fmt.Errorf("couldn't find the template directory %q: %w", base, err)
		}
		if err := checkDir(sub, "."); err != nil {
			return nil, "", fmt.Errorf("couldn't find the template directory %q: %w", base, err)
		}
		return sub, glob, nil
	}

	dir := filepath.FromSlash(base)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, "", fmt.Errorf("couldn't find the template directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("template directory %q is not a directory", dir)
	}
	return os.DirFS(dir), glob, nil
}

func checkDir(fsys fs.FS, name string) error {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}
