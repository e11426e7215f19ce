package testsupport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// RenderCase is one entry of a YAML render fixture. A case either expects a
// successful render equal to Want, or a failure whose text starts with
// WantPrefix. WantContains is checked in both cases.
type RenderCase struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Context      string   `yaml:"context"`
	TemplatePath string   `yaml:"template_path"`
	Autoescape   bool     `yaml:"autoescape"`
	AutoescapeOn []string `yaml:"autoescape_on"`
	OK           bool     `yaml:"ok"`
	Want         string   `yaml:"want"`
	WantPrefix   string   `yaml:"want_prefix"`
	WantContains []string `yaml:"want_contains"`
}

// Check compares an observed outcome with the case and describes the first
// mismatch. An empty string means the outcome matches.
func (c RenderCase) Check(ok bool, text string) string {
	if ok != c.OK {
		return fmt.Sprintf("ok mismatch: want %v, got %v (%q)", c.OK, ok, text)
	}
	if c.OK && c.WantPrefix == "" {
		if diff := cmp.Diff(c.Want, text); diff != "" {
			return fmt.Sprintf("output mismatch (-want +got):\n%s", diff)
		}
	}
	if c.WantPrefix != "" && !strings.HasPrefix(text, c.WantPrefix) {
		return fmt.Sprintf("expected prefix %q in %q", c.WantPrefix, text)
	}
	for _, fragment := range c.WantContains {
		if !strings.Contains(text, fragment) {
			return fmt.Sprintf("expected %q in %q", fragment, text)
		}
	}
	return ""
}

// LoadRenderCases reads a YAML list of render cases, returning an error for
// callers managing setup outside of *testing.T.
func LoadRenderCases(path string) ([]RenderCase, error) {
	if path == "" {
		return nil, errors.New("testsupport: render cases path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read render cases: %w", err)
	}
	var out []RenderCase
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal render cases: %w", err)
	}
	for i, c := range out {
		if c.Name == "" {
			return nil, fmt.Errorf("testsupport: render case %d has no name", i)
		}
	}
	return out, nil
}

// MustLoadRenderCases loads a YAML render fixture or fails the test.
func MustLoadRenderCases(t *testing.T, path string) []RenderCase {
	t.Helper()

	cases, err := LoadRenderCases(path)
	if err != nil {
		t.Fatalf("load render cases: %v", err)
	}
	return cases
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
