package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

var (
	defaultFiltersOnce sync.Once

	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

func registerDefaultFilters() {
	defaultFiltersOnce.Do(func() {
		registerFilters(map[string]pongo2.FilterFunction{
			"json_encode": filterJSONEncode,
			"toyaml":      filterToYAML,
			"sanitize":    filterSanitize,
			"trim":        filterTrim,
			"lowerfirst":  filterLowerFirst,
		})
	})
}

// registerFilters adds filters to pongo2's process-wide registry, skipping any
// name that is already taken.
func registerFilters(filters map[string]pongo2.FilterFunction) {
	engineMu.Lock()
	defer engineMu.Unlock()

	for name, fn := range filters {
		if pongo2.FilterExists(name) {
			continue
		}
		_ = pongo2.RegisterFilter(name, fn)
	}
}

func filterJSONEncode(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var (
		out []byte
		err error
	)
	if param != nil && param.IsTrue() {
		out, err = json.MarshalIndent(in.Interface(), "", "  ")
	} else {
		out, err = json.Marshal(in.Interface())
	}
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:json_encode", OrigError: fmt.Errorf("encode value: %w", err)}
	}
	return pongo2.AsValue(string(out)), nil
}

func filterToYAML(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	out, err := yaml.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:toyaml", OrigError: fmt.Errorf("encode value: %w", err)}
	}
	return pongo2.AsValue(strings.TrimSuffix(string(out), "\n")), nil
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(htmlSanitizer().Sanitize(in.String())), nil
}

func htmlSanitizer() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterLowerFirst lowercases the first non-space rune and keeps the leading
// whitespace as is.
func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	text := in.String()
	body := strings.TrimLeft(text, " \t\n\r")
	if body == "" {
		return pongo2.AsValue(text), nil
	}
	r, size := utf8.DecodeRuneInString(body)
	lead := text[:len(text)-len(body)]
	return pongo2.AsValue(lead + string(unicode.ToLower(r)) + body[size:]), nil
}
