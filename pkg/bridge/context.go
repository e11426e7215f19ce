package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/flosch/pongo2/v6"
)

// identifierPattern mirrors the key check pongo2 applies before executing a
// template; keys failing it would abort the whole render.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// BuildContext parses data as JSON and turns the entries of a top-level object
// into a render context. Any other root shape yields an empty context. Parse
// failures, including trailing data after the document, are ErrInvalidJSON.
func BuildContext(data []byte) (pongo2.Context, error) {
	return buildContext(data, discardLogger())
}

func buildContext(data []byte, logger *slog.Logger) (pongo2.Context, error) {
	decoded, err := decodeJSON(data)
	if err != nil {
		return nil, invalidJSON(err)
	}
	root, err := convertValue(decoded)
	if err != nil {
		return nil, invalidJSON(err)
	}

	ctx := pongo2.Context{}
	obj, ok := root.(map[string]any)
	if !ok {
		logger.Debug("json context root is not an object, using empty context",
			"kind", jsonKind(root))
		return ctx, nil
	}

	for key, value := range obj {
		if !identifierPattern.MatchString(key) {
			logger.Debug("skipping context key that is not a template identifier", "key", key)
			continue
		}
		ctx[key] = value
	}
	return ctx, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("trailing data after JSON value at offset %d", dec.InputOffset())
	}
	return root, nil
}

func convertValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	case json.Number:
		return convertNumber(v)
	default:
		return v, nil
	}
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// convertNumber keeps integral numbers integral so they render as "3" rather
// than the engine's "3.000000". Numbers beyond float64 are rejected.
func convertNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s out of range", n.String())
	}
	return f, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
