// Package jsonpath reads values out of response bodies with JSONPath-style
// expressions such as "$.users[0].name".
package jsonpath

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at path in the JSON document as a string. Null
// values are returned as "null".
func Extract(doc string, path string) (string, error) {
	result, err := lookup(doc, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// Value returns the value at path decoded into maps, slices and scalars.
// Numbers are float64.
func Value(doc string, path string) (any, error) {
	result, err := lookup(doc, path)
	if err != nil {
		return nil, err
	}
	return result.Value(), nil
}

// ExtractBody is Extract over a decoded response body. Strings and byte
// slices are taken as JSON text, anything else is encoded first.
func ExtractBody(body any, path string) (string, error) {
	doc, err := Document(body)
	if err != nil {
		return "", err
	}
	return Extract(doc, path)
}

// ExtractMultiple extracts every named path. Values that could be read are
// returned even when others fail; the error names each failure.
func ExtractMultiple(doc string, paths map[string]string) (map[string]string, error) {
	if doc == "" {
		return nil, fmt.Errorf("empty JSON string")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var failures []string
	for _, name := range names {
		value, err := Extract(doc, paths[name])
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}
	if len(failures) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

// Document renders a decoded body as JSON text.
func Document(body any) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case []byte:
		return string(b), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	return string(data), nil
}

func lookup(doc, path string) (gjson.Result, error) {
	if doc == "" {
		return gjson.Result{}, fmt.Errorf("empty JSON string")
	}
	if path == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}
	result := gjson.Get(doc, toGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}
	return result, nil
}

// toGjsonPath converts "$.users[0]['first name']" into gjson's
// "users.0.first name". Only member and index access are supported.
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				b.WriteString(path[i:])
				return b.String()
			}
			key := strings.Trim(path[i+1:i+end], `'"`)
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(escapeKey(key))
			i += end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// escapeKey protects gjson path syntax characters inside a bracketed key.
func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
