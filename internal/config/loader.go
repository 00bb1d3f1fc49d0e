// Package config loads request collections: named environments, request
// definitions and suites, from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Collection represents the top-level collection file
type Collection struct {
	Environments map[string]Environment `json:"environments" yaml:"environments"`
	Requests     map[string]Request     `json:"requests" yaml:"requests"`
	Suites       map[string]Suite       `json:"suites,omitempty" yaml:"suites,omitempty"`
	Schemas      map[string]any         `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `json:"baseUrl" yaml:"baseUrl"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Token   string            `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Request represents one call. URL may hold :name placeholders filled from
// Params.
type Request struct {
	URL          string            `json:"url" yaml:"url"`
	Method       string            `json:"method" yaml:"method"`
	Params       map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query        map[string]any    `json:"query,omitempty" yaml:"query,omitempty"`
	Body         any               `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseType string            `json:"responseType,omitempty" yaml:"responseType,omitempty"`
	Timeout      string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extract      map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`
	Expect       *Expect           `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Expect lists checks applied to a response.
type Expect struct {
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
	// Schema names an entry of Collection.Schemas or a schema file path
	// relative to the collection.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Fields maps JSONPath expressions to expected values.
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Suite represents an ordered list of requests sharing variables
type Suite struct {
	Requests []string          `json:"requests" yaml:"requests"`
	Vars     map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// LoadCollection reads a collection file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadCollection(path string) (*Collection, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("collection file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading collection file: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	c, err := ParseCollection(data, format)
	if err != nil {
		return nil, fmt.Errorf("error parsing collection file: %w", err)
	}
	return c, nil
}

// ParseCollection decodes a collection in the given format ("json" or "yaml").
func ParseCollection(data []byte, format string) (*Collection, error) {
	var c Collection
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	case "json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported collection format %q", format)
	}
	return &c, nil
}

// ProcessEnvironment replaces {{key}} references in input with values from env
func ProcessEnvironment(input string, env map[string]string) string {
	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap processes environment variables in a map
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// ProcessValue substitutes variables in every string of a decoded value,
// descending into maps and slices.
func ProcessValue(v any, env map[string]string) any {
	switch t := v.(type) {
	case string:
		return ProcessEnvironment(t, env)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ProcessValue(item, env)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ProcessValue(item, env)
		}
		return out
	}
	return v
}

// Expand returns a copy of r with variables substituted in its URL, params,
// headers, query and body.
func (r Request) Expand(env map[string]string) Request {
	out := r
	out.URL = ProcessEnvironment(r.URL, env)
	out.Params = ProcessEnvironmentInMap(r.Params, env)
	out.Headers = ProcessEnvironmentInMap(r.Headers, env)
	if r.Query != nil {
		out.Query = ProcessValue(r.Query, env).(map[string]any)
	}
	out.Body = ProcessValue(r.Body, env)
	return out
}

// MergeEnvironments merges two environments, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}

// ParseDuration parses Go durations and spelled-out forms like "30 seconds".
// An empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	s = strings.ReplaceAll(strings.ToLower(s), " ", "")
	// longer words first so "seconds" is not left as "s" + "s"
	r := strings.NewReplacer(
		"seconds", "s", "second", "s",
		"minutes", "m", "minute", "m",
		"hours", "h", "hour", "h",
	)
	return time.ParseDuration(r.Replace(s))
}

// GetCollectionDir returns the directory containing the collection file
func GetCollectionDir(path string) string {
	return filepath.Dir(path)
}
