package config

import (
	"sort"

	"github.com/wesleyorama2/lither/internal/config"
)

type (
	// Collection is a parsed collection file.
	Collection = config.Collection
	// Environment is a named target.
	Environment = config.Environment
	// Request is one call definition.
	Request = config.Request
	// Expect lists response checks.
	Expect = config.Expect
	// Suite is an ordered list of requests.
	Suite = config.Suite
	// ValidationError locates one problem in a collection.
	ValidationError = config.ValidationError
)

// Load reads a YAML (.yaml, .yml) or JSON collection file.
func Load(path string) (*Collection, error) {
	return config.LoadCollection(path)
}

// Parse decodes collection data in the given format, "json" or "yaml".
func Parse(data []byte, format string) (*Collection, error) {
	return config.ParseCollection(data, format)
}

// Validate returns every problem found in c.
func Validate(c *Collection) []ValidationError {
	return config.ValidateCollection(c)
}

// ProcessEnvironment replaces {{key}} references in input with values from env.
func ProcessEnvironment(input string, env map[string]string) string {
	return config.ProcessEnvironment(input, env)
}

// EnvironmentNames returns the sorted environment names of c.
func EnvironmentNames(c *Collection) []string {
	return sortedNames(c.Environments)
}

// RequestNames returns the sorted request names of c.
func RequestNames(c *Collection) []string {
	return sortedNames(c.Requests)
}

// SuiteNames returns the sorted suite names of c.
func SuiteNames(c *Collection) []string {
	return sortedNames(c.Suites)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
