package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wesleyorama2/lither/http"
)

// ValidationError represents a collection validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

var validResponseTypes = map[string]bool{
	string(http.ResponseArrayBuffer): true,
	string(http.ResponseBlob):        true,
	string(http.ResponseFormData):    true,
	string(http.ResponseJSON):        true,
	string(http.ResponseText):        true,
}

// ValidateCollection checks a collection and returns every problem found,
// ordered by path.
func ValidateCollection(c *Collection) []ValidationError {
	var errs []ValidationError
	add := func(path, format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.Environments) == 0 {
		add("environments", "at least one environment is required")
	}
	for name, env := range c.Environments {
		if env.BaseURL == "" {
			add(fmt.Sprintf("environments.%s.baseUrl", name), "baseUrl is required")
		}
		if _, err := ParseDuration(env.Timeout); err != nil {
			add(fmt.Sprintf("environments.%s.timeout", name), "invalid duration: %s", env.Timeout)
		}
	}

	if len(c.Requests) == 0 {
		add("requests", "at least one request is required")
	}
	for name, req := range c.Requests {
		prefix := "requests." + name
		if req.URL == "" {
			add(prefix+".url", "url is required")
		}

		if req.Method == "" {
			add(prefix+".method", "method is required")
		} else if !validMethods[strings.ToUpper(req.Method)] {
			add(prefix+".method", "invalid method: %s", req.Method)
		}

		// placeholders may still be filled from variables at run time
		for _, key := range http.PathParamNames(req.URL) {
			if _, ok := req.Params[key]; !ok {
				add(prefix+".params", "missing value for path parameter %q", key)
			}
		}

		if req.ResponseType != "" && !validResponseTypes[req.ResponseType] {
			add(prefix+".responseType", "invalid response type: %s", req.ResponseType)
		}
		if _, err := ParseDuration(req.Timeout); err != nil {
			add(prefix+".timeout", "invalid duration: %s", req.Timeout)
		}

		for varName, path := range req.Extract {
			if path == "" {
				add(fmt.Sprintf("%s.extract.%s", prefix, varName), "extract path cannot be empty")
			}
		}

		if req.Expect != nil {
			if s := req.Expect.Status; s != 0 && (s < 100 || s > 599) {
				add(prefix+".expect.status", "invalid status code: %d", s)
			}
		}
	}

	for name, suite := range c.Suites {
		if len(suite.Requests) == 0 {
			add(fmt.Sprintf("suites.%s.requests", name), "at least one request is required")
		}
		for i, reqName := range suite.Requests {
			if _, ok := c.Requests[reqName]; !ok {
				add(fmt.Sprintf("suites.%s.requests[%d]", name, i), "request not found: %s", reqName)
			}
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
	return errs
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(c *Collection, envName string) error {
	if _, ok := c.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(c *Collection, reqName string) error {
	if _, ok := c.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

// ValidateSuite validates that a suite exists
func ValidateSuite(c *Collection, suiteName string) error {
	if _, ok := c.Suites[suiteName]; !ok {
		return fmt.Errorf("suite not found: %s", suiteName)
	}
	return nil
}
