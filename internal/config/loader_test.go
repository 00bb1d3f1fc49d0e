package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const collectionYAML = `
environments:
  dev:
    baseUrl: https://api-dev.example.com
    token: "{{token}}"
    timeout: 5s
    variables:
      userId: "1"
requests:
  getUser:
    url: /users/:id
    method: GET
    params:
      id: "{{userId}}"
    extract:
      email: $.email
    expect:
      status: 200
      schema: user
  createUser:
    url: /users
    method: POST
    body:
      name: "{{name}}"
      tags: ["{{tag}}", fixed]
suites:
  flow:
    requests: [createUser, getUser]
    variables:
      name: ada
schemas:
  user:
    type: object
`

func TestLoadCollection_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.yaml")
	if err := os.WriteFile(path, []byte(collectionYAML), 0o600); err != nil {
		t.Fatalf("write collection: %v", err)
	}

	c, err := LoadCollection(path)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}

	env := c.Environments["dev"]
	if env.BaseURL != "https://api-dev.example.com" || env.Timeout != "5s" {
		t.Errorf("unexpected environment %+v", env)
	}
	if env.Vars["userId"] != "1" {
		t.Errorf("expected userId variable, got %v", env.Vars)
	}

	get := c.Requests["getUser"]
	if get.Params["id"] != "{{userId}}" || get.Extract["email"] != "$.email" {
		t.Errorf("unexpected request %+v", get)
	}
	if get.Expect == nil || get.Expect.Status != 200 || get.Expect.Schema != "user" {
		t.Errorf("unexpected expectations %+v", get.Expect)
	}
	if got := c.Suites["flow"].Requests; !reflect.DeepEqual(got, []string{"createUser", "getUser"}) {
		t.Errorf("suite requests = %v", got)
	}
	if _, ok := c.Schemas["user"].(map[string]any); !ok {
		t.Errorf("expected user schema map, got %T", c.Schemas["user"])
	}
}

func TestLoadCollection_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.json")
	content := `{
		"environments": {"dev": {"baseUrl": "http://localhost"}},
		"requests": {"ping": {"url": "/ping", "method": "GET", "query": {"verbose": true}}}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write collection: %v", err)
	}

	c, err := LoadCollection(path)
	if err != nil {
		t.Fatalf("LoadCollection() error = %v", err)
	}
	if c.Requests["ping"].Query["verbose"] != true {
		t.Errorf("expected verbose query flag, got %v", c.Requests["ping"].Query)
	}
}

func TestLoadCollection_FileNotFound(t *testing.T) {
	if _, err := LoadCollection("/nonexistent/collection.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadCollection_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.json")
	if err := os.WriteFile(path, []byte(`{"environments": `), 0o600); err != nil {
		t.Fatalf("write collection: %v", err)
	}
	if _, err := LoadCollection(path); err == nil {
		t.Error("expected error for invalid JSON")
	}

	if _, err := ParseCollection([]byte("{}"), "toml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestProcessEnvironment(t *testing.T) {
	env := map[string]string{"host": "example.com", "id": "42"}

	tests := []struct {
		input, expected string
	}{
		{"https://{{host}}/users/{{id}}", "https://example.com/users/42"},
		{"{{missing}}", "{{missing}}"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := ProcessEnvironment(tt.input, env); got != tt.expected {
			t.Errorf("ProcessEnvironment(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestProcessEnvironmentInMap(t *testing.T) {
	if ProcessEnvironmentInMap(nil, nil) != nil {
		t.Error("expected nil for nil input")
	}
	got := ProcessEnvironmentInMap(map[string]string{"Authorization": "Bearer {{token}}"}, map[string]string{"token": "t"})
	if got["Authorization"] != "Bearer t" {
		t.Errorf("got %v", got)
	}
}

func TestRequestExpand(t *testing.T) {
	env := map[string]string{"userId": "7", "name": "ada", "tag": "admin"}
	req := Request{
		URL:     "/users/:id?src={{name}}",
		Params:  map[string]string{"id": "{{userId}}"},
		Headers: map[string]string{"X-User": "{{name}}"},
		Query:   map[string]any{"tag": "{{tag}}", "n": 1},
		Body:    map[string]any{"name": "{{name}}", "tags": []any{"{{tag}}", "fixed"}},
	}

	got := req.Expand(env)

	if got.URL != "/users/:id?src=ada" || got.Params["id"] != "7" || got.Headers["X-User"] != "ada" {
		t.Errorf("unexpected expansion %+v", got)
	}
	if got.Query["tag"] != "admin" || got.Query["n"] != 1 {
		t.Errorf("unexpected query %v", got.Query)
	}
	wantBody := map[string]any{"name": "ada", "tags": []any{"admin", "fixed"}}
	if !reflect.DeepEqual(got.Body, wantBody) {
		t.Errorf("body = %v, want %v", got.Body, wantBody)
	}
	if req.Params["id"] != "{{userId}}" {
		t.Error("Expand modified the original request")
	}
}

func TestMergeEnvironments(t *testing.T) {
	got := MergeEnvironments(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": "4"},
	)
	want := map[string]string{"a": "1", "b": "3", "c": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeEnvironments() = %v, want %v", got, want)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"30 seconds", 30 * time.Second, false},
		{"1 second", time.Second, false},
		{"2 minutes", 2 * time.Minute, false},
		{"1 hour", time.Hour, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetCollectionDir(t *testing.T) {
	if got := GetCollectionDir("/path/to/collection.yaml"); got != "/path/to" {
		t.Errorf("GetCollectionDir() = %q", got)
	}
}
