package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiteCollection = `
environments:
  dev:
    baseUrl: %s
    token: "{{token}}"
    headers:
      X-Client: lither
requests:
  login:
    url: /login
    method: POST
    body:
      user: "{{user}}"
    extract:
      token: $.token
      userId: $.id
  getUser:
    url: /users/:id
    method: GET
    params:
      id: "{{userId}}"
    expect:
      status: 200
      schema: user
      fields:
        $.name: ada
        $.id: 7
suites:
  flow:
    requests: [login, getUser]
    variables:
      user: ada
schemas:
  user:
    type: object
    required: [id, name]
`

func writeCollection(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunCommand_Suite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "lither", r.Header.Get("X-Client"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, map[string]any{"user": "ada"}, decodeJSON(t, r.Body))
		jsonHandler(200, `{"token":"abc","id":7}`)(w, r)
	})
	mux.HandleFunc("/users/7", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		jsonHandler(200, `{"id":7,"name":"ada"}`)(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	path := writeCollection(t, fmt.Sprintf(suiteCollection, srv.URL))
	out, err := execute(t, "run", "-c", path, "-e", "dev", "-s", "flow")
	require.NoError(t, err, out)

	for _, part := range []string{
		"=== Executing request: login ===",
		"=== Executing request: getUser ===",
		"token = abc",
		"userId = 7",
		"REQUEST: GET " + srv.URL + "/users/7",
		"✓ status 200",
		"✓ schema user",
		"✓ $.id == 7",
		"✓ $.name == ada",
	} {
		assert.Contains(t, out, part)
	}
}

func TestRunCommand_FailedExpectation(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{"name":"bob"}`))
	defer srv.Close()

	path := writeCollection(t, fmt.Sprintf(`
environments:
  dev:
    baseUrl: %s
requests:
  ping:
    url: /ping
    method: GET
    expect:
      status: 201
      fields:
        $.name: ada
`, srv.URL))

	out, err := execute(t, "run", "-c", path, "-e", "dev", "-r", "ping")
	require.Error(t, err)
	assert.Contains(t, out, "✗ status 201: got 200")
	assert.Contains(t, out, "✗ $.name == ada: got bob")
}

func TestRunCommand_ExpectedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(404, `{}`))
	defer srv.Close()

	path := writeCollection(t, fmt.Sprintf(`
environments:
  dev:
    baseUrl: %s
requests:
  missing:
    url: /nope
    method: GET
    expect:
      status: 404
`, srv.URL))

	out, err := execute(t, "run", "-c", path, "-e", "dev", "-r", "missing")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ status 404")
}

func TestRunCommand_SchemaFile(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{"id":1}`))
	defer srv.Close()

	path := writeCollection(t, fmt.Sprintf(`
environments:
  dev:
    baseUrl: %s
requests:
  get:
    url: /item
    method: GET
    expect:
      schema: item.schema.json
`, srv.URL))
	schema := filepath.Join(filepath.Dir(path), "item.schema.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{"required":["id"]}`), 0o600))

	out, err := execute(t, "run", "-c", path, "-e", "dev", "-r", "get")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ schema item.schema.json")
}

func TestRunCommand_BaseURLOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer srv.Close()

	path := writeCollection(t, `
environments:
  dev:
    baseUrl: http://127.0.0.1:1
requests:
  ping:
    url: /ping
    method: GET
`)

	out, err := execute(t, "run", "-c", path, "-e", "dev", "-r", "ping", "--base-url", srv.URL)
	require.NoError(t, err, out)
	assert.Contains(t, out, "pong")
}

func TestRunCommand_InvalidCollection(t *testing.T) {
	path := writeCollection(t, `
environments:
  dev:
    baseUrl: http://localhost
requests:
  bad:
    method: GET
`)

	out, err := execute(t, "run", "-c", path, "-e", "dev", "-r", "bad")
	require.Error(t, err)
	assert.Contains(t, out, "requests.bad.url: url is required")
}

func TestRunCommand_UnknownNames(t *testing.T) {
	path := writeCollection(t, `
environments:
  dev:
    baseUrl: http://localhost
requests:
  ping:
    url: /ping
    method: GET
`)

	_, err := execute(t, "run", "-c", path, "-e", "prod", "-r", "ping")
	assert.ErrorContains(t, err, "environment not found")

	_, err = execute(t, "run", "-c", path, "-e", "dev", "-r", "pong")
	assert.ErrorContains(t, err, "request not found")

	_, err = execute(t, "run", "-c", path, "-e", "dev")
	assert.Error(t, err)
}
