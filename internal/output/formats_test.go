package output

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/stats"
)

func TestGetFormatter(t *testing.T) {
	assert.IsType(t, &Formatter{}, GetFormatter(FormatText, false, false))
	assert.IsType(t, &JSONFormatter{}, GetFormatter(FormatJSON, false, false))
	assert.IsType(t, &YAMLFormatter{}, GetFormatter(FormatYAML, false, false))
	assert.IsType(t, &Formatter{}, GetFormatter("unknown", false, false))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("junit")
	assert.Error(t, err)
}

func TestJSONFormatter_FormatResponse(t *testing.T) {
	f := &JSONFormatter{Verbose: true}
	resp := testResponse()
	resp.Body = `{"id":1}`

	var data ResponseData
	require.NoError(t, json.Unmarshal([]byte(f.FormatResponse(resp)), &data))

	assert.Equal(t, 200, data.StatusCode)
	assert.Equal(t, "200 OK", data.Status)
	assert.True(t, data.OK)
	assert.Equal(t, "application/json", data.Headers["Content-Type"])
	assert.Equal(t, map[string]any{"id": float64(1)}, data.Body)
	require.NotNil(t, data.Timing)
	assert.Equal(t, int64(5), data.Timing.DNSLookup)
	assert.Equal(t, int64(123), data.ResponseTime)

	f.Verbose = false
	var quiet ResponseData
	require.NoError(t, json.Unmarshal([]byte(f.FormatResponse(resp)), &quiet))
	assert.Nil(t, quiet.Timing)
}

func TestJSONFormatter_FormatRequest(t *testing.T) {
	f := &JSONFormatter{}
	out := f.FormatRequest(RequestView{
		Method: "POST",
		URL:    "https://api.example.com/users",
		Header: http.Header{"Accept": {"a", "b"}},
		Body:   `{"name":"x"}`,
	})

	var data RequestData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "POST", data.Method)
	assert.Equal(t, "a, b", data.Headers["Accept"])
	assert.Equal(t, map[string]any{"name": "x"}, data.Body)
	assert.NotEmpty(t, data.Timestamp)
}

func TestJSONFormatter_FormatError(t *testing.T) {
	f := &JSONFormatter{}
	err := &lhttp.Error{Type: lhttp.ErrorTypeConfiguration, Message: "need url path params key: id", Cause: lhttp.ErrMissingPathParam}

	var data ErrorData
	require.NoError(t, json.Unmarshal([]byte(f.FormatError(err)), &data))
	assert.Equal(t, "configuration", data.Type)
	assert.False(t, data.Timeout)
	assert.Contains(t, data.Error, "need url path params key: id")

	require.NoError(t, json.Unmarshal([]byte(f.FormatError(errors.New("plain"))), &data))
	assert.Equal(t, "plain", data.Error)
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}

	out := f.FormatResponse(testResponse())
	assert.Contains(t, out, "---\n")
	var data ResponseData
	require.NoError(t, yaml.Unmarshal([]byte(out), &data))
	assert.Equal(t, 200, data.StatusCode)
	assert.Equal(t, "John Doe", data.Body.(map[string]any)["name"])

	out = f.FormatSummary(stats.Summary{Count: 2, Success: 1, Failed: 1})
	var doc struct {
		Summary SummaryData `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, int64(2), doc.Summary.Count)
	assert.InDelta(t, 0.5, doc.Summary.ErrorRate, 1e-9)

	assert.Empty(t, f.FormatExtracted(nil))
	assert.Contains(t, f.FormatExtracted(map[string]string{"id": "7"}), "id: \"7\"")
	assert.Contains(t, f.FormatChecks([]Check{{Name: "status", Passed: true}}), "passed: true")
}

func TestStructuredBody(t *testing.T) {
	assert.Nil(t, structuredBody(nil))
	assert.Nil(t, structuredBody(""))
	assert.Equal(t, "plain text", structuredBody("plain text"))
	assert.Equal(t, []any{float64(1)}, structuredBody([]byte("[1]")))
	assert.Equal(t, "bin", structuredBody(&lhttp.Blob{Data: []byte("bin")}))
	assert.Equal(t, 5, structuredBody(5))
}
