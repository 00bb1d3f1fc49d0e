package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/output"
	"github.com/wesleyorama2/lither/internal/stats"
	"github.com/wesleyorama2/lither/pkg/jsonschema"
)

// requestFlags are the per-command flags of the verb commands.
type requestFlags struct {
	params       []string
	query        []string
	headers      []string
	data         string
	json         string
	form         []string
	responseType string
	repeat       int
	concurrency  int
	extract      []string
	schema       string
}

func newVerbCmd(a *app, method string) *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Long: fmt.Sprintf(`Make a %s request. URL may contain :name placeholders filled with -p,
and is joined to --base-url when it does not start with "http".`, method),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerb(cmd, method, args[0], &f)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.params, "param", "p", nil, "Path parameter as key=value (repeatable)")
	fl.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter as key=value; repeated keys become arrays")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "HTTP header as 'Key: Value' (repeatable)")
	fl.StringVarP(&f.responseType, "response-type", "", "", "Force body decoding: json, text, blob, arrayBuffer or formData")
	fl.IntVar(&f.repeat, "repeat", 1, "Number of times to send the request")
	fl.IntVar(&f.concurrency, "concurrency", 1, "Maximum requests in flight with --repeat")
	fl.StringArrayVar(&f.extract, "extract", nil, "Extract a value as name=$.path (repeatable)")
	fl.StringVar(&f.schema, "schema", "", "Validate the response body against a JSON Schema file")
	if method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions {
		fl.StringVarP(&f.data, "data", "d", "", "Raw request body")
		fl.StringVarP(&f.json, "json", "j", "", "JSON request body")
		fl.StringArrayVarP(&f.form, "form", "F", nil, "Form field as key=value or key=@file (repeatable)")
		cmd.MarkFlagsMutuallyExclusive("data", "json", "form")
	}
	return cmd
}

func (a *app) runVerb(cmd *cobra.Command, method, rawURL string, f *requestFlags) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	cfg, err := f.requestConfig(method)
	if err != nil {
		return err
	}

	var schema *jsonschema.Schema
	if f.schema != "" {
		if schema, err = jsonschema.CompileFile(f.schema); err != nil {
			return err
		}
	}
	extract, err := parseExtract(f.extract)
	if err != nil {
		return err
	}

	options := []lhttp.ClientOption{lhttp.WithBaseURL(s.BaseURL), lhttp.WithTimeout(s.Timeout)}
	if s.Token != "" {
		options = append(options, lhttp.WithAuth(lhttp.StaticAuth(lhttp.Bearer(s.Token))))
	}
	r := &runner{
		client:    a.newClient(options...),
		formatter: a.formatter(s),
		out:       cmd.OutOrStdout(),
	}

	target := normalizeURL(rawURL, s.BaseURL)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if f.repeat > 1 {
		return r.repeat(ctx, target, cfg, f.repeat, f.concurrency)
	}

	shown, _ := lhttp.BuildURL(target, cfg.Params, cfg.Query, s.BaseURL)
	r.printRequest(output.RequestView{Method: method, URL: shown, Header: cfg.Header, Body: cfg.Body})

	resp := r.call(ctx, target, cfg)
	r.report(resp)
	if !succeeded(resp) {
		return fmt.Errorf("%s %s failed", method, shown)
	}

	if len(extract) > 0 {
		values, err := extractValues(resp, extract)
		r.printExtracted(values)
		if err != nil {
			return err
		}
	}
	if schema != nil {
		check := schemaCheck(resp, filepath.Base(f.schema), schema)
		r.printChecks([]output.Check{check})
		if !check.Passed {
			return fmt.Errorf("response does not match schema %s", f.schema)
		}
	}
	return nil
}

// repeat sends the request n times with at most concurrency in flight and
// prints a latency summary.
func (r *runner) repeat(ctx context.Context, url string, cfg lhttp.RequestConfig, n, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	rec := stats.NewRecorder()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			resp := r.call(gctx, url, cfg)
			rec.Record(resp.Duration, succeeded(resp), resp.IsTimeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	summary := rec.Summary()
	fmt.Fprint(r.out, r.formatter.FormatSummary(summary))
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", summary.Failed, summary.Count)
	}
	return nil
}

// requestConfig turns the flags into a call configuration.
func (f *requestFlags) requestConfig(method string) (lhttp.RequestConfig, error) {
	cfg := lhttp.RequestConfig{
		Method:       method,
		ResponseType: lhttp.ResponseType(f.responseType),
	}

	params, err := parsePairs(f.params, "=")
	if err != nil {
		return cfg, fmt.Errorf("invalid path parameter: %w", err)
	}
	if len(params) > 0 {
		cfg.Params = make(lhttp.Params, len(params))
		for k, v := range params {
			cfg.Params[k] = v[len(v)-1]
		}
	}

	query, err := parsePairs(f.query, "=")
	if err != nil {
		return cfg, fmt.Errorf("invalid query parameter: %w", err)
	}
	cfg.Query = lhttp.QueryFromValues(url.Values(query))

	headers, err := parsePairs(f.headers, ":")
	if err != nil {
		return cfg, fmt.Errorf("invalid header: %w", err)
	}
	if len(headers) > 0 {
		cfg.Header = make(http.Header, len(headers))
		for k, vv := range headers {
			for _, v := range vv {
				cfg.Header.Add(k, v)
			}
		}
	}

	switch {
	case f.data != "":
		cfg.Body = f.data
	case f.json != "":
		var v any
		if err := json.Unmarshal([]byte(f.json), &v); err != nil {
			return cfg, fmt.Errorf("invalid JSON body: %w", err)
		}
		cfg.Body = v
	case len(f.form) > 0:
		form, err := parseForm(f.form)
		if err != nil {
			return cfg, err
		}
		cfg.Body = form
	}
	return cfg, nil
}

// parsePairs splits "key<sep>value" items, keeping repeated keys in order.
func parsePairs(items []string, sep string) (map[string][]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, sep)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%q is not in key%svalue form", item, sep)
		}
		out[key] = append(out[key], strings.TrimSpace(value))
	}
	return out, nil
}

func parseExtract(items []string) (map[string]string, error) {
	pairs, err := parsePairs(items, "=")
	if err != nil {
		return nil, fmt.Errorf("invalid extract: %w", err)
	}
	out := make(map[string]string, len(pairs))
	for name, paths := range pairs {
		out[name] = paths[len(paths)-1]
	}
	return out, nil
}

// parseForm builds multipart form data; a value starting with '@' names a
// file to upload.
func parseForm(items []string) (*lhttp.FormData, error) {
	form := lhttp.NewFormData()
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid form field %q", item)
		}
		if !strings.HasPrefix(value, "@") {
			form.Append(key, value)
			continue
		}
		path := value[1:]
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read form file: %w", err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		form.AppendFile(key, lhttp.FormFile{Filename: filepath.Base(path), ContentType: contentType, Data: data})
	}
	return form, nil
}

// normalizeURL adds a scheme to host-style URLs when no base URL applies.
func normalizeURL(raw, baseURL string) string {
	if baseURL != "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "/") {
		return raw
	}
	return "http://" + raw
}
