package cli

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/config"
	"github.com/wesleyorama2/lither/internal/output"
	"github.com/wesleyorama2/lither/pkg/jsonschema"
)

type runOptions struct {
	collection  string
	environment string
	request     string
	suite       string
}

func newRunCmd(a *app) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run requests or suites from a collection file",
		Long: `Run a single request (-r) or a suite (-s) from a YAML or JSON collection.
Values extracted from a response are available as {{name}} to the requests
that follow it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCollection(cmd, o)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&o.collection, "config", "c", "", "Collection file (required)")
	fl.StringVarP(&o.environment, "environment", "e", "", "Environment to use (required)")
	fl.StringVarP(&o.request, "request", "r", "", "Request to run")
	fl.StringVarP(&o.suite, "suite", "s", "", "Suite to run")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("environment")
	cmd.MarkFlagsOneRequired("request", "suite")
	cmd.MarkFlagsMutuallyExclusive("request", "suite")
	return cmd
}

// collectionRun holds the state shared by the requests of one run.
type collectionRun struct {
	*runner
	collection *config.Collection
	dir        string
	baseURL    string
	timeout    time.Duration
	vars       map[string]string
	banners    bool
}

func (a *app) runCollection(cmd *cobra.Command, o runOptions) error {
	s, err := a.settings()
	if err != nil {
		return err
	}

	c, err := config.LoadCollection(o.collection)
	if err != nil {
		return err
	}
	if errs := config.ValidateCollection(c); len(errs) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Collection validation errors:")
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", e.Error())
		}
		return fmt.Errorf("invalid collection %s", o.collection)
	}
	if err := config.ValidateEnvironment(c, o.environment); err != nil {
		return err
	}

	names := []string{o.request}
	env := c.Environments[o.environment]
	vars := config.MergeEnvironments(env.Vars, nil)
	if o.suite != "" {
		if err := config.ValidateSuite(c, o.suite); err != nil {
			return err
		}
		suite := c.Suites[o.suite]
		names = suite.Requests
		vars = config.MergeEnvironments(vars, config.ProcessEnvironmentInMap(suite.Vars, vars))
	} else if err := config.ValidateRequest(c, o.request); err != nil {
		return err
	}

	run := &collectionRun{
		collection: c,
		dir:        config.GetCollectionDir(o.collection),
		baseURL:    env.BaseURL,
		vars:       vars,
		banners:    s.Output == output.FormatText && len(names) > 1,
	}
	if run.timeout, err = config.ParseDuration(env.Timeout); err != nil {
		return err
	}
	if run.timeout == 0 {
		run.timeout = s.Timeout
	}

	if a.isSet("base-url") {
		run.baseURL = s.BaseURL
	}
	options := []lhttp.ClientOption{lhttp.WithBaseURL(run.baseURL), lhttp.WithRequestID("X-Request-Id")}
	if a.isSet("timeout") {
		options = append(options, lhttp.WithTimeout(s.Timeout))
	}
	for k, v := range env.Headers {
		options = append(options, lhttp.WithHeader(k, config.ProcessEnvironment(v, vars)))
	}
	token := env.Token
	if a.isSet("token") {
		token = s.Token
	}
	if token != "" {
		// extracted variables may feed the token, so it is expanded per call
		options = append(options, lhttp.WithAuth(func() lhttp.Credentials {
			return lhttp.Bearer(config.ProcessEnvironment(token, run.vars))
		}))
	}

	run.runner = &runner{
		client:    a.newClient(options...),
		formatter: a.formatter(s),
		out:       cmd.OutOrStdout(),
	}

	failed := 0
	for _, name := range names {
		if run.banners {
			fmt.Fprintf(run.out, "\n=== Executing request: %s ===\n\n", name)
		}
		if !a.runNamed(cmd, run, name) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(names))
	}
	return nil
}

// runNamed sends one collection request and applies its extraction and
// expectations. It reports whether the request passed.
func (a *app) runNamed(cmd *cobra.Command, run *collectionRun, name string) bool {
	req := run.collection.Requests[name].Expand(run.vars)
	cfg, err := collectionRequestConfig(req, run.timeout)
	if err != nil {
		fmt.Fprint(run.out, run.formatter.FormatError(fmt.Errorf("%s: %w", name, err)))
		return false
	}

	shown, _ := lhttp.BuildURL(req.URL, cfg.Params, cfg.Query, run.baseURL)
	run.printRequest(output.RequestView{Method: cfg.Method, URL: shown, Header: cfg.Header, Body: cfg.Body})

	resp := run.call(cmd.Context(), req.URL, cfg)
	run.report(resp)
	if resp.Err != nil {
		return false
	}

	if len(req.Extract) > 0 {
		values, err := extractValues(resp, req.Extract)
		if err != nil {
			a.logger.WithError(err).WithField("request", name).Warn("Variable extraction partial or failed")
		}
		for k, v := range values {
			run.vars[k] = v
		}
		run.printExtracted(values)
	}

	if req.Expect == nil {
		return resp.OK
	}
	checks := run.expectations(resp, req.Expect)
	run.printChecks(checks)
	if req.Expect.Status == 0 && !resp.OK {
		return false
	}
	return countFailed(checks) == 0
}

func (run *collectionRun) expectations(resp *lhttp.Response, expect *config.Expect) []output.Check {
	var checks []output.Check
	if expect.Status != 0 {
		checks = append(checks, statusCheck(resp, expect.Status))
	}
	if expect.Schema != "" {
		schema, err := run.schema(expect.Schema)
		if err != nil {
			checks = append(checks, output.Check{Name: "schema " + expect.Schema, Message: err.Error()})
		} else {
			checks = append(checks, schemaCheck(resp, expect.Schema, schema))
		}
	}
	for _, path := range sortedPaths(expect.Fields) {
		checks = append(checks, fieldCheck(resp, path, expect.Fields[path]))
	}
	return checks
}

// schema resolves a named collection schema, or a file relative to the
// collection.
func (run *collectionRun) schema(ref string) (*jsonschema.Schema, error) {
	if doc, ok := run.collection.Schemas[ref]; ok {
		return jsonschema.Compile(doc)
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(run.dir, path)
	}
	return jsonschema.CompileFile(path)
}

func collectionRequestConfig(req config.Request, fallback time.Duration) (lhttp.RequestConfig, error) {
	timeout, err := config.ParseDuration(req.Timeout)
	if err != nil {
		return lhttp.RequestConfig{}, err
	}
	if timeout == 0 {
		timeout = fallback
	}

	cfg := lhttp.RequestConfig{
		Method:       strings.ToUpper(req.Method),
		Query:        lhttp.Query(req.Query),
		Body:         req.Body,
		ResponseType: lhttp.ResponseType(req.ResponseType),
		Timeout:      timeout,
	}
	if len(req.Params) > 0 {
		cfg.Params = make(lhttp.Params, len(req.Params))
		for k, v := range req.Params {
			cfg.Params[k] = v
		}
	}
	if len(req.Headers) > 0 {
		cfg.Header = make(http.Header, len(req.Headers))
		for k, v := range req.Headers {
			cfg.Header.Set(k, v)
		}
	}
	return cfg, nil
}

func sortedPaths(fields map[string]any) []string {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
