package cli

import (
	"context"
	"fmt"
	"io"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/output"
	"github.com/wesleyorama2/lither/pkg/jsonpath"
	"github.com/wesleyorama2/lither/pkg/jsonschema"
)

// runner executes calls and writes what happened through a formatter.
type runner struct {
	client    *lhttp.Client
	formatter output.FormatProvider
	out       io.Writer
}

// call runs one request and always returns a response; failures before a
// response existed are carried in Err.
func (r *runner) call(ctx context.Context, url string, cfg lhttp.RequestConfig) *lhttp.Response {
	v, err := r.client.Call(ctx, url, cfg)
	if resp, ok := v.(*lhttp.Response); ok {
		return resp
	}
	if resp, ok := lhttp.AsResponse(err); ok {
		return resp
	}
	if err == nil {
		err = fmt.Errorf("unexpected call result %T", v)
	}
	return &lhttp.Response{Method: cfg.Method, URL: url, Err: err}
}

func (r *runner) printRequest(view output.RequestView) {
	fmt.Fprint(r.out, r.formatter.FormatRequest(view))
}

// report prints the response, or the error when the call produced none.
func (r *runner) report(resp *lhttp.Response) {
	if resp.Err != nil {
		fmt.Fprint(r.out, r.formatter.FormatError(resp.Err))
		return
	}
	fmt.Fprint(r.out, r.formatter.FormatResponse(resp))
}

func (r *runner) printExtracted(values map[string]string) {
	fmt.Fprint(r.out, r.formatter.FormatExtracted(values))
}

func (r *runner) printChecks(checks []output.Check) {
	if len(checks) > 0 {
		fmt.Fprint(r.out, r.formatter.FormatChecks(checks))
	}
}

func succeeded(resp *lhttp.Response) bool {
	return resp.Err == nil && resp.OK
}

func extractValues(resp *lhttp.Response, paths map[string]string) (map[string]string, error) {
	doc, err := jsonpath.Document(resp.Body)
	if err != nil {
		return nil, err
	}
	return jsonpath.ExtractMultiple(doc, paths)
}

func statusCheck(resp *lhttp.Response, want int) output.Check {
	c := output.Check{Name: fmt.Sprintf("status %d", want), Passed: resp.Status == want}
	if !c.Passed {
		c.Message = fmt.Sprintf("got %d", resp.Status)
	}
	return c
}

func schemaCheck(resp *lhttp.Response, name string, schema *jsonschema.Schema) output.Check {
	c := output.Check{Name: "schema " + name, Passed: true}
	if err := schema.Validate(resp.Body); err != nil {
		c.Passed = false
		c.Message = err.Error()
	}
	return c
}

// fieldCheck compares the value at path with want by their printed form, so
// a YAML integer matches a JSON number.
func fieldCheck(resp *lhttp.Response, path string, want any) output.Check {
	c := output.Check{Name: fmt.Sprintf("%s == %v", path, want)}
	doc, err := jsonpath.Document(resp.Body)
	if err != nil {
		c.Message = err.Error()
		return c
	}
	got, err := jsonpath.Value(doc, path)
	if err != nil {
		c.Message = err.Error()
		return c
	}
	c.Passed = fmt.Sprint(got) == fmt.Sprint(want)
	if !c.Passed {
		c.Message = fmt.Sprintf("got %v", got)
	}
	return c
}

func countFailed(checks []output.Check) int {
	n := 0
	for _, c := range checks {
		if !c.Passed {
			n++
		}
	}
	return n
}
