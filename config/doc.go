// Package config loads and validates lither collection files for use from
// Go programs.
//
// A collection defines:
//   - Environments: base URL, default headers, bearer token, timeout and variables
//   - Requests: URL templates with :name path parameters, query, headers, body,
//     extraction paths and response expectations
//   - Suites: ordered request lists sharing variables
//   - Schemas: named JSON Schemas referenced by expectations
//
// Basic Usage:
//
//	c, err := config.Load("collection.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := config.Validate(c); len(errs) > 0 {
//	    for _, err := range errs {
//	        log.Printf("Validation error: %s", err)
//	    }
//	}
//
// Variable Substitution:
//
// Variables defined on an environment or suite, or extracted from earlier
// responses, are referenced as {{name}} in URLs, params, headers, query
// values and bodies:
//
//	req := c.Requests["getUser"].Expand(c.Environments["dev"].Vars)
package config
