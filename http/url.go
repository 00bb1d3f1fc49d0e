package http

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// pathParamPattern matches ":name" placeholders. Names exclude ':', '/' and
// digits, so a port such as ":8080" is never a placeholder.
var pathParamPattern = regexp.MustCompile(`:([^:/\d]+)/?`)

// PathParamNames returns the placeholder names of template in order of
// appearance. Names never include the leading colon or a trailing slash.
func PathParamNames(template string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// HasPathParams reports whether template contains at least one placeholder.
func HasPathParams(template string) bool {
	return pathParamPattern.MatchString(template)
}

// ResolvePath substitutes every placeholder of template with its value from
// params. Every placeholder is visited; when some have no truthy value the
// partially substituted path is returned together with an error naming all
// of them.
func ResolvePath(template string, params Params) (string, error) {
	idx := pathParamPattern.FindAllStringSubmatchIndex(template, -1)
	if len(idx) == 0 {
		return template, nil
	}

	var (
		b       strings.Builder
		missing []string
		last    int
	)
	for _, m := range idx {
		// m[0] is the colon, m[2]:m[3] the name
		name := template[m[2]:m[3]]
		b.WriteString(template[last:m[0]])
		v, ok := params[name]
		if ok && truthy(v) {
			b.WriteString(formatScalar(v))
		} else {
			missing = append(missing, name)
			b.WriteString(template[m[0]:m[3]])
		}
		last = m[3]
	}
	b.WriteString(template[last:])

	if len(missing) > 0 {
		return b.String(), &Error{
			Type:    ErrorTypeConfiguration,
			Message: "need url path params key: " + strings.Join(missing, ", "),
			Cause:   ErrMissingPathParam,
		}
	}
	return b.String(), nil
}

// EncodeQuery serializes q with standard query escaping. Slices emit one pair
// per element in order, nil values are omitted, keys are sorted.
func EncodeQuery(q Query) string {
	if len(q) == 0 {
		return ""
	}
	values := make(url.Values, len(q))
	for key, val := range q {
		if val == nil {
			continue
		}
		if items, ok := sliceItems(val); ok {
			for _, item := range items {
				values.Add(key, formatScalar(item))
			}
			continue
		}
		values.Add(key, formatScalar(val))
	}
	return values.Encode()
}

// AppendQuery appends the serialized query to u, after '?' when u has no
// query yet and after '&' otherwise.
func AppendQuery(u string, q Query) string {
	enc := EncodeQuery(q)
	if enc == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + enc
	}
	return u + "?" + enc
}

// JoinBaseURL prefixes u with base unless u already starts with "http" or
// base is empty. Exactly one slash separates the two.
func JoinBaseURL(base, u string) string {
	if base == "" || strings.HasPrefix(strings.TrimSpace(u), "http") {
		return u
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(u, "/")
}

// BuildURL resolves placeholders, appends the query and applies the base URL.
// On a missing path parameter the URL is still built, with the literal
// placeholder left in place, and the error is returned alongside it.
func BuildURL(template string, params Params, query Query, baseURL string) (string, error) {
	u, err := ResolvePath(template, params)
	u = AppendQuery(u, query)
	return JoinBaseURL(baseURL, u), err
}

// truthy reports whether v counts as present: nil, "", false, 0 and NaN
// are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case fmt.Stringer:
		return t.String() != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// formatScalar renders a path or query value. Floats use the shortest
// representation, so 42.0 renders as "42".
func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// sliceItems unpacks slice and array values, except byte slices which are
// scalars.
func sliceItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []byte:
		return nil, false
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
