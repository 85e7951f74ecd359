package rest

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/request"
)

// buildURL resolves m.Path against base. Path template variables are
// consumed from params; everything else becomes a query parameter.
func buildURL(base string, meta *model.APIMetadata, m *model.MethodMetadata, params request.Params) (string, error) {
	for _, name := range m.RequiredParameters() {
		if v, ok := params[name]; !ok || v == nil {
			return "", fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
	}

	path, used, err := expandPath(m.Path, params)
	if err != nil {
		return "", err
	}

	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")

	query := url.Values{}
	for name, v := range params {
		if used[name] || v == nil {
			continue
		}
		if p, ok := meta.Parameter(m, name); ok && p.Location == model.LocationPath {
			continue
		}
		for _, s := range formatValues(v) {
			query.Add(name, s)
		}
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// expandPath performs RFC 6570 level 2 expansion of {var} and {+var}.
// Simple expansion escapes every reserved character; reserved expansion
// keeps slashes.
func expandPath(tmpl string, params request.Params) (string, map[string]bool, error) {
	used := make(map[string]bool)
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated template variable in %q", tmpl)
		}
		b.WriteString(tmpl[:open])
		name := tmpl[open+1 : open+end]
		reserved := strings.HasPrefix(name, "+")
		name = strings.TrimPrefix(name, "+")

		v, ok := params[name]
		if !ok || v == nil {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		used[name] = true
		value := strings.Join(formatValues(v), ",")
		if reserved {
			segs := strings.Split(value, "/")
			for i, s := range segs {
				segs[i] = url.PathEscape(s)
			}
			b.WriteString(strings.Join(segs, "/"))
		} else {
			b.WriteString(url.PathEscape(value))
		}
		tmpl = tmpl[open+end+1:]
	}
	return b.String(), used, nil
}

// formatValues renders a parameter value. Slices expand to one string per
// element so repeated parameters repeat in the query.
func formatValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case fmt.Stringer:
		return []string{t.String()}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, fmt.Sprint(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}
