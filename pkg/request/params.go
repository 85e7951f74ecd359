package request

import (
	"fmt"

	"github.com/gorilla/schema"
)

// Params holds call parameters keyed by the names used in the method
// metadata. Values may be scalars or slices for repeated parameters.
type Params map[string]any

var encoder = func() *schema.Encoder {
	e := schema.NewEncoder()
	e.SetAliasTag("schema")
	return e
}()

// ParamsFromStruct converts a tagged struct (`schema:"calendarId"`) into
// Params. Single values are stored as strings and repeated ones as []string.
func ParamsFromStruct(v any) (Params, error) {
	values := map[string][]string{}
	if err := encoder.Encode(v, values); err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	p := make(Params, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			p[k] = vs[0]
		} else {
			p[k] = vs
		}
	}
	return p, nil
}

// Merge returns a new Params with the entries of other layered over p.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
