package request

import (
	"encoding/json"
	"net/http"
)

// Response is the transport-neutral result of an executed request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals a JSON body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}
