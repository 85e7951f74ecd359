package client

import (
	"github.com/shamank/discovery-sdk-go/pkg/request"
)

// Helper is the callable installed for one method. It binds the method
// identifier to the client that owns it.
type Helper struct {
	client   *Client
	methodID string
}

func newHelper(c *Client, methodID string) Helper {
	return Helper{client: c, methodID: methodID}
}

// MethodID returns the identifier the helper was generated for.
func (h Helper) MethodID() string { return h.methodID }

// Call builds a request for the bound method. It is equivalent to
// client.NewRequest(h.MethodID(), params, resource...).
func (h Helper) Call(params request.Params, resource ...any) *request.Request {
	return h.client.NewRequest(h.methodID, params, resource...)
}
