// Package codegen turns an API document into statically typed Go wrappers
// around client.Client.
//
// Every namespace container becomes a struct with one accessor per child
// container and one method per helper, so a dynamic lookup such as
//
//	h, _ := c.Helper("events.list")
//	r := h.Call(params)
//
// becomes
//
//	r := calendar.New(c).Events().List(params)
//
// A path that is both a helper and a container (svc.acl next to
// svc.acl.list) gets a Call method on its namespace type. Single-segment
// method ids have no namespace path and are listed in the root type's
// comment instead.
//
// The output is formatted with go/format. cmd/generate-client wraps Generate
// for use with go:generate.
package codegen
