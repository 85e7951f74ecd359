// Package client turns an API metadata document into a navigable client.
//
// Every method in the document has a dotted identifier such as
// "calendar.events.list". The first segment repeats the service name and is
// dropped; the remaining segments become a path in the client's namespace
// tree, and the last one holds a Helper bound to the method:
//
//	c, err := client.New(meta)
//	if err != nil {
//		log.Fatal(err)
//	}
//	list, ok := c.Helper("events.list")
//	if !ok {
//		log.Fatal("events.list is not declared")
//	}
//	req := list.Call(request.Params{"calendarId": "primary"})
//
// Calling a helper is the same as calling NewRequest with the helper's
// method identifier. NewRequest does not check the identifier against the
// document, so it can target methods the document does not list.
//
// # Namespace Rules
//
//   - Intermediate segments become containers, created on first use.
//   - A node may be both a container and a helper, so "svc.acl" and
//     "svc.acl.list" are both reachable.
//   - Identifiers with a single segment install nothing. They are listed by
//     Unreachable and stay usable through NewRequest.
//   - Methods are registered in lexical key order. When two identifiers map
//     to the same path the last one wins and a warning is logged, unless
//     WithStrictNamespace turns this into ErrNamespaceConflict.
//
// For static accessors, the codegen package generates typed wrappers over
// the same helpers.
//
// # Authentication
//
// WithAuthClient swaps the auth client and returns the client for chaining:
//
//	c.WithAuthClient(auth.APIKey(key))
//
// Each request captures the auth client active when it was built. The swap
// is a single atomic store; concurrent swaps are last-writer-wins.
//
// # Thread Safety
//
// Construction finishes inside New. Afterwards the namespace is read-only
// and helpers may be called from any goroutine.
package client
