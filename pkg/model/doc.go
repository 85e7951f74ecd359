// Package model defines the data structures describing an API surface.
//
// A metadata document enumerates the methods of one remote service. Each
// method carries a dotted identifier such as "calendar.events.list"; the first
// segment names the service itself and the rest become the path under which
// the client installs a helper.
//
// # API Metadata
//
// APIMetadata mirrors a discovery REST description:
//
//	type APIMetadata struct {
//		Name      string                       // service name, e.g. "calendar"
//		Version   string                       // e.g. "v3"
//		RootURL   string                       // https://www.googleapis.com/
//		Methods   map[string]*MethodMetadata   // flat method table
//		Resources map[string]*ResourceMetadata // nested resources as published
//	}
//
// Discovery documents nest methods under resources; the discovery package
// flattens them into Methods so the client can iterate a single table.
//
// # Method Metadata
//
// MethodMetadata holds the transport details an executor needs:
//
//	type MethodMetadata struct {
//		ID             string                // calendar.events.list
//		HTTPMethod     string                // GET
//		Path           string                // calendars/{calendarId}/events
//		Parameters     map[string]*Parameter // path and query parameters
//		ParameterOrder []string              // required parameters in order
//	}
//
// The client core only reads ID. Everything else is forwarded untouched to
// the request executors in the transport packages.
//
// # Thread Safety
//
// Metadata is created once, handed to one or more clients and then treated
// as read-only. Mutating a document that is already shared requires external
// synchronization.
//
// # See Also
//
//   - discovery package for parsing and loading documents
//   - client package for building a namespace from a document
package model
