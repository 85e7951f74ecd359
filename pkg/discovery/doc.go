// Package discovery produces the API documents clients are built from.
//
// Documents come from a discovery service over HTTP, from disk, from
// content storage, or are derived from .proto sources:
//
//	l := discovery.NewLoader("", discovery.WithTTL(time.Hour))
//	meta, err := l.Load(ctx, "calendar", "v3")
//
//	meta, err = l.LoadFile("testdata/calendar.json")
//
//	meta, err = discovery.FromProto(ctx, map[string]string{"echo.proto": src})
//
// Parse flattens nested resources into the top-level method table, which is
// the only place the client looks for methods. Validation is opt-in through
// WithStrict or a direct call to Validate.
package discovery
