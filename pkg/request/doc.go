// Package request holds the descriptors built by a client for every method
// call and the contract used to execute them.
//
// # Descriptors
//
// A Request carries everything an executor needs:
//
//	r := request.New(meta, "calendar.events.list", request.Params{"calendarId": "primary"}).
//		WithAuthClient(auth.APIKey(key))
//
// Descriptors are created fresh on every call and are never shared or pooled.
// The auth client is captured when the descriptor is built, so swapping the
// client's auth later does not affect descriptors that already exist.
//
// The method identifier is not validated. Method reports whether it resolves
// against the metadata; executors return an error when it does not.
//
// # Execution
//
// Executors live in the transport packages:
//
//	var events CalendarEvents
//	_, err := r.Execute(ctx, rest.NewExecutor(), &events)
//
// A Batch fans a set of descriptors out to one executor with bounded
// concurrency and reports one Result per descriptor.
package request
