// Package grpc executes request descriptors as unary gRPC calls without
// generated stubs.
//
// The .proto sources are compiled at runtime with protocompile and messages
// are built with dynamicpb. Documents for such services usually come from
// discovery.FromProto, which fills each method's Path with the gRPC full
// method name:
//
//	exec, err := grpc.NewExecutor(ctx, "https://echo.example.com:443", protoFiles)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer exec.Close()
//
//	meta := discovery.FromDescriptors(exec.Files())
//	c := client.MustNew(meta).WithAuthClient(auth.APIKey(key))
//	ping, _ := c.Helper("Echo.Ping")
//	resp, err := ping.Call(request.Params{"message": "hi"}).Execute(ctx, exec, nil)
//
// # Request Mapping
//
// The resource (when present) must encode to a JSON object. Params are
// layered over it and the result is decoded into the input message with
// protojson; unknown fields are dropped. Credentials from the request's auth
// client travel as outgoing metadata together with the request id.
//
// # Direct Calls
//
// CallWithJSON, CallWithMap and CallWithProto invoke a method by its simple
// name without going through a descriptor.
//
// # Transport Security
//
// "https://" endpoints use TLS with system roots. "http://" and bare
// host:port endpoints are insecure.
package grpc
