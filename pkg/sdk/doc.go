// Package sdk provides the high-level entry point for building API clients
// from metadata documents.
//
// The SDK loads discovery documents (from the discovery service, disk or
// IPFS) or compiles .proto sources, turns them into namespaced clients, and
// runs their requests over REST or gRPC with shared throttling and timeouts.
//
// # Quick Start
//
//	import (
//		"github.com/shamank/discovery-sdk-go/pkg/config"
//		"github.com/shamank/discovery-sdk-go/pkg/request"
//		"github.com/shamank/discovery-sdk-go/pkg/sdk"
//	)
//
//	func main() {
//		cfg := &config.Config{
//			APIKey: "YOUR_API_KEY",
//			Debug:  true,
//		}
//
//		core, err := sdk.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer core.Close()
//
//		books, err := core.NewClient(ctx, "books", "v1")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		list, _ := books.Helper("volumes.list")
//		var out map[string]any
//		if _, err := core.Execute(ctx, list.Call(request.Params{"q": "golang"}), &out); err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(out["totalItems"])
//	}
//
// # Architecture
//
// Core coordinates several subsystems:
//
//   - Discovery: loads and caches documents, flattens nested resources
//   - Storage: IPFS and HTTP gateways for published documents and proto bundles
//   - Transport: REST executor for discovery documents, dynamic gRPC for proto services
//   - Client: namespace of helpers per document with swappable authentication
//
// # Core Components
//
// Client constructors:
//   - NewClient: fetch {api}/{version} from the discovery service
//   - NewClientFromFile: read a document from disk
//   - NewClientFromIPFS: read a document published with Publish
//   - NewClientFromMetadata: wrap a document already in memory
//   - NewClientFromProto: compile .proto sources and dial a gRPC endpoint
//   - NewClientFromProtoBundle: same, with sources read from a tar bundle in storage
//   - BindGRPC: route a client to an executor the caller built
//
// Request execution:
//   - Execute: run one request within Timeouts.Request
//   - ExecuteBatch: run many with BatchLimit in flight, results in input order
//   - Do: Core itself is a request.Executor that picks REST or gRPC per document
//
// Other operations:
//   - Directory: list APIs advertised by the discovery service
//   - Publish: upload a document to IPFS
//   - Healthcheck: grpc.health.v1 status of a proto-backed client
//   - Close: release gRPC connections
//
// # Authentication
//
// Config.APIKey becomes the default auth client of every new client. Swap it
// per client with WithAuthClient; requests created afterwards pick up the
// new credentials.
//
// # Logging
//
// The package installs a console zap logger at Info level on import, and
// New switches to Debug when Config.Debug is set. Replace it with
// zap.ReplaceGlobals to route logs elsewhere.
package sdk
