// Package storage reads API metadata and proto bundles from content-addressed
// storage.
//
// # Backends
//
// IPFS is reached through the Kubo HTTP API. References look like
// "ipfs://bafy..." or a bare CID. Content stored with the raw codec is hashed
// after download and rejected with ErrCIDMismatch when it does not match.
//
// An HTTP gateway serves references with the "gateway://" scheme
// ("filecoin://" is accepted too). The CID is appended to the gateway URL:
//
//	s, err := storage.NewStorage("http://localhost:5001", "https://ipfs.io/ipfs/", 30*time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//	doc, err := s.ReadFile(ctx, "ipfs://bafkrei...")
//
// Upload adds a blob to IPFS and returns its ipfs:// reference, which is how
// discovery documents are published for LoadIPFS.
//
// # Proto Bundles
//
// gRPC services publish their .proto sources as tar or tar.gz archives.
// ParseProtoFiles unpacks one into the map that discovery.FromProto and the
// gRPC executor accept.
package storage
