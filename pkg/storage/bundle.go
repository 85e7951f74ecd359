package storage

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ParseProtoFiles extracts .proto sources from a tar or tar.gz archive, keyed
// by their path inside the archive. Directory entries and non-.proto files
// are skipped; any other entry type is an error.
func ParseProtoFiles(archive []byte) (map[string]string, error) {
	var reader io.Reader = bytes.NewReader(archive)

	if isGzipFile(archive) {
		gzr, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	}

	tr := tar.NewReader(reader)
	protos := make(map[string]string)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			if !strings.HasSuffix(header.Name, ".proto") {
				logger().Debug("skipping non-proto file in bundle", zap.String("name", header.Name))
				continue
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", header.Name, err)
			}
			protos[header.Name] = string(data)
		default:
			return nil, fmt.Errorf("unsupported entry type %c for %s", header.Typeflag, header.Name)
		}
	}
	return protos, nil
}

// isGzipFile checks for the 0x1F 0x8B magic bytes.
func isGzipFile(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1F && data[1] == 0x8B
}
