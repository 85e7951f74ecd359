package discovery

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ProtocolGRPC marks documents derived from .proto sources.
const ProtocolGRPC = "grpc"

var versionSegment = regexp.MustCompile(`^v\d+[a-z0-9]*$`)

// CompileProto compiles .proto sources (file name to content). Imports of
// the well-known types resolve without being supplied.
func CompileProto(ctx context.Context, files map[string]string) (linker.Files, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no proto files to compile")
	}
	resolver := protocompile.WithStandardImports(&protocompile.SourceResolver{
		Accessor: protocompile.SourceAccessorFromMap(files),
	})
	compiler := protocompile.Compiler{
		Resolver:       resolver,
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	names := slices.Sorted(maps.Keys(files))
	fds, err := compiler.Compile(ctx, names...)
	if err != nil {
		zap.L().Error("failed to compile proto files", zap.Strings("files", names), zap.Error(err))
		return nil, fmt.Errorf("compile proto files: %w", err)
	}
	return fds, nil
}

// FromProto compiles files and describes every RPC they declare.
func FromProto(ctx context.Context, files map[string]string) (*model.APIMetadata, error) {
	fds, err := CompileProto(ctx, files)
	if err != nil {
		return nil, err
	}
	return FromDescriptors(fds), nil
}

// FromDescriptors describes every RPC in fds. Each method gets the id
// "<package>.<Service>.<Method>" with the dots of the package folded to
// underscores, so the namespace path is "<Service>.<Method>". Path holds the
// gRPC full method name. The document is named after the first package and
// versioned by its trailing segment when that looks like "v1", "v2beta" and
// so on.
func FromDescriptors(fds linker.Files) *model.APIMetadata {
	meta := &model.APIMetadata{
		Kind:     "discovery#restDescription",
		Protocol: ProtocolGRPC,
		Methods:  make(map[string]*model.MethodMetadata),
		Schemas:  make(map[string]map[string]any),
	}
	for _, fd := range fds {
		pkg := string(fd.Package())
		if meta.Name == "" && fd.Services().Len() > 0 {
			meta.Name = apiName(pkg, fd)
			meta.Version = apiVersion(pkg)
			meta.ID = meta.Name + ":" + meta.Version
		}
		for i := 0; i < fd.Services().Len(); i++ {
			svc := fd.Services().Get(i)
			for j := 0; j < svc.Methods().Len(); j++ {
				md := svc.Methods().Get(j)
				m := methodFromDescriptor(apiName(pkg, fd), svc, md)
				meta.Methods[m.ID] = m
				meta.Schemas[string(md.Input().FullName())] = schemaFields(md.Input())
				meta.Schemas[string(md.Output().FullName())] = schemaFields(md.Output())
			}
		}
	}
	return meta
}

func methodFromDescriptor(api string, svc protoreflect.ServiceDescriptor, md protoreflect.MethodDescriptor) *model.MethodMetadata {
	m := &model.MethodMetadata{
		ID:         api + "." + string(svc.Name()) + "." + string(md.Name()),
		HTTPMethod: "POST",
		Path:       "/" + string(svc.FullName()) + "/" + string(md.Name()),
		Request:    &model.SchemaRef{Ref: string(md.Input().FullName())},
		Response:   &model.SchemaRef{Ref: string(md.Output().FullName())},
	}
	fields := md.Input().Fields()
	if fields.Len() > 0 {
		m.Parameters = make(map[string]*model.Parameter, fields.Len())
	}
	for k := 0; k < fields.Len(); k++ {
		f := fields.Get(k)
		m.Parameters[f.JSONName()] = &model.Parameter{
			Type:     f.Kind().String(),
			Location: model.LocationQuery,
			Repeated: f.Cardinality() == protoreflect.Repeated,
		}
	}
	return m
}

func schemaFields(md protoreflect.MessageDescriptor) map[string]any {
	props := make(map[string]any, md.Fields().Len())
	for i := 0; i < md.Fields().Len(); i++ {
		f := md.Fields().Get(i)
		props[f.JSONName()] = map[string]any{"type": f.Kind().String()}
	}
	return map[string]any{"id": string(md.FullName()), "type": "object", "properties": props}
}

func apiName(pkg string, fd protoreflect.FileDescriptor) string {
	if pkg == "" {
		name := strings.TrimSuffix(fd.Path(), ".proto")
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return strings.ReplaceAll(name, ".", "_")
	}
	return strings.ReplaceAll(pkg, ".", "_")
}

func apiVersion(pkg string) string {
	segs := strings.Split(pkg, ".")
	if last := segs[len(segs)-1]; versionSegment.MatchString(last) {
		return last
	}
	return ""
}
