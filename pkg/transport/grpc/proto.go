package grpc

import (
	"fmt"
	"strings"

	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// FindMethod returns the first method named methodName in any service of
// files, along with the file declaring it.
func FindMethod(files linker.Files, methodName string) (protoreflect.FileDescriptor, protoreflect.MethodDescriptor, error) {
	for _, file := range files {
		for i := 0; i < file.Services().Len(); i++ {
			service := file.Services().Get(i)
			if method := service.Methods().ByName(protoreflect.Name(methodName)); method != nil {
				return file, method, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("method %s not found in provided proto files", methodName)
}

// FindMethodByPath resolves a gRPC full method name ("/pkg.Service/Method").
func FindMethodByPath(files linker.Files, path string) (protoreflect.MethodDescriptor, error) {
	svcName, method, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok {
		return nil, fmt.Errorf("malformed method path %q", path)
	}
	for _, file := range files {
		svc := file.Services().ByName(protoreflect.FullName(svcName).Name())
		if svc == nil || svc.FullName() != protoreflect.FullName(svcName) {
			continue
		}
		if md := svc.Methods().ByName(protoreflect.Name(method)); md != nil {
			return md, nil
		}
	}
	return nil, fmt.Errorf("method %s not found in provided proto files", path)
}

// FullMethod returns the invocation path of md.
func FullMethod(md protoreflect.MethodDescriptor) string {
	return "/" + string(md.Parent().FullName()) + "/" + string(md.Name())
}
