package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/shamank/discovery-sdk-go/pkg/client"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/namespace"
	"go.uber.org/zap"
)

// RootType is the name of the generated type wrapping a client.
const RootType = "Service"

// ErrInvalidPackage is returned when the package name is not a Go
// identifier.
var ErrInvalidPackage = errors.New("invalid package name")

type file struct {
	Package     string
	API         string
	Version     string
	Unreachable []string
	Types       []*typeDef
	HasCalls    bool
}

type typeDef struct {
	Name       string
	Path       string
	Root       bool
	Callable   *call
	Namespaces []accessor
	Calls      []call
}

type accessor struct {
	Method string
	Path   string
	Type   string
}

type call struct {
	Method string
	ID     string
	Doc    string
}

var tmpl = template.Must(template.New("client").Parse(`// Code generated by generate-client. DO NOT EDIT.
// Source: {{.API}} {{.Version}}

package {{.Package}}

import (
	"github.com/shamank/discovery-sdk-go/pkg/client"
{{- if .HasCalls}}
	"github.com/shamank/discovery-sdk-go/pkg/request"
{{- end}}
)
{{range .Types}}{{$t := .}}
{{- if .Root}}
// {{.Name}} exposes the {{$.API}} namespace with static types.
{{- range $.Unreachable}}
// Method {{.}} has no namespace path; use Client().NewRequest.
{{- end}}
type {{.Name}} struct {
	c *client.Client
}

// New wraps c, which must be built from the same document.
func New(c *client.Client) *{{.Name}} { return &{{.Name}}{c: c} }

// Client returns the wrapped client.
func (s *{{.Name}}) Client() *client.Client { return s.c }
{{- else}}
// {{.Name}} is the {{.Path}} namespace.
type {{.Name}} struct {
	c *client.Client
}
{{- end}}
{{with .Callable}}
{{.Doc}}
func (s *{{$t.Name}}) {{.Method}}(params request.Params, resource ...any) *request.Request {
	return s.c.NewRequest({{printf "%q" .ID}}, params, resource...)
}
{{- end}}
{{- range .Namespaces}}

// {{.Method}} returns the {{.Path}} namespace.
func (s *{{$t.Name}}) {{.Method}}() *{{.Type}} { return &{{.Type}}{c: s.c} }
{{- end}}
{{- range .Calls}}

{{.Doc}}
func (s *{{$t.Name}}) {{.Method}}(params request.Params, resource ...any) *request.Request {
	return s.c.NewRequest({{printf "%q" .ID}}, params, resource...)
}
{{- end}}
{{end}}`))

// Generate renders Go source with one type per namespace container of meta
// and one method per helper. Each method builds the same request as the
// matching client helper. pkg defaults to the API name.
func Generate(meta *model.APIMetadata, pkg string) ([]byte, error) {
	if meta == nil {
		return nil, errors.New("metadata is nil")
	}
	if pkg == "" {
		pkg = strings.ToLower(identifier(meta.Name))
	}
	if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}

	c, err := client.New(meta, client.WithLogger(zap.L().Named("codegen")))
	if err != nil {
		return nil, err
	}

	f := &file{
		Package:     pkg,
		API:         meta.Name,
		Version:     meta.Version,
		Unreachable: c.Unreachable(),
	}
	g := &generator{meta: meta, used: map[string]bool{RootType: true}}
	g.visit(c.Namespace(), "", RootType, f)
	f.HasCalls = c.Namespace().Len() > 0

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}

type generator struct {
	meta *model.APIMetadata
	used map[string]bool
}

type namespaceNode = namespace.Node[client.Helper]

// visit appends the type for the container at path and recurses into its
// child containers. Types come out in depth-first, sorted order.
func (g *generator) visit(n *namespaceNode, path, name string, f *file) {
	td := &typeDef{Name: name, Path: path, Root: path == ""}
	f.Types = append(f.Types, td)

	methods := map[string]bool{}
	if td.Root {
		methods["Client"] = true
	}
	if h, ok := n.Value(); ok && !td.Root {
		methods["Call"] = true
		c := g.call("Call", h.MethodID())
		td.Callable = &c
	}

	type pending struct {
		child *namespaceNode
		path  string
		name  string
	}
	var next []pending
	for _, seg := range n.Children() {
		child, _ := n.Child(seg)
		childPath := seg
		if path != "" {
			childPath = path + "." + seg
		}
		method := unique(identifier(seg), methods)
		if child.IsContainer() {
			tn := unique(typeName(childPath), g.used)
			td.Namespaces = append(td.Namespaces, accessor{Method: method, Path: childPath, Type: tn})
			next = append(next, pending{child: child, path: childPath, name: tn})
			continue
		}
		if h, ok := child.Value(); ok {
			td.Calls = append(td.Calls, g.call(method, h.MethodID()))
		}
	}
	for _, p := range next {
		g.visit(p.child, p.path, p.name, f)
	}
}

func (g *generator) call(method, id string) call {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s builds a %s request.", method, id)
	if m, ok := g.meta.Method(id); ok && m.Description != "" {
		b.WriteString("\n//")
		for _, line := range strings.Split(strings.TrimSpace(m.Description), "\n") {
			line = strings.TrimRightFunc(line, unicode.IsSpace)
			if line == "" {
				b.WriteString("\n//")
				continue
			}
			b.WriteString("\n// " + line)
		}
	}
	return call{Method: method, ID: id, Doc: b.String()}
}

// typeName joins the exported form of each path segment and adds a
// Namespace suffix, e.g. "calendars.acl" becomes CalendarsAclNamespace.
func typeName(path string) string {
	var b strings.Builder
	for _, seg := range strings.Split(path, ".") {
		b.WriteString(identifier(seg))
	}
	b.WriteString("Namespace")
	return b.String()
}

// identifier converts a segment such as "get_iam-policy" to GetIamPolicy.
func identifier(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}

// unique returns name, or name with the smallest numeric suffix not yet in
// used, and records the result.
func unique(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	used[candidate] = true
	return candidate
}
