package codegen

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"slices"
	"strings"
	"testing"

	"github.com/shamank/discovery-sdk-go/pkg/model"
)

func calendarMeta() *model.APIMetadata {
	return &model.APIMetadata{
		Name:    "calendar",
		Version: "v3",
		Methods: map[string]*model.MethodMetadata{
			"calendar.events.list": {
				ID:          "calendar.events.list",
				Description: "Returns events on the specified calendar.\n\nPaged.",
			},
			"calendar.events.insert":      {ID: "calendar.events.insert"},
			"calendar.calendars.get":      {ID: "calendar.calendars.get"},
			"calendar.calendars.acl":      {ID: "calendar.calendars.acl"},
			"calendar.calendars.acl.list": {ID: "calendar.calendars.acl.list"},
			"ping":                        {ID: "ping"},
		},
	}
}

func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	return f
}

func declaredTypes(f *ast.File) []string {
	var names []string
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			names = append(names, s.(*ast.TypeSpec).Name.Name)
		}
	}
	slices.Sort(names)
	return names
}

func TestGenerateCalendar(t *testing.T) {
	src, err := Generate(calendarMeta(), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f := parse(t, src)
	if f.Name.Name != "calendar" {
		t.Fatalf("package = %s", f.Name.Name)
	}

	want := []string{"CalendarsAclNamespace", "CalendarsNamespace", "EventsNamespace", "Service"}
	if got := declaredTypes(f); !slices.Equal(got, want) {
		t.Fatalf("types = %v, want %v", got, want)
	}

	out := string(src)
	for _, snippet := range []string{
		"// Code generated by generate-client. DO NOT EDIT.",
		"func (s *Service) Events() *EventsNamespace",
		"func (s *Service) Calendars() *CalendarsNamespace",
		"func (s *CalendarsNamespace) Acl() *CalendarsAclNamespace",
		"func (s *CalendarsAclNamespace) Call(params request.Params, resource ...any) *request.Request",
		"func (s *CalendarsAclNamespace) List(params request.Params, resource ...any) *request.Request",
		`s.c.NewRequest("calendar.events.list", params, resource...)`,
		"// List builds a calendar.events.list request.",
		"// Returns events on the specified calendar.",
		"// Method ping has no namespace path",
	} {
		if !strings.Contains(out, snippet) {
			t.Fatalf("generated source missing %q:\n%s", snippet, out)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(calendarMeta(), "cal")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < 5; i++ {
		b, err := Generate(calendarMeta(), "cal")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if string(a) != string(b) {
			t.Fatal("output differs between runs")
		}
	}
}

func TestGenerateCollidingNames(t *testing.T) {
	meta := &model.APIMetadata{
		Name: "svc",
		Methods: map[string]*model.MethodMetadata{
			"a": {ID: "svc.getX"},
			"b": {ID: "svc.get_x"},
			"c": {ID: "svc.client"},
		},
	}
	src, err := Generate(meta, "svc")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	parse(t, src)
	out := string(src)
	for _, snippet := range []string{
		"func (s *Service) GetX(",
		"func (s *Service) GetX2(",
		"func (s *Service) Client2(",
		"func (s *Service) Client() *client.Client",
	} {
		if !strings.Contains(out, snippet) {
			t.Fatalf("generated source missing %q:\n%s", snippet, out)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		meta *model.APIMetadata
		pkg  string
	}{
		{name: "nil metadata", meta: nil, pkg: "x"},
		{name: "keyword package", meta: calendarMeta(), pkg: "func"},
		{name: "bad package", meta: calendarMeta(), pkg: "1abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.meta, tt.pkg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Generate(calendarMeta(), "my-pkg"); !errors.Is(err, ErrInvalidPackage) {
		t.Fatalf("expected ErrInvalidPackage, got %v", err)
	}
}

func TestIdentifier(t *testing.T) {
	tests := map[string]string{
		"list":         "List",
		"getIamPolicy": "GetIamPolicy",
		"user_profile": "UserProfile",
		"a-b.c":        "ABC",
		"2fa":          "X2fa",
		"__":           "X",
	}
	for in, want := range tests {
		if got := identifier(in); got != want {
			t.Fatalf("identifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultPackageFromName(t *testing.T) {
	src, err := Generate(&model.APIMetadata{Name: "my-api", Methods: map[string]*model.MethodMetadata{
		"x": {ID: "my-api.items.get"},
	}}, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f := parse(t, src); f.Name.Name != "myapi" {
		t.Fatalf("package = %s", f.Name.Name)
	}
}
