package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/request"
)

func calendar(root string) *model.APIMetadata {
	return &model.APIMetadata{
		Name:        "calendar",
		Version:     "v3",
		RootURL:     root,
		ServicePath: "calendar/v3/",
		Parameters: map[string]*model.Parameter{
			"fields": {Type: "string", Location: model.LocationQuery},
		},
		Methods: map[string]*model.MethodMetadata{
			"calendar.events.list": {
				ID:             "calendar.events.list",
				HTTPMethod:     "GET",
				Path:           "calendars/{calendarId}/events",
				ParameterOrder: []string{"calendarId"},
				Parameters: map[string]*model.Parameter{
					"calendarId": {Type: "string", Location: model.LocationPath, Required: true},
					"eventTypes": {Type: "string", Location: model.LocationQuery, Repeated: true},
				},
			},
			"calendar.events.insert": {
				ID:         "calendar.events.insert",
				HTTPMethod: "POST",
				Path:       "calendars/{calendarId}/events",
				Parameters: map[string]*model.Parameter{
					"calendarId": {Type: "string", Location: model.LocationPath, Required: true},
				},
			},
			"calendar.objects.get": {
				ID:   "calendar.objects.get",
				Path: "objects/{+name}",
			},
		},
	}
}

type captured struct {
	method string
	uri    string
	header http.Header
	body   []byte
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.uri = r.URL.RequestURI()
		c.header = r.Header.Clone()
		c.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestExecuteList(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"items":[{"id":"e1"}]}`)
	meta := calendar(srv.URL + "/")

	r := request.New(meta, "calendar.events.list", request.Params{
		"calendarId": "team@example.com",
		"eventTypes": []string{"default", "focusTime"},
		"fields":     "items(id)",
	}).WithAuthClient(auth.APIKey("secret"))

	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	resp, err := r.Execute(context.Background(), NewExecutor(WithHTTPClient(srv.Client())), &out)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK || len(out.Items) != 1 || out.Items[0].ID != "e1" {
		t.Fatalf("unexpected result %d %+v", resp.StatusCode, out)
	}

	if got.method != http.MethodGet {
		t.Fatalf("unexpected method %s", got.method)
	}
	wantPath := "/calendar/v3/calendars/team@example.com/events?"
	if !strings.HasPrefix(got.uri, wantPath) {
		t.Fatalf("unexpected uri %s", got.uri)
	}
	for _, q := range []string{"eventTypes=default", "eventTypes=focusTime", "fields=items%28id%29"} {
		if !strings.Contains(got.uri, q) {
			t.Fatalf("uri %s missing %s", got.uri, q)
		}
	}
	if got.header.Get(auth.APIKeyHeader) != "secret" {
		t.Fatal("api key header not applied")
	}
	if got.header.Get(auth.RequestIDHeader) != r.ID() {
		t.Fatal("request id header not applied")
	}
	if got.header.Get("User-Agent") != DefaultUserAgent {
		t.Fatalf("unexpected user agent %q", got.header.Get("User-Agent"))
	}
}

func TestExecuteInsertSendsBody(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"id":"new"}`)
	meta := calendar(srv.URL)

	body := map[string]any{"summary": "planning"}
	r := request.New(meta, "calendar.events.insert", request.Params{"calendarId": "primary"}, body).
		WithAuthClient(auth.BearerToken("tok"))

	if _, err := NewExecutor(WithUserAgent("test-agent")).Do(context.Background(), r); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.method != http.MethodPost || got.uri != "/calendar/v3/calendars/primary/events" {
		t.Fatalf("unexpected request %s %s", got.method, got.uri)
	}
	var sent map[string]any
	if err := json.Unmarshal(got.body, &sent); err != nil || sent["summary"] != "planning" {
		t.Fatalf("unexpected body %s", got.body)
	}
	if got.header.Get("Content-Type") != "application/json" {
		t.Fatal("content type not set")
	}
	if got.header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("unexpected authorization %q", got.header.Get("Authorization"))
	}
	if got.header.Get("User-Agent") != "test-agent" {
		t.Fatal("user agent option ignored")
	}
}

func TestReservedExpansionKeepsSlashes(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{}`)
	r := request.New(calendar(srv.URL), "calendar.objects.get", request.Params{"name": "a b/c"})
	if _, err := NewExecutor().Do(context.Background(), r); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.uri != "/calendar/v3/objects/a%20b/c" {
		t.Fatalf("unexpected uri %s", got.uri)
	}
}

func TestExecutorErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	meta := calendar(srv.URL)

	failing := auth.Func(func(context.Context) (map[string]string, error) {
		return nil, errors.New("no token")
	})

	tests := []struct {
		name string
		req  *request.Request
		want error
	}{
		{
			name: "unknown method",
			req:  request.New(meta, "calendar.events.watch", nil),
			want: ErrUnknownMethod,
		},
		{
			name: "missing required",
			req:  request.New(meta, "calendar.events.list", request.Params{"fields": "id"}),
			want: ErrMissingParameter,
		},
		{
			name: "missing path variable",
			req:  request.New(meta, "calendar.objects.get", nil),
			want: ErrMissingParameter,
		},
		{
			name: "no endpoint",
			req: request.New(&model.APIMetadata{Name: "svc", Methods: map[string]*model.MethodMetadata{
				"svc.ping": {ID: "svc.ping", Path: "ping"},
			}}, "svc.ping", nil),
			want: ErrNoEndpoint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutor().Do(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	r := request.New(meta, "calendar.events.list", request.Params{"calendarId": "x"}).WithAuthClient(failing)
	if _, err := NewExecutor().Do(context.Background(), r); err == nil || !strings.Contains(err.Error(), "no token") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"error":{"code":404,"message":"Not Found: calendar"}}`)
	r := request.New(calendar(srv.URL), "calendar.events.list", request.Params{"calendarId": "nope"})

	_, err := r.Execute(context.Background(), NewExecutor(), nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Message != "Not Found: calendar" {
		t.Fatalf("unexpected status error %+v", se)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound should match")
	}
}

func TestBaseURLOverride(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{}`)
	meta := calendar("https://unreachable.invalid/")
	r := request.New(meta, "calendar.events.list", request.Params{"calendarId": "c"})

	if _, err := NewExecutor(WithBaseURL(srv.URL + "/emulator/")).Do(context.Background(), r); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.uri != "/emulator/calendars/c/events" {
		t.Fatalf("unexpected uri %s", got.uri)
	}
}

func TestMaxResponseSize(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, strings.Repeat("x", 100))
	r := request.New(calendar(srv.URL), "calendar.events.list", request.Params{"calendarId": "c"})
	resp, err := NewExecutor(WithMaxResponseSize(10)).Do(context.Background(), r)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(resp.Body) != 10 {
		t.Fatalf("expected truncated body, got %d bytes", len(resp.Body))
	}
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	exec := NewExecutor(WithRateLimit(20, 1))
	meta := calendar(srv.URL)
	start := time.Now()
	for i := 0; i < 3; i++ {
		r := request.New(meta, "calendar.events.list", request.Params{"calendarId": "c"})
		if _, err := exec.Do(context.Background(), r); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("rate limit not applied, took %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := request.New(meta, "calendar.events.list", request.Params{"calendarId": "c"})
	if _, err := exec.Do(ctx, r); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if hits.Load() != 3 {
		t.Fatalf("unexpected hit count %d", hits.Load())
	}
}

func TestBatchThroughExecutor(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"ok":true}`)
	meta := calendar(srv.URL)
	b := request.NewBatch(
		request.New(meta, "calendar.events.list", request.Params{"calendarId": "a"}),
		request.New(meta, "calendar.events.watch", nil),
		request.New(meta, "calendar.events.list", request.Params{"calendarId": "b"}),
	)
	results := b.Execute(context.Background(), NewExecutor(), 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected errors %v %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", results[1].Err)
	}
}
