package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shamank/discovery-sdk-go/pkg/request"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    request.Params
		wantErr bool
	}{
		{name: "empty", in: nil, want: request.Params{}},
		{name: "single", in: []string{"q=go"}, want: request.Params{"q": "go"}},
		{name: "value with equals", in: []string{"filter=a=b"}, want: request.Params{"filter": "a=b"}},
		{
			name: "repeated",
			in:   []string{"tag=a", "tag=b", "tag=c"},
			want: request.Params{"tag": []string{"a", "b", "c"}},
		},
		{name: "missing equals", in: []string{"q"}, wantErr: true},
		{name: "empty key", in: []string{"=x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseParams: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadBody(t *testing.T) {
	body, err := readBody(strings.NewReader(`{"summary":"x"}`), "-")
	if err != nil {
		t.Fatalf("readBody: %v", err)
	}
	if m, ok := body.(map[string]any); !ok || m["summary"] != "x" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, err := readBody(strings.NewReader(`{`), "-"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
