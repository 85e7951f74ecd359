// Package model defines the metadata documents consumed by the SDK: an API
// description (name, version, methods) and the per-method transport details
// that request executors need. The structs mirror the JSON of a discovery
// REST description so documents can be decoded directly.
package model

import (
	"slices"
	"strings"
)

// APIMetadata describes one API surface. Name, Version and Methods are what
// the client core reads; everything else is forwarded untouched to the
// request executors.
type APIMetadata struct {
	Kind        string                       `json:"kind,omitempty"`
	ID          string                       `json:"id,omitempty"`
	Name        string                       `json:"name" validate:"required"`
	Version     string                       `json:"version" validate:"required"`
	Title       string                       `json:"title,omitempty"`
	Description string                       `json:"description,omitempty"`
	Protocol    string                       `json:"protocol,omitempty"`
	RootURL     string                       `json:"rootUrl,omitempty"`
	ServicePath string                       `json:"servicePath,omitempty"`
	BasePath    string                       `json:"basePath,omitempty"`
	BaseURL     string                       `json:"baseUrl,omitempty"`
	BatchPath   string                       `json:"batchPath,omitempty"`
	Parameters  map[string]*Parameter        `json:"parameters,omitempty"`
	Auth        *Auth                        `json:"auth,omitempty"`
	Schemas     map[string]map[string]any    `json:"schemas,omitempty"`
	Methods     map[string]*MethodMetadata   `json:"methods,omitempty" validate:"omitempty,dive"`
	Resources   map[string]*ResourceMetadata `json:"resources,omitempty"`
}

// MethodMetadata describes a single remote method. ID is the dotted
// identifier (service.resource.action); the remaining fields are opaque to
// the client core.
type MethodMetadata struct {
	ID                  string                `json:"id" validate:"required"`
	HTTPMethod          string                `json:"httpMethod,omitempty"`
	Path                string                `json:"path,omitempty"`
	FlatPath            string                `json:"flatPath,omitempty"`
	Description         string                `json:"description,omitempty"`
	Parameters          map[string]*Parameter `json:"parameters,omitempty"`
	ParameterOrder      []string              `json:"parameterOrder,omitempty"`
	Request             *SchemaRef            `json:"request,omitempty"`
	Response            *SchemaRef            `json:"response,omitempty"`
	Scopes              []string              `json:"scopes,omitempty"`
	SupportsMediaUpload bool                  `json:"supportsMediaUpload,omitempty"`
}

// ResourceMetadata groups methods (and nested resources) under a name, as
// discovery documents do.
type ResourceMetadata struct {
	Methods   map[string]*MethodMetadata   `json:"methods,omitempty"`
	Resources map[string]*ResourceMetadata `json:"resources,omitempty"`
}

// Parameter describes one method or API-wide parameter.
type Parameter struct {
	Type        string   `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Repeated    bool     `json:"repeated,omitempty"`
	Default     string   `json:"default,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// SchemaRef points at an entry in APIMetadata.Schemas.
type SchemaRef struct {
	Ref           string `json:"$ref"`
	ParameterName string `json:"parameterName,omitempty"`
}

// Auth lists the OAuth2 scopes an API declares.
type Auth struct {
	OAuth2 struct {
		Scopes map[string]struct {
			Description string `json:"description"`
		} `json:"scopes"`
	} `json:"oauth2"`
}

// Parameter locations used by discovery documents.
const (
	LocationPath  = "path"
	LocationQuery = "query"
)

// Method returns the method registered under id. The lookup first tries the
// map key and then falls back to scanning method IDs, since documents are
// free to key methods by their short name.
func (a *APIMetadata) Method(id string) (*MethodMetadata, bool) {
	if a == nil {
		return nil, false
	}
	if m, ok := a.Methods[id]; ok && m != nil {
		return m, true
	}
	for _, m := range a.Methods {
		if m != nil && m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// MethodKeys returns the keys of Methods in lexical order.
func (a *APIMetadata) MethodKeys() []string {
	if a == nil || len(a.Methods) == 0 {
		return nil
	}
	keys := make([]string, 0, len(a.Methods))
	for k := range a.Methods {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Endpoint returns the base URL requests are resolved against:
// RootURL+ServicePath when present, otherwise BaseURL.
func (a *APIMetadata) Endpoint() string {
	if a == nil {
		return ""
	}
	if a.RootURL != "" {
		return strings.TrimRight(a.RootURL, "/") + "/" + strings.TrimLeft(a.ServicePath, "/")
	}
	return a.BaseURL
}

// Parameter looks the named parameter up on the method first and then on
// the API-wide parameter set.
func (a *APIMetadata) Parameter(m *MethodMetadata, name string) (*Parameter, bool) {
	if m != nil {
		if p, ok := m.Parameters[name]; ok && p != nil {
			return p, true
		}
	}
	if a != nil {
		if p, ok := a.Parameters[name]; ok && p != nil {
			return p, true
		}
	}
	return nil, false
}

// RequiredParameters returns the names of required parameters in
// ParameterOrder first, followed by any remaining required ones sorted by name.
func (m *MethodMetadata) RequiredParameters() []string {
	if m == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool, len(m.ParameterOrder))
	for _, name := range m.ParameterOrder {
		if p, ok := m.Parameters[name]; ok && p != nil && p.Required {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name, p := range m.Parameters {
		if p != nil && p.Required && !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
