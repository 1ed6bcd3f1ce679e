package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs under the py2ts scheme.
const (
	ResourceTypeMappings    = "py2ts://mappings/types"
	ResourceLibraryMappings = "py2ts://mappings/libraries"
	ResourcePackages        = "py2ts://packages"
	ResourceIdioms          = "py2ts://idioms"
	ResourceStrategies      = "py2ts://testing-strategies"
)

// registerResources exposes the knowledge tables as read-only JSON
// resources. Contents are rendered per read, so a hot reload is visible
// on the next read without re-registration.
func (s *Server) registerResources() {
	resources := []struct {
		name, uri, desc string
		render          func() (any, error)
	}{
		{
			name: "type-mappings",
			uri:  ResourceTypeMappings,
			desc: "Built-in Python type to TypeScript type mappings with confidence levels",
			render: func() (any, error) {
				return s.store.BuiltinTable(), nil
			},
		},
		{
			name: "library-type-mappings",
			uri:  ResourceLibraryMappings,
			desc: "Standard library type mappings keyed by module and type name (datetime, decimal, pathlib, ...)",
			render: func() (any, error) {
				return s.store.LibraryTable(), nil
			},
		},
		{
			name: "package-equivalents",
			uri:  ResourcePackages,
			desc: "Python package to npm ecosystem equivalence catalog with migration effort",
			render: func() (any, error) {
				return s.store.Packages(), nil
			},
		},
		{
			name: "idiom-translations",
			uri:  ResourceIdioms,
			desc: "Python idiom to idiomatic TypeScript translations",
			render: func() (any, error) {
				return s.store.Idioms(), nil
			},
		},
		{
			name: "testing-strategies",
			uri:  ResourceStrategies,
			desc: "Testing strategies for validating migrated code",
			render: func() (any, error) {
				return s.store.Strategies(), nil
			},
		},
	}

	for _, r := range resources {
		s.mcp.AddResource(
			&mcp.Resource{
				Name:        r.name,
				URI:         r.uri,
				Description: r.desc,
				MIMEType:    "application/json",
			},
			s.makeResourceHandler(r.uri, r.render),
		)
	}
	s.logger.Info("MCP resources registered", "count", len(resources))
}

// makeResourceHandler creates a read handler that renders a table as
// pretty-printed JSON.
func (s *Server) makeResourceHandler(uri string, render func() (any, error)) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		value, err := render()
		if err != nil {
			return nil, MapError(err)
		}
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
