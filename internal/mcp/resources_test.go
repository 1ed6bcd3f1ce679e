package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsbridge/tsbridge/internal/typemap"
)

func readResource(t *testing.T, s *Server, uri string, render func() (any, error)) string {
	t.Helper()
	handler := s.makeResourceHandler(uri, render)
	res, err := handler(context.Background(), &mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, uri, res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	return res.Contents[0].Text
}

func TestTypeMappingsResource(t *testing.T) {
	s := newTestServer(t)

	text := readResource(t, s, ResourceTypeMappings, func() (any, error) {
		return s.store.BuiltinTable(), nil
	})

	var table map[string]typemap.Entry
	require.NoError(t, json.Unmarshal([]byte(text), &table))
	assert.Equal(t, "number", table["int"].TSName)
	assert.Equal(t, "null", table["None"].TSName)
}

func TestLibraryMappingsResource(t *testing.T) {
	s := newTestServer(t)

	text := readResource(t, s, ResourceLibraryMappings, func() (any, error) {
		return s.store.LibraryTable(), nil
	})

	var table map[string]map[string]typemap.Entry
	require.NoError(t, json.Unmarshal([]byte(text), &table))
	assert.Equal(t, "Date", table["datetime"]["datetime"].TSName)
}

func TestIdiomsResource_IsValidJSONArray(t *testing.T) {
	s := newTestServer(t)

	text := readResource(t, s, ResourceIdioms, func() (any, error) {
		return s.store.Idioms(), nil
	})

	var idioms []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &idioms))
	assert.NotEmpty(t, idioms)
}
