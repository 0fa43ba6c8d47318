package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webflowcms/internal/engine"
	"webflowcms/internal/plugin"
	"webflowcms/internal/plugin/builtin"
)

func mcpRoundTrip(t *testing.T, requests ...string) []map[string]any {
	t.Helper()
	registry := plugin.NewRegistry().MustRegister(
		builtin.NewLogConnector(nil),
		builtin.NewWebflowConnector(nil),
	)
	srv := NewMCPServer(engine.NewEngine(registry), testFlows(), map[string]string{"TEAM": "content"}, nil)

	var out bytes.Buffer
	require.NoError(t, srv.Serve(context.Background(), strings.NewReader(strings.Join(requests, "\n")), &out))

	var responses []map[string]any
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp map[string]any
		require.NoError(t, dec.Decode(&resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestMCPInitialize(t *testing.T) {
	resps := mcpRoundTrip(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	require.Len(t, resps, 1)
	info := resps[0]["result"].(map[string]any)["serverInfo"].(map[string]any)
	assert.Equal(t, "webflowcms", info["name"])
}

func TestMCPToolsList(t *testing.T) {
	resps := mcpRoundTrip(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Len(t, resps, 1)

	tools := resps[0]["result"].(map[string]any)["tools"].([]any)
	byName := map[string]map[string]any{}
	for _, raw := range tools {
		tool := raw.(map[string]any)
		byName[tool["name"].(string)] = tool
	}

	for _, name := range []string{
		"webflow_item_create", "webflow_item_getAll", "webflow_collection_getFields",
		"webflow_options_sites", "greet", "broken", "manual",
	} {
		assert.Contains(t, byName, name)
	}

	schema := byName["webflow_item_get"]["inputSchema"].(map[string]any)
	assert.Equal(t, []any{"collectionId", "itemId", "siteId"}, schema["required"])
	props := schema["properties"].(map[string]any)
	assert.Equal(t, "array", props["items"].(map[string]any)["type"])
}

func TestMCPCallFlow(t *testing.T) {
	resps := mcpRoundTrip(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}`)
	result := resps[0]["result"].(map[string]any)
	assert.Nil(t, result["isError"])

	text := result["content"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "Hello Ada from content")
}

func TestMCPCallActionWithoutCredentials(t *testing.T) {
	resps := mcpRoundTrip(t, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"webflow_item_get","arguments":{"collectionId":"c1","itemId":"i1"}}}`)
	result := resps[0]["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])

	text := result["content"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, builtin.ErrNotConfigured.Error())
}

func TestMCPUnknownToolAndMethod(t *testing.T) {
	resps := mcpRoundTrip(t,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"webflow_widget_get"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
	)
	require.Len(t, resps, 3)
	assert.Equal(t, true, resps[0]["result"].(map[string]any)["isError"])
	assert.Equal(t, true, resps[1]["result"].(map[string]any)["isError"])
	assert.Equal(t, float64(-32601), resps[2]["error"].(map[string]any)["code"])
}
