package node

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

func TestCreateSendsCoercedFieldData(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"id": "i1", "fieldData": map[string]any{"name": "Test"}})

	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "create",
		"siteId":       "s1",
		"collectionId": "c1",
		"live":         false,
		"fieldsUi":     fieldValues("name", "Test", "price", "9.5", "featured", "true", "tags", `["a","b"]`, "empty", ""),
	}, nil)
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/collections/c1/items", req.Resource)

	want := map[string]any{"fieldData": map[string]any{
		"name":     "Test",
		"price":    9.5,
		"featured": true,
		"tags":     []any{"a", "b"},
	}}
	if diff := cmp.Diff(want, req.Body); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, out, 1)
	assert.Equal(t, "i1", out[0].JSON["id"])
	assert.Equal(t, &types.PairedItem{Item: 0}, out[0].PairedItem)
}

func TestCreateLive(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "create",
		"collectionId": "c1",
		"live":         true,
		"fieldsUi":     fieldValues("name", "Live"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/collections/c1/items/live", api.requests[0].Resource)
}

func TestCreateRequiresName(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "create",
		"collectionId": "c1",
		"fieldsUi":     fieldValues("slug", "no-name"),
	}, nil)
	require.Error(t, err)
	assert.Equal(t, `A "name" field is required to create a Webflow CMS item`, err.Error())
	assert.Empty(t, api.requests)

	var itemErr *ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, 0, itemErr.Index)
}

func TestCreateContinueOnFail(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"id": "ok-1"}, map[string]any{"id": "ok-2"})

	names := []string{"First", "", "Third"}
	input := types.ItemsFromJSON([]map[string]any{{"n": 0}, {"n": 1}, {"n": 2}})
	resolver := func(i int, _ types.Item, params map[string]any) (map[string]any, error) {
		out := map[string]any{}
		for k, v := range params {
			out[k] = v
		}
		out["fieldsUi"] = fieldValues("name", names[i])
		return out, nil
	}

	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "create",
		"collectionId": "c1",
	}, input, WithContinueOnFail(true), WithParamResolver(resolver))
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "ok-1", out[0].JSON["id"])
	assert.Equal(t, map[string]any{"error": `A "name" field is required to create a Webflow CMS item`}, out[1].JSON)
	assert.Equal(t, "ok-2", out[2].JSON["id"])
	assert.Equal(t, 2, out[2].PairedItem.Item)
	assert.Len(t, api.requests, 2)
}

func TestUpdateSendsPatch(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"id": "i1"})
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "update",
		"collectionId": "c1",
		"itemId":       "i1",
		"live":         true,
		"fieldsUi":     fieldValues("count", "0x10"),
	}, nil)
	require.NoError(t, err)

	req := api.requests[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/collections/c1/items/i1/live", req.Resource)
	assert.Equal(t, map[string]any{"fieldData": map[string]any{"count": float64(16)}}, req.Body)
}

func TestUpdateWithoutFieldsSendsEmptyFieldData(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "update",
		"collectionId": "c1",
		"itemId":       "i1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fieldData": map[string]any{}}, api.requests[0].Body)
}

func TestGetItem(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"id": "i 1", "isDraft": false})
	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "get",
		"collectionId": "c1",
		"itemId":       "i 1",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, api.requests[0].Method)
	assert.Equal(t, "/collections/c1/items/i%201", api.requests[0].Resource)
	assert.Equal(t, map[string]any{"id": "i 1", "isDraft": false}, out[0].JSON)
}

func TestGetMissingItemID(t *testing.T) {
	api := newFakeAPI(t)
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "get",
		"collectionId": "c1",
	}, nil)
	require.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestDeleteMergesResponse(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"deleted": 1, "extra": "x"})
	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "delete",
		"collectionId": "c1",
		"itemId":       "i1",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, api.requests[0].Method)
	assert.Equal(t, "/collections/c1/items/i1", api.requests[0].Resource)
	assert.Equal(t, map[string]any{
		"success":      true,
		"itemId":       "i1",
		"collectionId": "c1",
		"deleted":      float64(1),
		"extra":        "x",
	}, out[0].JSON)
}

func TestDeleteEmptyResponse(t *testing.T) {
	api := newFakeAPI(t, map[string]any{})
	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "delete",
		"collectionId": "c1",
		"itemId":       "i1",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"success":      true,
		"itemId":       "i1",
		"collectionId": "c1",
		"deleted":      true,
	}, out[0].JSON)
}

func TestGetAllWithLimit(t *testing.T) {
	var items []any
	for i := 0; i < 12; i++ {
		items = append(items, map[string]any{"id": i})
	}
	api := newFakeAPI(t, map[string]any{"items": items})

	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "getAll",
		"collectionId": "c1",
		"returnAll":    false,
		"limit":        10,
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, api.allCalls)
	require.Len(t, api.requests, 1)
	assert.Equal(t, map[string]any{"limit": 10}, api.requests[0].Query)
	assert.Len(t, out, 10)
	for _, it := range out {
		assert.Equal(t, 0, it.PairedItem.Item)
	}
}

func TestGetAllDefaultLimit(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"items": []any{}})
	out, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "getAll",
		"collectionId": "c1",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, DefaultLimit, api.requests[0].Query["limit"])
}

func TestGetAllReturnAll(t *testing.T) {
	api := newFakeAPI(t)
	api.allItems = []map[string]any{{"id": "a"}, {"id": "b"}, {"id": "c"}}

	out, err := run(t, api, map[string]any{
		"resource":         "item",
		"operation":        "getAll",
		"collectionId":     "c1",
		"returnAll":        true,
		"additionalFields": map[string]any{"sort": "-created-on", "filter": "name=Test Item"},
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, api.requests)
	require.Len(t, api.allCalls, 1)
	assert.Equal(t, allItemsCall{
		Method:   http.MethodGet,
		Endpoint: "/collections/c1/items",
		Query:    map[string]any{"sort": "-created-on", "filter[name]": "Test Item"},
	}, api.allCalls[0])
	assert.Equal(t, []map[string]any{{"id": "a"}, {"id": "b"}, {"id": "c"}}, types.JSONOf(out))
}

func TestListOptionsQuery(t *testing.T) {
	tests := []struct {
		name string
		opts listOptions
		want map[string]any
	}{
		{"empty", listOptions{}, map[string]any{}},
		{"sort only", listOptions{Sort: "name"}, map[string]any{"sort": "name"}},
		{"filter", listOptions{Filter: "slug=abc"}, map[string]any{"filter[slug]": "abc"}},
		{"filter without equals", listOptions{Filter: "slug"}, map[string]any{}},
		{"filter with two equals", listOptions{Filter: "a=b=c"}, map[string]any{}},
		{"filter with empty value", listOptions{Filter: "a="}, map[string]any{"filter[a]": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.query())
		})
	}
}

func TestAPIErrorStopsBatch(t *testing.T) {
	apiErr := &webflow.APIError{StatusCode: 404, Message: "Item not found"}
	api := newFakeAPI(t).failOn(0, apiErr)

	input := types.ItemsFromJSON([]map[string]any{{}, {}})
	_, err := run(t, api, map[string]any{
		"resource":     "item",
		"operation":    "get",
		"collectionId": "c1",
		"itemId":       "missing",
	}, input)
	require.Error(t, err)
	assert.Equal(t, "Webflow API error: Item not found", err.Error())
	assert.ErrorIs(t, err, apiErr)
	assert.Len(t, api.requests, 1)
}
