package webflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requesterFunc func(ctx context.Context, opts RequestOptions) (*Response, error)

func (f requesterFunc) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	return f(ctx, opts)
}

func jsonResponse(t *testing.T, v any) *Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &Response{StatusCode: http.StatusOK, Body: data}
}

// pagedCollection serves total items, honouring limit and offset, and
// records the offsets it was asked for.
func pagedCollection(t *testing.T, total int, offsets *[]int) Requester {
	return requesterFunc(func(_ context.Context, opts RequestOptions) (*Response, error) {
		limit := cast.ToInt(opts.Query["limit"])
		offset := cast.ToInt(opts.Query["offset"])
		*offsets = append(*offsets, offset)

		items := []map[string]any{}
		for i := offset; i < offset+limit && i < total; i++ {
			items = append(items, map[string]any{"id": fmt.Sprintf("item-%d", i)})
		}
		return jsonResponse(t, map[string]any{
			"items":      items,
			"pagination": map[string]any{"limit": limit, "offset": offset, "total": total},
		}), nil
	})
}

func TestRequestAllItemsWalksPages(t *testing.T) {
	var offsets []int
	items, err := RequestAllItems(context.Background(), pagedCollection(t, 250, &offsets), http.MethodGet, "/collections/c1/items", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 100, 200}, offsets)
	require.Len(t, items, 250)
	assert.Equal(t, "item-0", items[0]["id"])
	assert.Equal(t, "item-249", items[249]["id"])
}

func TestRequestAllItemsSinglePage(t *testing.T) {
	var offsets []int
	items, err := RequestAllItems(context.Background(), pagedCollection(t, 50, &offsets), http.MethodGet, "/collections/c1/items", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, offsets)
	assert.Len(t, items, 50)
}

func TestRequestAllItemsStopsWithoutOffset(t *testing.T) {
	calls := 0
	r := requesterFunc(func(_ context.Context, _ RequestOptions) (*Response, error) {
		calls++
		return jsonResponse(t, map[string]any{
			"items":      []map[string]any{{"id": "a"}},
			"pagination": map[string]any{"total": 500},
		}), nil
	})

	items, err := RequestAllItems(context.Background(), r, http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, items, 1)
}

func TestRequestAllItemsKeepsQueryAndDoesNotMutateIt(t *testing.T) {
	var seen []map[string]any
	r := requesterFunc(func(_ context.Context, opts RequestOptions) (*Response, error) {
		copied := map[string]any{}
		for k, v := range opts.Query {
			copied[k] = v
		}
		seen = append(seen, copied)
		return jsonResponse(t, map[string]any{"items": []any{}}), nil
	})

	query := map[string]any{"sort": "-created-on", "filter[name]": "x"}
	_, err := RequestAllItems(context.Background(), r, http.MethodGet, "/x", nil, query)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, map[string]any{"sort": "-created-on", "filter[name]": "x", "limit": 100, "offset": 0}, seen[0])
	assert.Equal(t, map[string]any{"sort": "-created-on", "filter[name]": "x"}, query)
}

// The offset advances by the page size even when the server returns a
// short page. With a server capped at 40 items per page the client asks
// for offsets 0, 100, 200 and skips items 40..99 and 140..199.
func TestRequestAllItemsAdvancesByPageSizeOnShortPages(t *testing.T) {
	var offsets []int
	r := requesterFunc(func(_ context.Context, opts RequestOptions) (*Response, error) {
		offset := cast.ToInt(opts.Query["offset"])
		offsets = append(offsets, offset)

		if offset >= 120 {
			return jsonResponse(t, map[string]any{
				"items":      []any{},
				"pagination": map[string]any{"total": 120},
			}), nil
		}

		items := []map[string]any{}
		for i := offset; i < offset+40 && i < 120; i++ {
			items = append(items, map[string]any{"id": i})
		}
		return jsonResponse(t, map[string]any{
			"items":      items,
			"pagination": map[string]any{"limit": 40, "offset": offset, "total": 120},
		}), nil
	})

	items, err := RequestAllItems(context.Background(), r, http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 100, 200}, offsets)
	assert.Len(t, items, 60)
}

func TestRequestAllItemsKeepsNonObjectEntries(t *testing.T) {
	r := requesterFunc(func(_ context.Context, _ RequestOptions) (*Response, error) {
		return &Response{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"items":[{"id":"a"},"junk",null,{"id":"b"}],"pagination":{"limit":100,"offset":0,"total":4}}`),
		}, nil
	})

	items, err := RequestAllItems(context.Background(), r, http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"id": "a"},
		{"value": "junk"},
		{"value": nil},
		{"id": "b"},
	}, items)
}

func TestItemPageDecodesMissingItems(t *testing.T) {
	var page ItemPage
	require.NoError(t, json.Unmarshal([]byte(`{"pagination":{"total":0}}`), &page))

	assert.Empty(t, page.Items)
	require.NotNil(t, page.Pagination)
}

func TestRequestAllItemsPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := requesterFunc(func(_ context.Context, _ RequestOptions) (*Response, error) {
		return nil, boom
	})

	_, err := RequestAllItems(context.Background(), r, http.MethodGet, "/x", nil, nil)
	assert.ErrorIs(t, err, boom)
}
