package webflow

import (
	"context"

	"github.com/spf13/cast"
)

// DefaultPageSize is the page size used by RequestAllItems when the query
// does not set a limit.
const DefaultPageSize = 100

// RequestAllItems walks a list endpoint and concatenates every page's items.
//
// Paging continues while the response carries pagination.offset and fewer
// than pagination.total items have been collected. The offset advances by
// the page size, not by the number of items a page returned, and there is
// no client-side cap on the number of requests.
func RequestAllItems(ctx context.Context, r Requester, method, endpoint string, body, query map[string]any) ([]map[string]any, error) {
	q := make(map[string]any, len(query)+2)
	for k, v := range query {
		q[k] = v
	}

	limit := cast.ToInt(q["limit"])
	if limit == 0 {
		limit = DefaultPageSize
	}
	offset := cast.ToInt(q["offset"])
	q["limit"] = limit

	items := make([]map[string]any, 0)
	for {
		q["offset"] = offset

		resp, err := r.Request(ctx, RequestOptions{
			Method:   method,
			Resource: endpoint,
			Body:     body,
			Query:    q,
		})
		if err != nil {
			return nil, err
		}

		var page ItemPage
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.Pagination == nil || page.Pagination.Offset == nil {
			break
		}
		offset += limit

		if len(items) >= page.Pagination.Total {
			break
		}
	}

	return items, nil
}

// RequestAllItems is the method form of the package-level helper.
func (c *Client) RequestAllItems(ctx context.Context, method, endpoint string, body, query map[string]any) ([]map[string]any, error) {
	return RequestAllItems(ctx, c, method, endpoint, body, query)
}
