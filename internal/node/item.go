package node

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

func itemsEndpoint(collectionID string) string {
	return "/collections/" + url.PathEscape(collectionID) + "/items"
}

func itemEndpoint(collectionID, itemID string) string {
	return itemsEndpoint(collectionID) + "/" + url.PathEscape(itemID)
}

func withLive(endpoint string, live bool) string {
	if live {
		return endpoint + "/live"
	}
	return endpoint
}

func executeCreate(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		fields, err := fieldValuesParam(ef, i)
		if err != nil {
			return nil, err
		}
		live, err := boolParam(ef, "live", i, false)
		if err != nil {
			return nil, err
		}

		fieldData := webflow.ProcessFieldData(fields)
		if !truthy(fieldData["name"]) {
			return nil, errors.New(`A "name" field is required to create a Webflow CMS item`)
		}

		resp, err := ef.API().Request(ctx, webflow.RequestOptions{
			Method:   http.MethodPost,
			Resource: withLive(itemsEndpoint(collectionID), live),
			Body:     map[string]any{"fieldData": fieldData},
		})
		if err != nil {
			return nil, err
		}
		return singleItem(resp, i)
	})
}

func executeUpdate(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		itemID, err := requiredString(ef, "itemId", i)
		if err != nil {
			return nil, err
		}
		live, err := boolParam(ef, "live", i, false)
		if err != nil {
			return nil, err
		}
		fields, err := fieldValuesParam(ef, i)
		if err != nil {
			return nil, err
		}

		resp, err := ef.API().Request(ctx, webflow.RequestOptions{
			Method:   http.MethodPatch,
			Resource: withLive(itemEndpoint(collectionID, itemID), live),
			Body:     map[string]any{"fieldData": webflow.ProcessFieldData(fields)},
		})
		if err != nil {
			return nil, err
		}
		return singleItem(resp, i)
	})
}

func executeDelete(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		itemID, err := requiredString(ef, "itemId", i)
		if err != nil {
			return nil, err
		}

		resp, err := ef.API().Request(ctx, webflow.RequestOptions{
			Method:   http.MethodDelete,
			Resource: itemEndpoint(collectionID, itemID),
		})
		if err != nil {
			return nil, err
		}
		body, err := resp.Object()
		if err != nil {
			return nil, err
		}

		out := map[string]any{
			"success":      true,
			"itemId":       itemID,
			"collectionId": collectionID,
			"deleted":      true,
		}
		for k, v := range body {
			out[k] = v
		}
		return []types.Item{types.NewItem(out, i)}, nil
	})
}

func executeGet(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		itemID, err := requiredString(ef, "itemId", i)
		if err != nil {
			return nil, err
		}

		resp, err := ef.API().Request(ctx, webflow.RequestOptions{
			Method:   http.MethodGet,
			Resource: itemEndpoint(collectionID, itemID),
		})
		if err != nil {
			return nil, err
		}
		return singleItem(resp, i)
	})
}

// listOptions are the "additionalFields" of getAll.
type listOptions struct {
	Sort   string `mapstructure:"sort"`
	Filter string `mapstructure:"filter"`
}

// query builds the list query. A filter must be exactly "field=value";
// anything else is ignored.
func (o listOptions) query() map[string]any {
	qs := map[string]any{}
	if o.Sort != "" {
		qs["sort"] = o.Sort
	}
	if o.Filter != "" {
		if parts := strings.Split(o.Filter, "="); len(parts) == 2 {
			qs["filter["+parts[0]+"]"] = parts[1]
		}
	}
	return qs
}

// DefaultLimit is the page size of getAll when "return all" is off and no
// limit was given.
const DefaultLimit = 50

func executeGetAll(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		returnAll, err := boolParam(ef, "returnAll", i, false)
		if err != nil {
			return nil, err
		}
		var opts listOptions
		if err := decodeParam(ef, "additionalFields", i, &opts); err != nil {
			return nil, err
		}

		endpoint := itemsEndpoint(collectionID)
		qs := opts.query()

		var results []map[string]any
		if returnAll {
			results, err = ef.API().RequestAllItems(ctx, http.MethodGet, endpoint, nil, qs)
			if err != nil {
				return nil, err
			}
		} else {
			limit, err := intParam(ef, "limit", i, DefaultLimit)
			if err != nil {
				return nil, err
			}
			qs["limit"] = limit

			resp, err := ef.API().Request(ctx, webflow.RequestOptions{
				Method:   http.MethodGet,
				Resource: endpoint,
				Query:    qs,
			})
			if err != nil {
				return nil, err
			}
			var page webflow.ItemPage
			if err := resp.Decode(&page); err != nil {
				return nil, err
			}
			results = page.Items
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
		}

		out := make([]types.Item, len(results))
		for j, r := range results {
			out[j] = types.NewItem(r, i)
		}
		return out, nil
	})
}

func singleItem(resp *webflow.Response, i int) ([]types.Item, error) {
	body, err := resp.Object()
	if err != nil {
		return nil, err
	}
	return []types.Item{types.NewItem(body, i)}, nil
}
