package node

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

type fieldListOptions struct {
	IncludeSystemFields bool  `mapstructure:"includeSystemFields"`
	IncludeMetadata     *bool `mapstructure:"includeMetadata"`
}

func (o fieldListOptions) metadata() bool {
	return o.IncludeMetadata == nil || *o.IncludeMetadata
}

func executeGetFields(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error) {
	return forEachItem(ctx, ef, items, func(i int) ([]types.Item, error) {
		collectionID, err := requiredString(ef, "collectionId", i)
		if err != nil {
			return nil, err
		}
		var opts fieldListOptions
		if err := decodeParam(ef, "options", i, &opts); err != nil {
			return nil, err
		}

		resp, err := ef.API().Request(ctx, webflow.RequestOptions{
			Method:   http.MethodGet,
			Resource: "/collections/" + url.PathEscape(collectionID),
		})
		if err != nil {
			return nil, err
		}

		schema, err := webflow.ParseCollectionSchema(resp)
		if err != nil {
			if errors.Is(err, webflow.ErrInvalidSchema) {
				return nil, errNoFields{}
			}
			return nil, err
		}

		fields := make([]any, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			if !opts.IncludeSystemFields && webflow.IsSystemField(f.Slug) {
				continue
			}
			fields = append(fields, describeField(f, opts.metadata()))
		}

		out := map[string]any{
			"collectionId":   collectionID,
			"collectionName": schema.Label(),
			"totalFields":    len(fields),
			"fields":         fields,
		}
		return []types.Item{types.NewItem(out, i)}, nil
	})
}

// describeField returns the full field object, or only name, slug, type
// and required when metadata is off.
func describeField(f webflow.FieldDefinition, metadata bool) map[string]any {
	if metadata {
		full := make(map[string]any, len(f.Raw))
		for k, v := range f.Raw {
			full[k] = v
		}
		return full
	}

	name := f.DisplayName
	if name == "" {
		name = f.Name
	}
	return map[string]any{
		"name":     name,
		"slug":     f.Slug,
		"type":     f.Type,
		"required": f.IsRequiredField(),
	}
}

// errNoFields is the getFields failure for a response without a fields
// array. It matches webflow.ErrInvalidSchema.
type errNoFields struct{}

func (errNoFields) Error() string { return "Invalid response format or collection has no fields" }
func (errNoFields) Unwrap() error { return webflow.ErrInvalidSchema }
