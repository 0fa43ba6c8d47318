package webflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Option is one choice of a selection list.
type Option struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// LoadSites lists the sites the credential can access.
func LoadSites(ctx context.Context, r Requester) ([]Option, error) {
	resp, err := r.Request(ctx, RequestOptions{Method: http.MethodGet, Resource: "/sites"})
	if err != nil {
		return nil, err
	}

	var list SiteList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(list.Sites))
	for _, site := range list.Sites {
		opt := Option{Name: site.DisplayName, Value: site.ID}
		if opt.Name == "" {
			opt.Name = site.Name
		}
		if domain := site.PrimaryDomain(); domain != "" {
			opt.Description = "Domain: " + domain
		}
		options = append(options, opt)
	}
	return options, nil
}

// LoadCollections lists the collections of siteID. An empty siteID yields
// an empty list without calling the API.
func LoadCollections(ctx context.Context, r Requester, siteID string) ([]Option, error) {
	if siteID == "" {
		return []Option{}, nil
	}

	resp, err := r.Request(ctx, RequestOptions{
		Method:   http.MethodGet,
		Resource: "/sites/" + url.PathEscape(siteID) + "/collections",
	})
	if err != nil {
		return nil, fmt.Errorf("Error loading collections: %w", err)
	}

	var list CollectionList
	if err := resp.Decode(&list); err != nil {
		return nil, fmt.Errorf("Error loading collections: %w", err)
	}

	options := make([]Option, 0, len(list.Collections))
	for _, c := range list.Collections {
		opt := Option{Name: c.DisplayName, Value: c.ID}
		if opt.Name == "" {
			opt.Name = c.Name
		}
		if c.Slug != "" {
			opt.Description = "Slug: " + c.Slug
		}
		options = append(options, opt)
	}
	return options, nil
}

// LoadFields lists the user-editable fields of collectionID, annotated with
// requiredness and type. An empty collectionID yields an empty list.
func LoadFields(ctx context.Context, r Requester, collectionID string) ([]Option, error) {
	if collectionID == "" {
		return []Option{}, nil
	}

	resp, err := r.Request(ctx, RequestOptions{
		Method:   http.MethodGet,
		Resource: "/collections/" + url.PathEscape(collectionID),
	})
	if err != nil {
		return nil, fmt.Errorf("Error loading fields: %w", err)
	}

	// A collection without a fields key has nothing to pick from.
	schema, err := parseCollectionSchema(resp, false)
	if err != nil {
		return nil, fmt.Errorf("Error loading fields: %w", err)
	}

	options := make([]Option, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if IsSystemField(f.Slug) {
			continue
		}

		name := f.Label()
		if f.IsRequiredField() {
			name += " (required)"
		}
		if f.Type != "" {
			name += fmt.Sprintf(" (%s)", f.Type)
		}

		options = append(options, Option{
			Name:        name,
			Value:       f.Key(),
			Description: f.HelpText,
		})
	}
	return options, nil
}
