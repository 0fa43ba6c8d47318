package webflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSchema is returned when a collection response does not carry a
// fields array.
var ErrInvalidSchema = errors.New("Invalid collection schema format")

// Site is a Webflow site as returned by GET /sites.
type Site struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"displayName"`
	Name          string         `json:"name"`
	ShortName     string         `json:"shortName"`
	Domain        string         `json:"domain"`
	CustomDomains []CustomDomain `json:"customDomains"`
}

type CustomDomain struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PrimaryDomain returns the site's domain, falling back to its first
// custom domain.
func (s Site) PrimaryDomain() string {
	if s.Domain != "" {
		return s.Domain
	}
	if len(s.CustomDomains) > 0 {
		return s.CustomDomains[0].URL
	}
	return ""
}

type SiteList struct {
	Sites []Site `json:"sites"`
}

// Collection is the summary form returned by GET /sites/{id}/collections.
type Collection struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Name         string `json:"name"`
	SingularName string `json:"singularName"`
	Slug         string `json:"slug"`
}

type CollectionList struct {
	Collections []Collection `json:"collections"`
}

// FieldDefinition is one entry of a collection schema. Raw keeps every
// attribute the API sent, including ones not modelled here.
type FieldDefinition struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	HelpText    string `json:"helpText"`
	Required    bool   `json:"required"`
	IsRequired  bool   `json:"isRequired"`

	Raw map[string]any `json:"-"`
}

func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	type plain FieldDefinition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Raw); err != nil {
		return err
	}
	*f = FieldDefinition(p)
	return nil
}

// Key is the identifier used in fieldData: the slug, else the id.
func (f FieldDefinition) Key() string {
	if f.Slug != "" {
		return f.Slug
	}
	return f.ID
}

// Label is the human-readable name of the field.
func (f FieldDefinition) Label() string {
	switch {
	case f.DisplayName != "":
		return f.DisplayName
	case f.Name != "":
		return f.Name
	default:
		return f.Key()
	}
}

// IsRequiredField reports whether either the v2 "isRequired" flag or the
// older "required" flag is set.
func (f FieldDefinition) IsRequiredField() bool {
	return f.Required || f.IsRequired
}

// CollectionSchema is the detailed form returned by GET /collections/{id}.
type CollectionSchema struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Fields      []FieldDefinition `json:"fields"`
}

// Label returns the display name of the collection.
func (c CollectionSchema) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// ParseCollectionSchema decodes a collection response, failing with
// ErrInvalidSchema when "fields" is absent or not an array.
func ParseCollectionSchema(resp *Response) (*CollectionSchema, error) {
	return parseCollectionSchema(resp, true)
}

// parseCollectionSchema decodes a collection response. A "fields" value
// that is present but not an array is always ErrInvalidSchema; a missing or
// null one is only an error when strict.
func parseCollectionSchema(resp *Response, strict bool) (*CollectionSchema, error) {
	var envelope struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	raw := bytes.TrimSpace(envelope.Fields)
	missing := len(raw) == 0 || bytes.Equal(raw, []byte("null"))
	if (missing && strict) || (!missing && raw[0] != '[') {
		return nil, ErrInvalidSchema
	}

	var schema CollectionSchema
	if err := resp.Decode(&schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if schema.Fields == nil {
		schema.Fields = []FieldDefinition{}
	}
	return &schema, nil
}

// Pagination is the paging envelope of list responses. Offset is a pointer
// because its absence ends pagination.
type Pagination struct {
	Limit  int  `json:"limit"`
	Offset *int `json:"offset"`
	Total  int  `json:"total"`
}

// ItemPage is one page of GET /collections/{id}/items. Entries of "items"
// that are not objects are kept as {"value": <entry>}, so one odd entry
// neither fails the page nor changes the item count paging relies on.
type ItemPage struct {
	Items      []map[string]any `json:"items"`
	Pagination *Pagination      `json:"pagination"`
}

func (p *ItemPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items      []any       `json:"items"`
		Pagination *Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Pagination = raw.Pagination
	p.Items = make([]map[string]any, 0, len(raw.Items))
	for _, entry := range raw.Items {
		if obj, ok := entry.(map[string]any); ok {
			p.Items = append(p.Items, obj)
			continue
		}
		p.Items = append(p.Items, map[string]any{"value": entry})
	}
	return nil
}
