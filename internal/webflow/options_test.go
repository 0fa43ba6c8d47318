package webflow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSites(t *testing.T) {
	api := newFakeAPI(t, fakeResponse{status: http.StatusOK, body: `{
		"sites": [
			{"id": "s1", "displayName": "Marketing", "domain": "example.com"},
			{"id": "s2", "name": "Legacy"},
			{"id": "s3", "displayName": "Shop", "customDomains": [{"id": "d1", "url": "shop.example.com"}]}
		]
	}`})

	got, err := LoadSites(context.Background(), api.client())
	require.NoError(t, err)

	assert.Equal(t, []Option{
		{Name: "Marketing", Value: "s1", Description: "Domain: example.com"},
		{Name: "Legacy", Value: "s2"},
		{Name: "Shop", Value: "s3", Description: "Domain: shop.example.com"},
	}, got)
	assert.Equal(t, "/v2/sites", api.recorded()[0].Path)
}

func TestLoadCollections(t *testing.T) {
	api := newFakeAPI(t, fakeResponse{status: http.StatusOK, body: `{
		"collections": [
			{"id": "c1", "displayName": "Blog Posts", "slug": "post"},
			{"id": "c2", "name": "Authors"}
		]
	}`})

	got, err := LoadCollections(context.Background(), api.client(), "s1")
	require.NoError(t, err)

	assert.Equal(t, []Option{
		{Name: "Blog Posts", Value: "c1", Description: "Slug: post"},
		{Name: "Authors", Value: "c2"},
	}, got)
	assert.Equal(t, "/v2/sites/s1/collections", api.recorded()[0].Path)
}

func TestLoadersWithoutUpstreamSelection(t *testing.T) {
	called := false
	r := requesterFunc(func(_ context.Context, _ RequestOptions) (*Response, error) {
		called = true
		return nil, errors.New("should not be called")
	})

	collections, err := LoadCollections(context.Background(), r, "")
	require.NoError(t, err)
	assert.Empty(t, collections)

	fields, err := LoadFields(context.Background(), r, "")
	require.NoError(t, err)
	assert.Empty(t, fields)

	assert.False(t, called)
}

func TestLoadCollectionsWrapsErrors(t *testing.T) {
	api := newFakeAPI(t, fakeResponse{status: http.StatusForbidden, body: `{"message":"Missing scopes"}`})

	_, err := LoadCollections(context.Background(), api.client(), "s1")
	require.Error(t, err)
	assert.Equal(t, "Error loading collections: Webflow API error: Missing scopes", err.Error())

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestLoadFields(t *testing.T) {
	api := newFakeAPI(t, fakeResponse{status: http.StatusOK, body: `{
		"id": "c1",
		"displayName": "Blog Posts",
		"fields": [
			{"id": "f0", "slug": "_archived", "displayName": "Archived", "type": "Switch"},
			{"id": "f1", "slug": "name", "displayName": "Name", "type": "PlainText", "isRequired": true, "helpText": "Title of the post"},
			{"id": "f2", "slug": "body", "displayName": "Body", "type": "RichText"},
			{"id": "f3", "name": "Legacy", "required": true},
			{"id": "f4", "slug": "_draft", "type": "Switch"}
		]
	}`})

	got, err := LoadFields(context.Background(), api.client(), "c1")
	require.NoError(t, err)

	assert.Equal(t, []Option{
		{Name: "Name (required) (PlainText)", Value: "name", Description: "Title of the post"},
		{Name: "Body (RichText)", Value: "body"},
		{Name: "Legacy (required)", Value: "f3"},
	}, got)
	assert.Equal(t, "/v2/collections/c1", api.recorded()[0].Path)
}

func TestLoadFieldsInvalidSchema(t *testing.T) {
	api := newFakeAPI(t, fakeResponse{status: http.StatusOK, body: `{"id":"c1","fields":{"not":"an array"}}`})

	_, err := LoadFields(context.Background(), api.client(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.EqualError(t, err, "Error loading fields: Invalid collection schema format")
}

func TestLoadFieldsWithoutFieldsKey(t *testing.T) {
	for _, body := range []string{
		`{"id":"c1","displayName":"Posts"}`,
		`{"id":"c1","displayName":"Posts","fields":null}`,
	} {
		api := newFakeAPI(t, fakeResponse{status: http.StatusOK, body: body})

		got, err := LoadFields(context.Background(), api.client(), "c1")
		require.NoError(t, err, body)
		assert.Equal(t, []Option{}, got, body)
	}
}

func TestParseCollectionSchemaKeepsRawAttributes(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{
		"displayName": "Posts",
		"fields": [{"id": "f1", "slug": "name", "type": "PlainText", "validations": {"maxLength": 256}}]
	}`)}

	schema, err := ParseCollectionSchema(resp)
	require.NoError(t, err)
	require.Len(t, schema.Fields, 1)
	assert.Equal(t, "Posts", schema.Label())
	assert.Equal(t, map[string]any{"maxLength": float64(256)}, schema.Fields[0].Raw["validations"])
}

func TestParseCollectionSchemaMissingFields(t *testing.T) {
	_, err := ParseCollectionSchema(&Response{Body: []byte(`{"id":"c1"}`)})
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = ParseCollectionSchema(&Response{Body: []byte(`{"fields":null}`)})
	assert.ErrorIs(t, err, ErrInvalidSchema)
}
