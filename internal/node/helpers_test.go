package node

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

type allItemsCall struct {
	Method   string
	Endpoint string
	Query    map[string]any
}

// fakeAPI replays canned responses in order and records every call.
type fakeAPI struct {
	t         *testing.T
	responses []any
	errs      map[int]error
	requests  []webflow.RequestOptions
	allCalls  []allItemsCall
	allItems  []map[string]any
}

func newFakeAPI(t *testing.T, responses ...any) *fakeAPI {
	return &fakeAPI{t: t, responses: responses, errs: map[int]error{}}
}

// failOn makes the n-th request (zero based) return err.
func (f *fakeAPI) failOn(n int, err error) *fakeAPI {
	f.errs[n] = err
	return f
}

func (f *fakeAPI) Request(_ context.Context, opts webflow.RequestOptions) (*webflow.Response, error) {
	n := len(f.requests)
	f.requests = append(f.requests, opts)
	if err, ok := f.errs[n]; ok {
		return nil, err
	}

	var body any = map[string]any{}
	if n < len(f.responses) {
		body = f.responses[n]
	}
	data, err := json.Marshal(body)
	require.NoError(f.t, err)
	return &webflow.Response{StatusCode: http.StatusOK, Body: data}, nil
}

func (f *fakeAPI) RequestAllItems(_ context.Context, method, endpoint string, _, query map[string]any) ([]map[string]any, error) {
	f.allCalls = append(f.allCalls, allItemsCall{Method: method, Endpoint: endpoint, Query: query})
	return f.allItems, nil
}

func run(t *testing.T, api API, params map[string]any, items []types.Item, opts ...ExecutionOption) ([]types.Item, error) {
	t.Helper()
	ef := NewExecution(items, params, api, opts...)
	return DefaultRouter().Execute(context.Background(), ef)
}

func fieldValues(pairs ...string) map[string]any {
	var values []any
	for i := 0; i+1 < len(pairs); i += 2 {
		values = append(values, map[string]any{"fieldId": pairs[i], "fieldValue": pairs[i+1]})
	}
	return map[string]any{"fieldValues": values}
}
