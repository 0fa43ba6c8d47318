package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

// HTTPConnector makes raw authenticated Webflow API calls for endpoints the
// CMS node does not cover (publishing a site, webhooks, assets).
type HTTPConnector struct {
	api webflow.Requester
}

func NewHTTPConnector(api webflow.Requester) *HTTPConnector { return &HTTPConnector{api: api} }

func (h *HTTPConnector) Name() string { return "http" }

func (h *HTTPConnector) Actions() []plugin.ActionDef {
	return []plugin.ActionDef{
		{
			Name:        "request",
			Description: "Make a Webflow API request",
			Input: map[string]types.FieldDef{
				"path":   {Type: "string", Description: "Path relative to the API base URL, e.g. /sites/{id}/publish", Required: false},
				"url":    {Type: "string", Description: "Absolute URL; overrides path", Required: false},
				"method": {Type: "string", Description: "HTTP method (GET, POST, PATCH, PUT, DELETE)", Required: false},
				"query":  {Type: "object", Description: "Query string parameters", Required: false},
				"body":   {Type: "object", Description: "JSON request body", Required: false},
			},
			Output: map[string]types.FieldDef{
				"status_code": {Type: "integer", Description: "HTTP status code"},
				"body":        {Type: "any", Description: "Response body"},
				"headers":     {Type: "object", Description: "Response headers"},
			},
		},
	}
}

func (h *HTTPConnector) Execute(ctx context.Context, action string, input map[string]any) (*types.StepResult, error) {
	if action != "request" {
		return nil, fmt.Errorf("http connector: unknown action %q", action)
	}
	if h.api == nil {
		return nil, fmt.Errorf("http connector: no credentials configured")
	}

	opts := webflow.RequestOptions{
		Method:   http.MethodGet,
		Resource: cast.ToString(input["path"]),
		URI:      cast.ToString(input["url"]),
	}
	if opts.Resource == "" && opts.URI == "" {
		return nil, fmt.Errorf("http connector: 'path' or 'url' is required")
	}
	if m := cast.ToString(input["method"]); m != "" {
		opts.Method = strings.ToUpper(m)
	}

	var err error
	if q, ok := input["query"]; ok && q != nil {
		if opts.Query, err = cast.ToStringMapE(q); err != nil {
			return nil, fmt.Errorf("http connector: 'query' must be an object: %w", err)
		}
	}
	if b, ok := input["body"]; ok && b != nil {
		if opts.Body, err = cast.ToStringMapE(b); err != nil {
			return nil, fmt.Errorf("http connector: 'body' must be an object: %w", err)
		}
	}

	resp, err := h.api.Request(ctx, opts)
	if err != nil {
		return failedResult(err)
	}

	var parsedBody any
	if err := json.Unmarshal(resp.Body, &parsedBody); err != nil {
		parsedBody = string(resp.Body)
	}

	respHeaders := make(map[string]any)
	for k, v := range resp.Header {
		if len(v) == 1 {
			respHeaders[k] = v[0]
		} else {
			respHeaders[k] = v
		}
	}

	return &types.StepResult{
		Status: types.StatusSuccess,
		Output: map[string]any{
			"status_code": resp.StatusCode,
			"body":        parsedBody,
			"headers":     respHeaders,
		},
	}, nil
}

// failedResult turns an API status error into a failed step that still
// reports the status code; other errors abort the step.
func failedResult(err error) (*types.StepResult, error) {
	var apiErr *webflow.APIError
	var httpErr *webflow.HTTPError

	switch {
	case errors.As(err, &apiErr):
		var body any
		if json.Unmarshal(apiErr.Body, &body) != nil {
			body = string(apiErr.Body)
		}
		return &types.StepResult{
			Status: types.StatusFailed,
			Error:  apiErr.Error(),
			Output: map[string]any{"status_code": apiErr.StatusCode, "body": body},
		}, nil
	case errors.As(err, &httpErr):
		return &types.StepResult{
			Status: types.StatusFailed,
			Error:  httpErr.Error(),
			Output: map[string]any{"status_code": httpErr.StatusCode},
		}, nil
	default:
		return nil, fmt.Errorf("http connector: request failed: %w", err)
	}
}

func (h *HTTPConnector) Validate() error {
	if h.api == nil {
		return fmt.Errorf("http connector: no credentials configured")
	}
	return nil
}
