package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"webflowcms/internal/node"
	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

// ErrNotConfigured is returned by the webflow connector when no API client
// was supplied, typically because no credentials are configured.
var ErrNotConfigured = errors.New("webflow connector: no credentials configured")

// Reserved step input keys; everything else is a node parameter.
const (
	inputItems          = "items"
	inputContinueOnFail = "continueOnFail"
)

// WebflowConnector exposes the Webflow CMS node to flows. Actions are
// named "<resource>.<operation>" plus "options.<loader>".
type WebflowConnector struct {
	api    node.API
	router *node.Router
	log    *zap.SugaredLogger
}

type WebflowOption func(*WebflowConnector)

func WithRouter(r *node.Router) WebflowOption {
	return func(w *WebflowConnector) { w.router = r }
}

func WithConnectorLogger(l *zap.SugaredLogger) WebflowOption {
	return func(w *WebflowConnector) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWebflowConnector creates the connector. api may be nil, in which case
// the connector is listed and validated but every Execute fails with
// ErrNotConfigured.
func NewWebflowConnector(api node.API, opts ...WebflowOption) *WebflowConnector {
	w := &WebflowConnector{
		api:    api,
		router: node.DefaultRouter(),
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebflowConnector) Name() string { return "webflow" }

func (w *WebflowConnector) Actions() []plugin.ActionDef {
	var actions []plugin.ActionDef

	for _, op := range node.Operations() {
		input := map[string]types.FieldDef{
			inputItems:          {Type: "array", Description: "Input items; parameters may reference ${{ item.* }}"},
			inputContinueOnFail: {Type: "boolean", Description: "Record per-item failures as {error} items instead of failing the step"},
		}
		for _, p := range node.PropertiesFor(op.Resource, op.Name) {
			input[p.Name] = p.FieldDef()
		}
		actions = append(actions, plugin.ActionDef{
			Name:        op.Resource + "." + op.Name,
			Description: op.Description,
			Input:       input,
			Output: map[string]types.FieldDef{
				"items": {Type: "array", Description: "Output item payloads"},
				"count": {Type: "integer", Description: "Number of output items"},
			},
		})
	}

	optionsOutput := map[string]types.FieldDef{
		"options": {Type: "array", Description: "{name, value, description} choices"},
		"count":   {Type: "integer", Description: "Number of choices"},
	}
	actions = append(actions,
		plugin.ActionDef{
			Name:        "options.sites",
			Description: "List sites for a site picker",
			Output:      optionsOutput,
		},
		plugin.ActionDef{
			Name:        "options.collections",
			Description: "List collections of a site",
			Input: map[string]types.FieldDef{
				"siteId": {Type: "string", Description: "Site ID", Required: true},
			},
			Output: optionsOutput,
		},
		plugin.ActionDef{
			Name:        "options.fields",
			Description: "List editable fields of a collection",
			Input: map[string]types.FieldDef{
				"collectionId": {Type: "string", Description: "Collection ID", Required: true},
			},
			Output: optionsOutput,
		},
	)
	return actions
}

func (w *WebflowConnector) Execute(ctx context.Context, action string, input map[string]any) (*types.StepResult, error) {
	resource, operation, ok := strings.Cut(action, ".")
	if !ok {
		return nil, fmt.Errorf("webflow connector: unknown action %q", action)
	}
	if w.api == nil {
		return nil, ErrNotConfigured
	}

	if resource == "options" {
		return w.loadOptions(ctx, operation, input)
	}

	params := make(map[string]any, len(input)+2)
	for k, v := range input {
		if k == inputItems || k == inputContinueOnFail {
			continue
		}
		params[k] = v
	}
	params["resource"] = resource
	params["operation"] = operation

	items, err := toItems(input[inputItems])
	if err != nil {
		return nil, fmt.Errorf("webflow connector: %w", err)
	}

	opts := []node.ExecutionOption{
		node.WithContinueOnFail(cast.ToBool(input[inputContinueOnFail])),
		node.WithLogger(w.log),
	}
	if resolve, ok := plugin.ItemResolverFrom(ctx); ok {
		opts = append(opts, node.WithParamResolver(func(_ int, item types.Item, p map[string]any) (map[string]any, error) {
			return resolve(item.JSON, p)
		}))
	}

	out, err := w.router.Execute(ctx, node.NewExecution(items, params, w.api, opts...))
	if err != nil {
		return nil, err
	}

	payloads := make([]any, len(out))
	for i, it := range out {
		payloads[i] = it.JSON
	}
	return &types.StepResult{
		Status: types.StatusSuccess,
		Output: map[string]any{
			"items": payloads,
			"count": len(payloads),
		},
	}, nil
}

func (w *WebflowConnector) loadOptions(ctx context.Context, loader string, input map[string]any) (*types.StepResult, error) {
	var (
		opts []webflow.Option
		err  error
	)
	switch loader {
	case "sites":
		opts, err = webflow.LoadSites(ctx, w.api)
	case "collections":
		opts, err = webflow.LoadCollections(ctx, w.api, cast.ToString(input["siteId"]))
	case "fields":
		opts, err = webflow.LoadFields(ctx, w.api, cast.ToString(input["collectionId"]))
	default:
		return nil, fmt.Errorf("webflow connector: unknown action %q", "options."+loader)
	}
	if err != nil {
		return nil, err
	}

	list := make([]any, len(opts))
	for i, o := range opts {
		list[i] = map[string]any{"name": o.Name, "value": o.Value, "description": o.Description}
	}
	return &types.StepResult{
		Status: types.StatusSuccess,
		Output: map[string]any{"options": list, "count": len(list)},
	}, nil
}

func (w *WebflowConnector) Validate() error {
	if w.api == nil {
		return ErrNotConfigured
	}
	return nil
}

// toItems converts the "items" step input into node items. A missing value
// yields no items; the node then runs once on an empty item.
func toItems(v any) ([]types.Item, error) {
	if v == nil {
		return nil, nil
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%q must be a list of objects: %w", inputItems, err)
	}

	items := make([]types.Item, len(list))
	for i, raw := range list {
		obj, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("%q[%d] must be an object: %w", inputItems, i, err)
		}
		items[i] = types.Item{JSON: obj}
	}
	return items, nil
}
