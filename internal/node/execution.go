// Package node implements the Webflow CMS workflow node: the operation
// handlers, the router that picks one, and the declarative property schema
// a form renderer uses to collect parameters.
//
// The host passes everything the node needs through ExecuteFunctions;
// nothing is read from globals.
package node

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

// API is the part of the Webflow client the handlers call.
type API interface {
	webflow.Requester
	RequestAllItems(ctx context.Context, method, endpoint string, body, query map[string]any) ([]map[string]any, error)
}

// ExecuteFunctions is the capability bundle supplied by the host for one
// node invocation.
type ExecuteFunctions interface {
	// InputData returns the batch being processed. It is never empty.
	InputData() []types.Item

	// Param returns the value of a (possibly dotted) parameter as resolved
	// for item itemIndex. When the parameter is absent the first fallback
	// is returned, or an error if none was given.
	Param(name string, itemIndex int, fallback ...any) (any, error)

	ContinueOnFail() bool
	API() API
	Logger() *zap.SugaredLogger
}

// ParamResolver resolves the static parameter set against input item
// itemIndex, e.g. expanding per-item expressions.
type ParamResolver func(itemIndex int, item types.Item, params map[string]any) (map[string]any, error)

// Execution is the standard ExecuteFunctions implementation.
type Execution struct {
	items          []types.Item
	params         map[string]any
	resolve        ParamResolver
	resolved       map[int]map[string]any
	api            API
	continueOnFail bool
	log            *zap.SugaredLogger
}

type ExecutionOption func(*Execution)

func WithContinueOnFail(enabled bool) ExecutionOption {
	return func(e *Execution) { e.continueOnFail = enabled }
}

func WithParamResolver(r ParamResolver) ExecutionOption {
	return func(e *Execution) { e.resolve = r }
}

func WithLogger(l *zap.SugaredLogger) ExecutionOption {
	return func(e *Execution) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExecution builds an execution over items with the given parameters.
// An empty batch is replaced by a single empty item so that manually
// triggered runs still execute once.
func NewExecution(items []types.Item, params map[string]any, api API, opts ...ExecutionOption) *Execution {
	if len(items) == 0 {
		items = []types.Item{{JSON: map[string]any{}}}
	}
	if params == nil {
		params = map[string]any{}
	}
	e := &Execution{
		items:    items,
		params:   params,
		resolved: make(map[int]map[string]any),
		api:      api,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Execution) InputData() []types.Item    { return e.items }
func (e *Execution) ContinueOnFail() bool       { return e.continueOnFail }
func (e *Execution) API() API                   { return e.api }
func (e *Execution) Logger() *zap.SugaredLogger { return e.log }

func (e *Execution) Param(name string, itemIndex int, fallback ...any) (any, error) {
	params, err := e.paramsFor(itemIndex)
	if err != nil {
		return nil, err
	}

	if v, ok := lookup(params, name); ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return nil, fmt.Errorf("Could not get parameter %q", name)
}

func (e *Execution) paramsFor(itemIndex int) (map[string]any, error) {
	if e.resolve == nil {
		return e.params, nil
	}
	if p, ok := e.resolved[itemIndex]; ok {
		return p, nil
	}
	if itemIndex < 0 || itemIndex >= len(e.items) {
		return nil, fmt.Errorf("item index %d out of range", itemIndex)
	}

	p, err := e.resolve(itemIndex, e.items[itemIndex], e.params)
	if err != nil {
		return nil, fmt.Errorf("resolving parameters for item %d: %w", itemIndex, err)
	}
	e.resolved[itemIndex] = p
	return p, nil
}

// lookup walks a dotted path through nested objects.
func lookup(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
