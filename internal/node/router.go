package node

import (
	"context"
	"fmt"
	"sort"

	"webflowcms/internal/types"
)

// Handler runs one operation over the whole input batch.
type Handler func(ctx context.Context, ef ExecuteFunctions, items []types.Item) ([]types.Item, error)

// Router dispatches an invocation to the handler registered for its
// resource and operation.
type Router struct {
	handlers map[string]map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]map[string]Handler)}
}

// DefaultRouter has every Webflow CMS operation registered.
func DefaultRouter() *Router {
	r := NewRouter()
	r.Handle(ResourceItem, OpCreate, executeCreate)
	r.Handle(ResourceItem, OpUpdate, executeUpdate)
	r.Handle(ResourceItem, OpDelete, executeDelete)
	r.Handle(ResourceItem, OpGet, executeGet)
	r.Handle(ResourceItem, OpGetAll, executeGetAll)
	r.Handle(ResourceCollection, OpGetFields, executeGetFields)
	return r
}

// Handle registers h, replacing any previous handler for the pair.
func (r *Router) Handle(resource, operation string, h Handler) {
	ops, ok := r.handlers[resource]
	if !ok {
		ops = make(map[string]Handler)
		r.handlers[resource] = ops
	}
	ops[operation] = h
}

// Routes lists registered resource/operation pairs in stable order.
func (r *Router) Routes() [][2]string {
	var routes [][2]string
	for res, ops := range r.handlers {
		for op := range ops {
			routes = append(routes, [2]string{res, op})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i][0] != routes[j][0] {
			return routes[i][0] < routes[j][0]
		}
		return routes[i][1] < routes[j][1]
	})
	return routes
}

// Execute reads resource and operation from the first item and runs the
// matching handler once for the whole batch. An unknown resource or
// operation is an *OperationError and no handler runs.
func (r *Router) Execute(ctx context.Context, ef ExecuteFunctions) ([]types.Item, error) {
	items := ef.InputData()

	resource, err := stringParam(ef, "resource", 0)
	if err != nil {
		return nil, &OperationError{Message: err.Error(), Err: err}
	}
	operation, err := stringParam(ef, "operation", 0)
	if err != nil {
		return nil, &OperationError{Message: err.Error(), Err: err}
	}

	ops, ok := r.handlers[resource]
	if !ok {
		return nil, &OperationError{
			Message: fmt.Sprintf("The resource %q is not supported!", resource),
			Err:     ErrUnsupported,
		}
	}
	h, ok := ops[operation]
	if !ok {
		return nil, &OperationError{
			Message: fmt.Sprintf("The operation %q is not supported!", operation),
			Err:     ErrUnsupported,
		}
	}

	ef.Logger().Debugw("executing node", "resource", resource, "operation", operation, "items", len(items))
	return h(ctx, ef, items)
}
