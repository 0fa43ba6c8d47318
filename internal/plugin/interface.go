package plugin

import (
	"context"
	"sort"

	"webflowcms/internal/types"
)

// Connector defines the interface that all flow connectors must implement.
type Connector interface {
	// Name returns the connector identifier (e.g., "webflow", "http", "log").
	Name() string

	// Actions returns available actions with their input/output schemas.
	Actions() []ActionDef

	// Execute runs a specific action with the given input.
	Execute(ctx context.Context, action string, input map[string]any) (*types.StepResult, error)

	// Validate checks if the connector is properly configured.
	Validate() error
}

// ActionDef describes an action a connector supports.
type ActionDef struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Input       map[string]types.FieldDef `json:"input,omitempty"`
	Output      map[string]types.FieldDef `json:"output,omitempty"`
}

// RequiredInputs returns the names of the required inputs, sorted.
func (a ActionDef) RequiredInputs() []string {
	var names []string
	for name, f := range a.Input {
		if f.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ItemResolver resolves expressions that refer to the current input item
// ("${{ item.* }}") inside params. The engine leaves those expressions
// untouched when it resolves a step's input and hands this function to the
// connector instead.
type ItemResolver func(item map[string]any, params map[string]any) (map[string]any, error)

type itemResolverKey struct{}

// WithItemResolver attaches r to ctx.
func WithItemResolver(ctx context.Context, r ItemResolver) context.Context {
	return context.WithValue(ctx, itemResolverKey{}, r)
}

// ItemResolverFrom returns the resolver attached by WithItemResolver.
func ItemResolverFrom(ctx context.Context) (ItemResolver, bool) {
	r, ok := ctx.Value(itemResolverKey{}).(ItemResolver)
	return r, ok && r != nil
}

// FindAction returns the named action of c.
func FindAction(c Connector, name string) (ActionDef, bool) {
	for _, a := range c.Actions() {
		if a.Name == name {
			return a, true
		}
	}
	return ActionDef{}, false
}
