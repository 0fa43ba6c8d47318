package node

import (
	"context"
	"errors"

	"webflowcms/internal/types"
)

// ErrUnsupported marks a resource or operation the node does not implement.
var ErrUnsupported = errors.New("unsupported resource or operation")

// OperationError is an invocation-level failure. It is never turned into
// a per-item error record.
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string { return e.Message }
func (e *OperationError) Unwrap() error { return e.Err }

// ItemError ties a failure to the input item that caused it.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return e.Err.Error() }
func (e *ItemError) Unwrap() error { return e.Err }

// forEachItem runs fn for every input item in order and collects its
// output. With continue-on-fail a failing item yields {error: message} and
// processing goes on; otherwise the first failure aborts the batch.
func forEachItem(ctx context.Context, ef ExecuteFunctions, items []types.Item, fn func(i int) ([]types.Item, error)) ([]types.Item, error) {
	out := make([]types.Item, 0, len(items))

	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := fn(i)
		if err != nil {
			if ef.ContinueOnFail() {
				ef.Logger().Warnw("item failed, continuing", "item", i, "error", err)
				out = append(out, types.Item{JSON: map[string]any{"error": err.Error()}})
				continue
			}
			return nil, &ItemError{Index: i, Err: err}
		}
		out = append(out, res...)
	}

	return out, nil
}

// truthy follows JavaScript truthiness for JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && t == t
	case int:
		return t != 0
	default:
		return true
	}
}
