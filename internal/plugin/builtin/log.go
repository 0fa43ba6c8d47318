package builtin

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
)

// LogConnector writes messages to the application log, for debugging flows.
type LogConnector struct {
	log *zap.SugaredLogger
}

func NewLogConnector(l *zap.SugaredLogger) *LogConnector {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return &LogConnector{log: l.Named("flow")}
}

func (l *LogConnector) Name() string { return "log" }

func (l *LogConnector) Actions() []plugin.ActionDef {
	return []plugin.ActionDef{
		{
			Name:        "print",
			Description: "Write a message to the log",
			Input: map[string]types.FieldDef{
				"message": {Type: "string", Description: "Message to print", Required: true},
				"level":   {Type: "string", Description: "debug, info (default), warn or error"},
				"fields":  {Type: "object", Description: "Structured fields logged with the message"},
			},
			Output: map[string]types.FieldDef{
				"message": {Type: "string", Description: "The printed message"},
			},
		},
	}
}

func (l *LogConnector) Execute(_ context.Context, action string, input map[string]any) (*types.StepResult, error) {
	if action != "print" {
		return nil, fmt.Errorf("log connector: unknown action %q", action)
	}

	message := fmt.Sprintf("%v", input["message"])

	var kv []any
	if fields, err := cast.ToStringMapE(input["fields"]); err == nil {
		for k, v := range fields {
			kv = append(kv, k, v)
		}
	}

	switch cast.ToString(input["level"]) {
	case "debug":
		l.log.Debugw(message, kv...)
	case "warn":
		l.log.Warnw(message, kv...)
	case "error":
		l.log.Errorw(message, kv...)
	default:
		l.log.Infow(message, kv...)
	}

	return &types.StepResult{
		Status: types.StatusSuccess,
		Output: map[string]any{
			"message": message,
		},
	}, nil
}

func (l *LogConnector) Validate() error { return nil }
