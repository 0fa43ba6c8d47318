package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
)

// Engine executes flow definitions.
type Engine struct {
	Registry *plugin.Registry
	Logger   *zap.SugaredLogger
}

// NewEngine creates a new flow execution engine.
func NewEngine(registry *plugin.Registry) *Engine {
	return &Engine{Registry: registry, Logger: zap.NewNop().Sugar()}
}

// Run executes a flow with the given input.
func (e *Engine) Run(ctx context.Context, flow *types.FlowDef, input map[string]any) (*types.FlowResult, error) {
	return e.RunWithSecrets(ctx, flow, input, nil)
}

// RunWithSecrets executes a flow with secrets available as ${{ secrets.NAME }}.
func (e *Engine) RunWithSecrets(ctx context.Context, flow *types.FlowDef, input map[string]any, secrets map[string]string) (*types.FlowResult, error) {
	if err := ValidateInput(flow, input); err != nil {
		return nil, err
	}

	result := &types.FlowResult{
		Flow:      flow.Name,
		Status:    types.StatusSuccess,
		StartedAt: time.Now().UTC(),
		Input:     input,
		Steps:     make([]types.StepResult, 0, len(flow.Steps)),
	}

	sctx := NewStepContext(input)
	if secrets != nil {
		sctx.Secrets = secrets
	}

	log := e.log().With("flow", flow.Name)
	log.Infow("flow started", "steps", len(flow.Steps))

	for _, step := range flow.Steps {
		if err := ctx.Err(); err != nil {
			result.Status = types.StatusFailed
			result.Error = err.Error()
			break
		}

		run, err := sctx.EvaluateCondition(step.When)
		if err != nil {
			sr := types.StepResult{
				Name:      step.Name,
				Connector: step.Connector,
				Action:    step.Action,
				Status:    types.StatusError,
				Error:     fmt.Sprintf("evaluating when: %v", err),
			}
			result.Steps = append(result.Steps, sr)
			sctx.AddStepResult(step.Name, &sr)
			if e.handleFailure(result, step, sr, log) {
				return result, nil
			}
			continue
		}
		if !run {
			sr := types.StepResult{
				Name:      step.Name,
				Connector: step.Connector,
				Action:    step.Action,
				Status:    types.StatusSkipped,
			}
			log.Debugw("step skipped", "step", step.Name, "when", step.When)
			result.Steps = append(result.Steps, sr)
			sctx.AddStepResult(step.Name, &sr)
			continue
		}

		sr := e.executeWithRetry(ctx, step, sctx, log)
		result.Steps = append(result.Steps, sr)
		sctx.AddStepResult(step.Name, &sr)

		if sr.Status == types.StatusFailed || sr.Status == types.StatusError {
			if e.handleFailure(result, step, sr, log) {
				return result, nil
			}
		}
	}

	result.CompletedAt = time.Now().UTC()
	log.Infow("flow finished", "status", result.Status)
	return result, nil
}

// handleFailure applies the step's on_error policy and reports whether the
// flow must stop. Retries are exhausted by the time this runs, so retry
// falls through to abort.
func (e *Engine) handleFailure(result *types.FlowResult, step types.StepDef, sr types.StepResult, log *zap.SugaredLogger) bool {
	onError := step.OnError
	if onError == "" {
		onError = types.OnErrorAbort
	}
	log.Warnw("step failed", "step", step.Name, "status", sr.Status, "error", sr.Error, "on_error", onError)

	switch onError {
	case types.OnErrorContinue:
		result.Status = types.StatusPartial
		return false
	case types.OnErrorSkip:
		return false
	default:
		result.Status = types.StatusFailed
		result.Error = fmt.Sprintf("step %q failed: %s", step.Name, sr.Error)
		result.CompletedAt = time.Now().UTC()
		return true
	}
}

// DryRun validates and resolves variables without actually executing steps.
func (e *Engine) DryRun(flow *types.FlowDef, input map[string]any) (*types.FlowResult, error) {
	if err := ValidateFlow(flow, e.Registry); err != nil {
		return nil, err
	}
	if err := ValidateInput(flow, input); err != nil {
		return nil, err
	}

	result := &types.FlowResult{
		Flow:      flow.Name,
		Status:    types.StatusDryRun,
		StartedAt: time.Now().UTC(),
		Input:     input,
		Steps:     make([]types.StepResult, 0, len(flow.Steps)),
	}

	sctx := NewStepContext(input).deferring()

	for _, step := range flow.Steps {
		resolvedInput, err := sctx.ResolveMap(step.Input)

		sr := types.StepResult{
			Name:      step.Name,
			Connector: step.Connector,
			Action:    step.Action,
			Status:    types.StatusDryRun,
		}

		if err != nil {
			sr.Status = types.StatusResolveError
			sr.Error = err.Error()
		} else {
			sr.Output = resolvedInput // Show what would be sent.
		}

		result.Steps = append(result.Steps, sr)
		// For dry-run, add a synthetic step result so later steps can reference it.
		sctx.AddStepResult(step.Name, &types.StepResult{
			Status: types.StatusDryRun,
			Output: map[string]any{"_dry_run": true},
		})
	}

	result.CompletedAt = time.Now().UTC()
	return result, nil
}

// executeWithRetry runs the step, retrying failed attempts when on_error is
// retry. The wait starts at retry.backoff_seconds and doubles.
func (e *Engine) executeWithRetry(ctx context.Context, step types.StepDef, sctx *StepContext, log *zap.SugaredLogger) types.StepResult {
	sr := e.executeStep(ctx, step, sctx)
	if step.OnError != types.OnErrorRetry || step.Retry == nil {
		return sr
	}

	backoff := time.Duration(step.Retry.BackoffSeconds * float64(time.Second))
	for attempt := 1; attempt <= step.Retry.MaxRetries; attempt++ {
		if sr.Status != types.StatusFailed && sr.Status != types.StatusError {
			break
		}
		log.Infow("retrying step", "step", step.Name, "attempt", attempt, "backoff", backoff, "error", sr.Error)

		select {
		case <-ctx.Done():
			sr.Error = ctx.Err().Error()
			return sr
		case <-time.After(backoff):
		}
		backoff *= 2

		sr = e.executeStep(ctx, step, sctx)
		sr.Retries = attempt
	}
	return sr
}

func (e *Engine) executeStep(ctx context.Context, step types.StepDef, sctx *StepContext) (sr types.StepResult) {
	sr = types.StepResult{
		Name:      step.Name,
		Connector: step.Connector,
		Action:    step.Action,
	}

	start := time.Now()
	defer func() {
		sr.DurationMs = time.Since(start).Milliseconds()
	}()

	conn, ok := e.Registry.Get(step.Connector)
	if !ok {
		sr.Status = types.StatusError
		sr.Error = fmt.Sprintf("connector %q not found", step.Connector)
		return sr
	}

	// item.* expressions are resolved per input item by the connector.
	resolvedInput, err := sctx.deferring().ResolveMap(step.Input)
	if err != nil {
		sr.Status = types.StatusError
		sr.Error = fmt.Sprintf("resolving input: %v", err)
		return sr
	}

	ctx = plugin.WithItemResolver(ctx, func(item, params map[string]any) (map[string]any, error) {
		return sctx.forItem(item).ResolveMap(params)
	})

	e.log().Debugw("executing step", "step", step.Name, "connector", step.Connector, "action", step.Action)

	stepResult, err := conn.Execute(ctx, step.Action, resolvedInput)
	if err != nil {
		sr.Status = types.StatusError
		sr.Error = err.Error()
		return sr
	}

	sr.Status = stepResult.Status
	sr.Output = stepResult.Output
	sr.Error = stepResult.Error
	return sr
}

func (e *Engine) log() *zap.SugaredLogger {
	if e.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return e.Logger
}
