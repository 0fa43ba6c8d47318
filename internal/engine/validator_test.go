package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webflowcms/internal/plugin"
	"webflowcms/internal/plugin/builtin"
	"webflowcms/internal/types"
)

func testRegistry() *plugin.Registry {
	return plugin.NewRegistry().MustRegister(
		builtin.NewWebflowConnector(nil),
		builtin.NewHTTPConnector(nil),
		builtin.NewLogConnector(nil),
	)
}

func getAllStep(name string) types.StepDef {
	return types.StepDef{
		Name:      name,
		Connector: "webflow",
		Action:    "item.getAll",
		Input:     map[string]any{"siteId": "s1", "collectionId": "c1", "returnAll": true},
	}
}

func TestValidateFlowValid(t *testing.T) {
	flow := &types.FlowDef{
		Name: "test",
		Steps: []types.StepDef{
			getAllStep("list"),
			{Name: "report", Connector: "log", Action: "print", Input: map[string]any{"message": "${{ steps.list.output.count }} items"}},
		},
	}
	assert.NoError(t, ValidateFlow(flow, testRegistry()))
}

func TestValidateFlowMissingName(t *testing.T) {
	flow := &types.FlowDef{Steps: []types.StepDef{getAllStep("list")}}
	err := ValidateFlow(flow, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'name' is required")
}

func TestValidateFlowUnknownConnector(t *testing.T) {
	flow := &types.FlowDef{
		Name:  "test",
		Steps: []types.StepDef{{Name: "step1", Connector: "nonexistent", Action: "do"}},
	}
	err := ValidateFlow(flow, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in registry")
}

func TestValidateFlowForwardStepReference(t *testing.T) {
	flow := &types.FlowDef{
		Name: "test",
		Steps: []types.StepDef{
			{Name: "step1", Connector: "log", Action: "print", Input: map[string]any{
				"message": "${{ steps.step2.output.count }}",
			}},
			getAllStep("step2"),
		},
	}
	err := ValidateFlow(flow, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step2")
}

func TestValidateFlowInvalidAction(t *testing.T) {
	flow := &types.FlowDef{
		Name:  "test",
		Steps: []types.StepDef{{Name: "step1", Connector: "webflow", Action: "widget.get"}},
	}
	err := ValidateFlow(flow, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support action")
}

func TestValidateFlowRequiredActionInputs(t *testing.T) {
	flow := &types.FlowDef{
		Name: "test",
		Steps: []types.StepDef{{
			Name:      "get",
			Connector: "webflow",
			Action:    "item.get",
			Input:     map[string]any{"siteId": "s1", "itemId": ""},
		}},
	}
	err := ValidateFlow(flow, testRegistry())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		`step "get": required input "collectionId" is missing`,
		`step "get": required input "itemId" is missing`,
	}, ve.Errors)
}

func TestValidateFlowRetryAndWhen(t *testing.T) {
	flow := &types.FlowDef{
		Name: "test",
		Steps: []types.StepDef{
			{Name: "a", Connector: "log", Action: "print", Input: map[string]any{"message": "x"}, OnError: "retry"},
			{Name: "b", Connector: "log", Action: "print", Input: map[string]any{"message": "x"}, When: `${{ steps.later.status == "success" }}`},
			{Name: "c", Connector: "log", Action: "print", Input: map[string]any{"message": "x"}, OnError: "explode"},
		},
	}
	err := ValidateFlow(flow, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_retries")
	assert.Contains(t, err.Error(), `references unknown step "later"`)
	assert.Contains(t, err.Error(), `invalid on_error value "explode"`)
}

func TestValidateInputRequired(t *testing.T) {
	flow := &types.FlowDef{
		Name: "test",
		Input: &types.SchemaDef{
			Properties: map[string]types.FieldDef{
				"name":  {Type: "string", Required: true},
				"email": {Type: "string", Required: true},
			},
		},
		Steps: []types.StepDef{{Name: "s", Connector: "log", Action: "print"}},
	}

	err := ValidateInput(flow, map[string]any{"name": "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	assert.NoError(t, ValidateInput(flow, map[string]any{"name": "test", "email": "a@b.com"}))
}
