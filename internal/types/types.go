package types

import "time"

// Step and flow statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusPartial = "partial"
	StatusDryRun  = "dry_run"
	StatusSkipped = "skipped"

	StatusResolveError = "resolve_error"
)

// on_error policies.
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
	OnErrorSkip     = "skip"
	OnErrorRetry    = "retry"
)

// FlowDef represents a parsed YAML flow definition.
type FlowDef struct {
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version" json:"version"`
	Description string            `yaml:"description" json:"description"`
	Input       *SchemaDef        `yaml:"input,omitempty" json:"input,omitempty"`
	Trigger     *TriggerDef       `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Steps       []StepDef         `yaml:"steps" json:"steps"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// SchemaDef describes the input schema of a flow.
type SchemaDef struct {
	Properties map[string]FieldDef `yaml:"properties" json:"properties"`
}

// FieldDef describes a single field in a schema.
type FieldDef struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
}

// TriggerDef describes how a flow is triggered.
type TriggerDef struct {
	Type string `yaml:"type" json:"type"`
	Path string `yaml:"path" json:"path"`
}

// StepDef represents a single step in a flow.
type StepDef struct {
	Name      string         `yaml:"name" json:"name"`
	Connector string         `yaml:"connector" json:"connector"`
	Action    string         `yaml:"action" json:"action"`
	Input     map[string]any `yaml:"input" json:"input"`
	When      string         `yaml:"when,omitempty" json:"when,omitempty"`
	OnError   string         `yaml:"on_error" json:"on_error"`
	Retry     *RetryConfig   `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// RetryConfig controls on_error: retry. Backoff doubles after each attempt.
type RetryConfig struct {
	MaxRetries     int     `yaml:"max_retries" json:"max_retries"`
	BackoffSeconds float64 `yaml:"backoff_seconds" json:"backoff_seconds"`
}

// StepResult holds the result of executing a single step.
type StepResult struct {
	Name       string         `json:"name"`
	Connector  string         `json:"connector"`
	Action     string         `json:"action"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Retries    int            `json:"retries,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// FlowResult holds the result of an entire flow execution.
type FlowResult struct {
	Flow        string         `json:"flow"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Input       map[string]any `json:"input"`
	Steps       []StepResult   `json:"steps"`
	Error       string         `json:"error,omitempty"`
}

// Item is one unit of data flowing through a node: a JSON object plus the
// index of the input item it was derived from.
type Item struct {
	JSON       map[string]any `json:"json"`
	PairedItem *PairedItem    `json:"pairedItem,omitempty"`
}

type PairedItem struct {
	Item int `json:"item"`
}

// NewItem wraps data as an item paired with input index i.
func NewItem(data map[string]any, i int) Item {
	return Item{JSON: data, PairedItem: &PairedItem{Item: i}}
}

// ItemsFromJSON wraps plain objects as unpaired items.
func ItemsFromJSON(objs []map[string]any) []Item {
	items := make([]Item, len(objs))
	for i, o := range objs {
		items[i] = Item{JSON: o}
	}
	return items
}

// JSONOf returns the JSON payloads of items, in order.
func JSONOf(items []Item) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, it := range items {
		out[i] = it.JSON
	}
	return out
}
