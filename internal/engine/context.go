package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"webflowcms/internal/types"
)

var exprRegex = regexp.MustCompile(`\$\{\{\s*(.+?)\s*\}\}`)

// StepContext holds the state available during flow execution for variable resolution.
type StepContext struct {
	Input   map[string]any
	Steps   map[string]*types.StepResult
	Env     map[string]string
	Secrets map[string]string

	// Item is the current input item while resolving per-item parameters.
	Item map[string]any

	// deferItems leaves strings that reference item.* unresolved;
	// onlyItems resolves nothing else.
	deferItems bool
	onlyItems  bool
}

// NewStepContext creates a StepContext from flow input.
func NewStepContext(input map[string]any) *StepContext {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	return &StepContext{
		Input:   input,
		Steps:   make(map[string]*types.StepResult),
		Env:     env,
		Secrets: map[string]string{},
	}
}

// AddStepResult records the result of a step for later reference.
func (sc *StepContext) AddStepResult(name string, result *types.StepResult) {
	sc.Steps[name] = result
}

// forItem returns a copy of sc that resolves item.* against item.
func (sc *StepContext) forItem(item map[string]any) *StepContext {
	c := *sc
	c.Item = item
	c.deferItems = false
	c.onlyItems = true
	return &c
}

// deferring returns a copy of sc that leaves item.* expressions in place.
func (sc *StepContext) deferring() *StepContext {
	c := *sc
	c.deferItems = true
	return &c
}

// ResolveMap recursively resolves all expressions in a map.
func (sc *StepContext) ResolveMap(m map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(m))
	for k, v := range m {
		resolved, err := sc.resolveValue(v)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", k, err)
		}
		result[k] = resolved
	}
	return result, nil
}

func (sc *StepContext) resolveValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return sc.resolveString(val)
	case map[string]any:
		return sc.ResolveMap(val)
	case []any:
		resolved := make([]any, len(val))
		for i, item := range val {
			r, err := sc.resolveValue(item)
			if err != nil {
				return nil, err
			}
			resolved[i] = r
		}
		return resolved, nil
	default:
		return v, nil
	}
}

// resolveString replaces all ${{ ... }} expressions in a string.
func (sc *StepContext) resolveString(s string) (any, error) {
	if sc.deferItems && referencesItem(s) {
		return s, nil
	}
	if sc.onlyItems && !referencesItem(s) {
		return s, nil
	}

	// A string that is exactly one expression keeps the value's type.
	if match := exprRegex.FindStringSubmatch(s); match != nil && match[0] == s {
		return sc.evaluateExpr(match[1])
	}

	var evalErr error
	result := exprRegex.ReplaceAllStringFunc(s, func(match string) string {
		sub := exprRegex.FindStringSubmatch(match)
		val, err := sc.evaluateExpr(sub[1])
		if err != nil {
			evalErr = err
			return match
		}
		return fmt.Sprintf("%v", val)
	})
	return result, evalErr
}

// referencesItem reports whether any expression in s reads the current item.
func referencesItem(s string) bool {
	for _, m := range exprRegex.FindAllStringSubmatch(s, -1) {
		path := strings.TrimSpace(strings.SplitN(m[1], "|", 2)[0])
		if path == "item" || strings.HasPrefix(path, "item.") {
			return true
		}
	}
	return false
}

// evaluateExpr evaluates a single expression like "input.name | slugify".
func (sc *StepContext) evaluateExpr(expr string) (any, error) {
	parts := strings.SplitN(expr, "|", 2)
	path := strings.TrimSpace(parts[0])

	val, err := sc.resolvePath(path)
	if err != nil {
		return nil, err
	}

	if len(parts) == 2 {
		pipeFn := strings.TrimSpace(parts[1])
		val, err = applyPipe(val, pipeFn)
		if err != nil {
			return nil, err
		}
	}

	return val, nil
}

// resolvePath resolves a dotted path like "input.name" or "steps.create-item.output.items.0.id".
func (sc *StepContext) resolvePath(path string) (any, error) {
	segments := strings.SplitN(path, ".", 2)
	root := segments[0]

	switch root {
	case "input":
		if len(segments) < 2 {
			return sc.Input, nil
		}
		val, err := lookupNested(sc.Input, segments[1])
		if err != nil {
			// Missing input fields resolve to empty string (supports optional fields).
			return "", nil
		}
		return val, nil

	case "item":
		if sc.Item == nil {
			return nil, fmt.Errorf("%q used outside of a per-item parameter", path)
		}
		if len(segments) < 2 {
			return sc.Item, nil
		}
		val, err := lookupNested(sc.Item, segments[1])
		if err != nil {
			return "", nil
		}
		return val, nil

	case "steps":
		if len(segments) < 2 {
			return nil, fmt.Errorf("incomplete step reference: %q", path)
		}
		rest := segments[1]
		// rest is like "create-item.output.items.0.id"
		stepParts := strings.SplitN(rest, ".output.", 2)
		if len(stepParts) != 2 {
			stepParts2 := strings.SplitN(rest, ".", 2)
			stepName := stepParts2[0]
			sr, ok := sc.Steps[stepName]
			if !ok {
				return nil, fmt.Errorf("step %q not found", stepName)
			}
			if len(stepParts2) == 2 {
				switch stepParts2[1] {
				case "status":
					return sr.Status, nil
				case "error":
					return sr.Error, nil
				case "output":
					return sr.Output, nil
				}
			}
			return nil, fmt.Errorf("invalid step reference: %q", path)
		}
		stepName := stepParts[0]
		outputField := stepParts[1]
		sr, ok := sc.Steps[stepName]
		if !ok {
			return nil, fmt.Errorf("step %q not found", stepName)
		}
		if sr.Output == nil {
			return nil, fmt.Errorf("step %q has no output", stepName)
		}
		return lookupNested(sr.Output, outputField)

	case "env":
		if len(segments) < 2 {
			return nil, fmt.Errorf("incomplete env reference: %q", path)
		}
		val, ok := sc.Env[segments[1]]
		if !ok {
			return "", nil
		}
		return val, nil

	case "secrets", "secret":
		if len(segments) < 2 {
			return nil, fmt.Errorf("incomplete secret reference: %q", path)
		}
		val, ok := sc.Secrets[segments[1]]
		if !ok {
			return nil, fmt.Errorf("secret %q is not set", segments[1])
		}
		return val, nil

	default:
		return nil, fmt.Errorf("unknown variable root %q in %q", root, path)
	}
}

// lookupNested walks a dotted path; numeric segments index into lists.
func lookupNested(m map[string]any, path string) (any, error) {
	parts := strings.Split(path, ".")
	var current any = m
	for _, part := range parts {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("key %q not found", part)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %q out of range", part)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot index into non-object at %q", part)
		}
	}
	return current, nil
}

// EvaluateCondition evaluates a step's "when" clause. Supported forms are
// "${{ <path> == <literal> }}", "!=" and a bare path tested for truthiness.
// An empty condition is true.
func (sc *StepContext) EvaluateCondition(when string) (bool, error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return true, nil
	}
	expr := when
	if m := exprRegex.FindStringSubmatch(when); m != nil && m[0] == when {
		expr = m[1]
	}

	for _, op := range []string{"==", "!="} {
		left, right, ok := strings.Cut(expr, op)
		if !ok {
			continue
		}
		lv, err := sc.operand(strings.TrimSpace(left))
		if err != nil {
			return false, err
		}
		rv, err := sc.operand(strings.TrimSpace(right))
		if err != nil {
			return false, err
		}
		equal := fmt.Sprintf("%v", lv) == fmt.Sprintf("%v", rv)
		return equal == (op == "=="), nil
	}

	v, err := sc.evaluateExpr(expr)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return v != nil && fmt.Sprintf("%v", v) != "", nil
	}
	return b, nil
}

// operand evaluates one side of a comparison: a quoted string, a number or
// boolean literal, or a path.
func (sc *StepContext) operand(s string) (any, error) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], nil
	}
	if s == "true" || s == "false" {
		return s == "true", nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, nil
	}
	return sc.evaluateExpr(s)
}

func applyPipe(val any, fn string) (any, error) {
	s := fmt.Sprintf("%v", val)
	switch fn {
	case "slugify":
		return slugify(s), nil
	case "upper":
		return strings.ToUpper(s), nil
	case "lower":
		return strings.ToLower(s), nil
	case "trim":
		return strings.TrimSpace(s), nil
	case "json":
		return toJSON(val)
	default:
		return nil, fmt.Errorf("unknown pipe function %q", fn)
	}
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	// Collapse multiple dashes.
	result := b.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	return strings.Trim(result, "-")
}

// toJSON renders val as compact JSON, e.g. to pass a list into a field
// value that is coerced back from its bracketed form.
func toJSON(val any) (string, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("json pipe: %w", err)
	}
	return string(data), nil
}
