package node

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"webflowcms/internal/webflow"
)

func stringParam(ef ExecuteFunctions, name string, i int, fallback ...any) (string, error) {
	v, err := ef.Param(name, i, fallback...)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("parameter %q: %w", name, err)
	}
	return s, nil
}

// requiredString is stringParam that also rejects an empty value.
func requiredString(ef ExecuteFunctions, name string, i int) (string, error) {
	s, err := stringParam(ef, name, i)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("parameter %q is required", name)
	}
	return s, nil
}

func boolParam(ef ExecuteFunctions, name string, i int, fallback ...any) (bool, error) {
	v, err := ef.Param(name, i, fallback...)
	if err != nil {
		return false, err
	}
	if v == "" {
		// An unset optional expression resolves to "".
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("parameter %q: %w", name, err)
	}
	return b, nil
}

func intParam(ef ExecuteFunctions, name string, i int, fallback ...any) (int, error) {
	v, err := ef.Param(name, i, fallback...)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", name, err)
	}
	return n, nil
}

// decodeParam decodes a collection-type parameter into out. A missing
// parameter leaves out at its zero value.
func decodeParam(ef ExecuteFunctions, name string, i int, out any) error {
	v, err := ef.Param(name, i, nil)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

// fieldValuesParam reads the repeated fieldsUi.fieldValues pairs.
func fieldValuesParam(ef ExecuteFunctions, i int) ([]webflow.FieldValue, error) {
	var fields []webflow.FieldValue
	if err := decodeParam(ef, "fieldsUi.fieldValues", i, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
