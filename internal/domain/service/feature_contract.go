package service

import (
	"fmt"
	"math"
	"strings"
)

// NormalizedInput is the canonical field map produced by the contract.
// Canonical keys hold typed values (float64 for numerical fields, string for
// categorical fields); unrecognized keys are carried through untouched and
// ignored by the encoder.
type NormalizedInput map[string]any

// Number returns the numeric value of a canonical field, or 0 when absent.
func (n NormalizedInput) Number(field string) float64 {
	v, _ := n[field].(float64)
	return v
}

// Category returns the categorical value of a canonical field, or "" when absent.
func (n NormalizedInput) Category(field string) string {
	v, _ := n[field].(string)
	return v
}

// numericBound describes the accepted closed interval for a numerical field.
type numericBound struct {
	min      float64
	max      float64
	integral bool
}

// FeatureContract normalizes raw inputs against the canonical field set:
// alias and casing rewrites, required-field checks, documented defaults and
// range validation. Normalize never mutates its argument.
type FeatureContract struct {
	spec     *FeatureSpec
	required []string
	defaults map[string]any
	bounds   map[string]numericBound
	aliases  map[string]string
}

// NewFeatureContract creates the contract for the given spec.
func NewFeatureContract(spec *FeatureSpec) *FeatureContract {
	return &FeatureContract{
		spec:     spec,
		required: []string{FieldGender, FieldAge, FieldHeight, FieldWeight},
		defaults: map[string]any{
			FieldFamilyHistory: "yes",
			FieldFAVC:          "yes",
			FieldFCVC:          2.0,
			FieldNCP:           3.0,
			FieldCAEC:          "Sometimes",
			FieldSmoke:         "no",
			FieldCH2O:          2.0,
			FieldSCC:           "no",
			FieldFAF:           1.0,
			FieldTUE:           1.0,
			FieldCALC:          "Sometimes",
			FieldMTrans:        "Public_Transportation",
		},
		bounds: map[string]numericBound{
			FieldAge:    {min: 1, max: 120, integral: true},
			FieldHeight: {min: math.SmallestNonzeroFloat64, max: math.Inf(1)},
			FieldWeight: {min: math.SmallestNonzeroFloat64, max: math.Inf(1)},
			FieldFCVC:   {min: 1, max: 3},
			FieldNCP:    {min: 1, max: 4},
			FieldCH2O:   {min: 1, max: 3},
			FieldFAF:    {min: 0, max: 3},
			FieldTUE:    {min: 0, max: 2},
		},
		aliases: map[string]string{
			"matrans": FieldMTrans,
		},
	}
}

// Normalize rewrites keys to canonical names, fills documented defaults,
// and validates types and ranges. The input map is never modified.
func (c *FeatureContract) Normalize(raw map[string]any) (NormalizedInput, error) {
	out := make(NormalizedInput, len(raw))
	exact := make(map[string]bool, len(raw))

	for key, value := range raw {
		canonical, recognized := c.canonicalKey(key)
		if !recognized {
			out[key] = value
			continue
		}
		// An exact canonical key wins over alias or casing variants of the
		// same field; among variants, keep the first seen.
		if _, dup := out[canonical]; dup {
			if exact[canonical] || key != canonical {
				continue
			}
		}
		if key == canonical {
			exact[canonical] = true
		}
		out[canonical] = value
	}

	for _, field := range c.required {
		if _, ok := out[field]; !ok {
			return nil, &MissingFeatureError{Field: field}
		}
	}

	for field, def := range c.defaults {
		if _, ok := out[field]; !ok {
			out[field] = def
		}
	}

	for _, field := range c.spec.ScaledNumerical() {
		if err := c.normalizeNumber(out, field); err != nil {
			return nil, err
		}
	}
	for _, field := range c.spec.RawNumerical() {
		if err := c.normalizeNumber(out, field); err != nil {
			return nil, err
		}
	}
	for _, field := range c.spec.Categorical() {
		if err := c.normalizeCategory(out, field); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// canonicalKey resolves a raw key to its canonical field name.
func (c *FeatureContract) canonicalKey(key string) (string, bool) {
	lower := strings.ToLower(key)
	if alias, ok := c.aliases[lower]; ok {
		return alias, true
	}
	for _, field := range c.canonicalFields() {
		if lower == field {
			return field, true
		}
	}
	return key, false
}

func (c *FeatureContract) canonicalFields() []string {
	fields := make([]string, 0, 16)
	fields = append(fields, c.spec.ScaledNumerical()...)
	fields = append(fields, c.spec.RawNumerical()...)
	fields = append(fields, c.spec.Categorical()...)
	return fields
}

// normalizeNumber coerces the field to float64 and applies its bounds.
func (c *FeatureContract) normalizeNumber(out NormalizedInput, field string) error {
	value, ok := coerceNumber(out[field])
	if !ok {
		return &InvalidRangeError{Field: field, Value: out[field]}
	}

	bound := c.bounds[field]
	if math.IsNaN(value) || value < bound.min || value > bound.max {
		return &InvalidRangeError{Field: field, Value: value}
	}
	if bound.integral && value != math.Trunc(value) {
		return &InvalidRangeError{Field: field, Value: value}
	}

	out[field] = value
	return nil
}

// normalizeCategory requires a string value and canonicalizes gender casing.
func (c *FeatureContract) normalizeCategory(out NormalizedInput, field string) error {
	value, ok := out[field].(string)
	if !ok {
		return &UnknownCategoryError{Field: field, Value: stringify(out[field])}
	}

	if field == FieldGender {
		value = titleCase(value)
	}

	out[field] = value
	return nil
}

// coerceNumber accepts the numeric shapes a decoded JSON payload or a Go
// caller can produce. Strings are deliberately rejected.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// titleCase uppercases the first rune and lowercases the rest.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
