// Package validate checks loosely-typed JSON records against declarative
// per-field rules. One engine drives agent publishes, review submissions
// and user records alike.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
)

type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Rule is the full set of constraints for one field. Zero values mean
// "not constrained"; Min/Max use pointers so 0 is a valid bound.
type Rule struct {
	Required    bool
	Type        Type
	MinLength   int
	MaxLength   int
	Pattern     *regexp.Regexp
	Enum        []string
	Min         *float64
	Max         *float64
	Integer     bool
	MinItems    int
	MaxItems    int
	ItemType    Type
	ItemPattern *regexp.Regexp
}

type Schema map[string]Rule

// Record validates record against schema and returns every violation as a
// human-readable message, in field-name order. A missing required field
// short-circuits the remaining checks for that field only. The record is
// never mutated and nil maps are handled.
func Record(record map[string]any, schema Schema) []string {
	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var violations []string
	for _, name := range fields {
		rule := schema[name]
		value, present := record[name]
		if !present || value == nil {
			if rule.Required {
				violations = append(violations, fmt.Sprintf("%s is required", name))
			}
			continue
		}
		violations = append(violations, checkField(name, value, rule)...)
	}
	return violations
}

func checkField(name string, value any, rule Rule) []string {
	var violations []string

	if rule.Type != "" && !matchesType(value, rule.Type) {
		violations = append(violations, fmt.Sprintf("%s must be of type %s", name, rule.Type))
		return violations
	}

	switch v := value.(type) {
	case string:
		if rule.MinLength > 0 && len(v) < rule.MinLength {
			violations = append(violations, fmt.Sprintf("%s must be at least %d characters", name, rule.MinLength))
		}
		if rule.MaxLength > 0 && len(v) > rule.MaxLength {
			violations = append(violations, fmt.Sprintf("%s must be at most %d characters", name, rule.MaxLength))
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(v) {
			violations = append(violations, fmt.Sprintf("%s has invalid format", name))
		}
		if len(rule.Enum) > 0 && !inEnum(v, rule.Enum) {
			violations = append(violations, fmt.Sprintf("%s must be one of: %s", name, joinEnum(rule.Enum)))
		}
	case []any:
		if rule.MinItems > 0 && len(v) < rule.MinItems {
			violations = append(violations, fmt.Sprintf("%s must have at least %d items", name, rule.MinItems))
		}
		if rule.MaxItems > 0 && len(v) > rule.MaxItems {
			violations = append(violations, fmt.Sprintf("%s must have at most %d items", name, rule.MaxItems))
		}
		for i, item := range v {
			if rule.ItemType != "" && !matchesType(item, rule.ItemType) {
				violations = append(violations, fmt.Sprintf("%s[%d] must be of type %s", name, i, rule.ItemType))
				continue
			}
			if rule.ItemPattern != nil {
				s, ok := item.(string)
				if ok && !rule.ItemPattern.MatchString(s) {
					violations = append(violations, fmt.Sprintf("%s[%d] has invalid format", name, i))
				}
			}
		}
	default:
		if n, ok := asNumber(value); ok {
			if rule.Integer && n != math.Trunc(n) {
				violations = append(violations, fmt.Sprintf("%s must be an integer", name))
			}
			if rule.Min != nil && n < *rule.Min {
				violations = append(violations, fmt.Sprintf("%s must be at least %g", name, *rule.Min))
			}
			if rule.Max != nil && n > *rule.Max {
				violations = append(violations, fmt.Sprintf("%s must be at most %g", name, *rule.Max))
			}
		}
	}

	return violations
}

func matchesType(value any, t Type) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		_, ok := asNumber(value)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

// asNumber accepts the numeric shapes encoding/json and callers produce.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func inEnum(v string, enum []string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}

func joinEnum(enum []string) string {
	out := ""
	for i, e := range enum {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}

// Float returns a pointer for Rule.Min / Rule.Max bounds.
func Float(f float64) *float64 { return &f }
