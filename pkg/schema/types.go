package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates one parameter value.
type Type interface {
	// Name is the type string used in description files ("string", "[int]", ...).
	Name() string
	Validate(value any) error
}

type stringType struct{ nonEmpty bool }

func (t stringType) Name() string {
	if t.nonEmpty {
		return "text"
	}
	return "string"
}

func (t stringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if t.nonEmpty && strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be blank")
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got %v", v)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type enumType struct{ values []string }

func (t enumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t enumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", s, strings.Join(t.values, ", "))
}

type sliceType struct{ elem Type }

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name string
	fn   func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.fn(value) }

// String accepts any string, empty included.
func String() Type { return stringType{} }

// Text accepts non-blank strings.
func Text() Type { return stringType{nonEmpty: true} }

// Int accepts integers and whole JSON numbers.
func Int() Type { return intType{} }

// Bool accepts booleans.
func Bool() Type { return boolType{} }

// Enum accepts one of the given strings.
func Enum(values ...string) Type { return enumType{values: values} }

// Slice accepts lists whose items all satisfy elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom wraps a validation function under a type name. Custom types cannot be parsed back.
func Custom(name string, fn func(any) error) Type { return customType{name: name, fn: fn} }

// ParseType reads a type string: string, text, int, bool, enum(a|b), [elem].
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) > 2:
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	case strings.HasPrefix(s, "enum(") && strings.HasSuffix(s, ")"):
		inner := s[len("enum(") : len(s)-1]
		if inner == "" {
			return nil, fmt.Errorf("enum without values")
		}
		return Enum(strings.Split(inner, "|")...), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "text":
		return Text(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	}
	return nil, fmt.Errorf("unsupported type %q", s)
}
