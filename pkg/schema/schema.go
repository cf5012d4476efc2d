package schema

import "sort"

// Schema maps parameter names to their types. Every declared parameter is required.
type Schema map[string]Type

// LabelKey is the parameter carrying a new label in direct-edit requests.
const LabelKey = "label"

// LabelParams is the default direct-edit schema: a single string label.
func LabelParams() Schema {
	return Schema{LabelKey: String()}
}

// Validate checks params against s and reports every failing field.
// An empty schema accepts anything.
func Validate(s Schema, params map[string]any) error {
	if len(s) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value, ok := params[key]
		if !ok {
			errs = append(errs, &FieldError{Key: key, Reason: "required"})
			continue
		}
		if err := s[key].Validate(value); err != nil {
			errs = append(errs, &FieldError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ParseTypeMap builds a schema from type strings.
func ParseTypeMap(raw map[string]string) (Schema, error) {
	out := make(Schema, len(raw))
	for key, typ := range raw {
		t, err := ParseType(typ)
		if err != nil {
			return nil, &FieldError{Key: key, Reason: err.Error()}
		}
		out[key] = t
	}
	return out, nil
}

// TypeMap is the inverse of ParseTypeMap.
func (s Schema) TypeMap() map[string]string {
	out := make(map[string]string, len(s))
	for key, typ := range s {
		if typ != nil {
			out[key] = typ.Name()
		}
	}
	return out
}
