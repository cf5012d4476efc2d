// Package schema checks the parameters handed to palette tools.
//
// A Schema maps parameter names to Types. Tools declare one (a direct-edit tool
// expects a string "label" by default) and operations validate the request before
// touching the model:
//
//	params := schema.Schema{"label": schema.String()}
//	if err := schema.Validate(params, map[string]any{"label": "Lifeline1"}); err != nil {
//	    // every failing field is reported in one *AggregateError
//	}
//
// Schemas round-trip through JSON and YAML as a map of type names:
//
//	params:
//	  label: string
//	  sort: enum(synchCall|asynchCall|reply)
package schema
