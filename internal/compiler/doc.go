// Package compiler reads diagram descriptions and domain models from YAML files.
//
// Documents are decoded in two steps: YAML into generic maps, then mapstructure into
// the typed structures, rejecting unknown keys. Struct tags are checked with
// go-playground/validator before anything is returned.
package compiler
