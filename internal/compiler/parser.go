package compiler

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/schema"
)

// Parser converts raw YAML documents into descriptions and models.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ParseDescription decodes and checks a description document.
// Malformed documents wrap domain.ErrInvalidDescription.
func (p *Parser) ParseDescription(data []byte) (*description.Description, error) {
	var d description.Description
	if err := p.decode(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDescription, err)
	}
	return &d, nil
}

// ParseDescriptionFile reads a description document from disk.
func (p *Parser) ParseDescriptionFile(path string) (*description.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read description: %w", err)
	}
	d, err := p.ParseDescription(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (p *Parser) decode(data []byte, out any) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return errors.New("empty document")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(schemaHook),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}
	return p.check(out)
}

// check runs the struct tags and reports every failing field at once.
func (p *Parser) check(v any) error {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	agg := &schema.AggregateError{}
	for _, fe := range fieldErrs {
		agg.Errors = append(agg.Errors, &schema.FieldError{
			Key:    fe.Namespace(),
			Reason: fmt.Sprintf("failed on the %q rule", fe.Tag()),
		})
	}
	return agg
}

var schemaType = reflect.TypeOf(schema.Schema(nil))

// schemaHook turns a {key: type} map into a parameter schema.
func schemaHook(from, to reflect.Type, data any) (any, error) {
	if to != schemaType || from.Kind() != reflect.Map {
		return data, nil
	}
	raw, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	types := make(map[string]string, len(raw))
	for key, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, &schema.FieldError{Key: key, Reason: "type must be a string", Value: v}
		}
		types[key] = s
	}
	s, err := schema.ParseTypeMap(types)
	if err != nil {
		return nil, err
	}
	return s, nil
}
