// Package kinds bundles the parts a diagram kind contributes to the engine.
//
// A kind is pure data: a mapping resolver naming its descriptions, the description
// itself, the validator exemptions it needs and its drop table. The built-in kinds
// live in the sequence and structure subpackages.
package kinds

import (
	"errors"
	"fmt"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/drop"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/mapping"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/validator"
)

// Kind is one diagram kind over one metamodel.
type Kind struct {
	Name        string
	Resolver    *mapping.Resolver
	Metamodel   *model.Metamodel
	Description *description.Description
	Exemptions  validator.Exemptions
	Drops       *drop.Table
}

// Validator returns a validator configured with the kind exemptions. Description names
// are checked against the kind resolver when there is one.
func (k *Kind) Validator(opts ...validator.Option) *validator.Validator {
	base := []validator.Option{validator.WithExemptions(k.Exemptions)}
	if k.Resolver != nil {
		base = append(base, validator.WithResolver(k.Resolver))
	}
	opts = append(base, opts...)
	return validator.New(k.Metamodel.RootType(), opts...)
}

// Check validates the description, checks that the drop table covers every concrete
// type and compiles the description.
func (k *Kind) Check() (*description.Registry, error) {
	var errs []error
	if err := validator.Err(k.Validator().Validate(k.Description)); err != nil {
		errs = append(errs, err)
	}
	if k.Drops != nil {
		if err := k.Drops.CheckExhaustive(k.Metamodel); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("kind %s: %w", k.Name, errors.Join(errs...))
	}
	return description.Compile(k.Description, k.Metamodel)
}
