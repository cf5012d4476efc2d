package compiler

import (
	"fmt"
	"os"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

// ElementFile is the authored form of an element: a tree of contained elements with
// cross-references by id.
type ElementFile struct {
	ID       string                    `mapstructure:"id" validate:"required"`
	Type     string                    `mapstructure:"type" validate:"required"`
	Attrs    map[string]any            `mapstructure:"attrs"`
	Contents map[string][]*ElementFile `mapstructure:"contents" validate:"dive,dive"`
	Refs     map[string][]string       `mapstructure:"refs"`
}

// ModelFile is a model document.
type ModelFile struct {
	Metamodel string       `mapstructure:"metamodel"`
	Root      *ElementFile `mapstructure:"root" validate:"required"`
}

// ParseModel decodes a model document and builds it against mm. Features, types and
// references are checked by the model modifier.
func (p *Parser) ParseModel(mm *model.Metamodel, data []byte) (*model.Model, error) {
	var f ModelFile
	if err := p.decode(data, &f); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	if f.Metamodel != "" && f.Metamodel != mm.Name() {
		return nil, fmt.Errorf("model of metamodel %q cannot be loaded against %q", f.Metamodel, mm.Name())
	}
	return build(mm, f.Root)
}

// ParseModelFile reads a model document from disk.
func (p *Parser) ParseModelFile(mm *model.Metamodel, path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	m, err := p.ParseModel(mm, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func build(mm *model.Metamodel, root *ElementFile) (*model.Model, error) {
	m, err := model.New(mm, model.ID(root.ID), root.Type, nil)
	if err != nil {
		return nil, err
	}
	var next model.ID
	mod := model.NewModifier(m, model.WithIDGenerator(func() model.ID { return next }))

	var elements []*ElementFile
	var place func(e *ElementFile) error
	place = func(e *ElementFile) error {
		elements = append(elements, e)
		for name, v := range e.Attrs {
			if err := mod.SetAttr(model.ID(e.ID), name, v); err != nil {
				return err
			}
		}
		for _, f := range mm.Features(e.Type) {
			for _, c := range e.Contents[f.Name] {
				next = model.ID(c.ID)
				if _, err := mod.Create(model.ID(e.ID), f.Name, c.Type, -1, nil); err != nil {
					return fmt.Errorf("element %q: %w", c.ID, err)
				}
				if err := place(c); err != nil {
					return err
				}
			}
		}
		for name := range e.Contents {
			if f, ok := mm.Feature(e.Type, name); !ok || f.Kind != model.Containment {
				return fmt.Errorf("element %q: %s has no containment feature %q", e.ID, e.Type, name)
			}
		}
		return nil
	}
	if err := place(root); err != nil {
		return nil, err
	}

	// References resolve once every element exists.
	for _, e := range elements {
		for feature, targets := range e.Refs {
			for _, t := range targets {
				if err := mod.Add(model.ID(e.ID), feature, model.ID(t), -1); err != nil {
					return nil, fmt.Errorf("element %q: %w", e.ID, err)
				}
			}
		}
	}
	return m, nil
}
