package ports

import (
	"context"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
)

// DescriptionLoader supplies diagram descriptions.
type DescriptionLoader interface {
	// Load returns the description with the given id.
	Load(ctx context.Context, id string) (*description.Description, error)

	// List returns the ids of the available descriptions.
	List(ctx context.Context) ([]string, error)
}
