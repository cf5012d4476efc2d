package memory_test

import (
	"testing"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	contract "github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports/tests"
)

func TestLoader_Contract(t *testing.T) {
	loader := memory.NewLoader(sequence.Description(), structure.Description())
	contract.RunDescriptionLoaderContract(t, loader, sequence.ID, structure.ID)
}
