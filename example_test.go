package papyrus_test

import (
	"context"
	"fmt"
	"log"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/uml"
)

// ExampleNew opens a sequence diagram on an empty interaction and adds a lifeline.
func ExampleNew() {
	eng, err := papyrus.New(sequence.New())
	if err != nil {
		log.Fatal(err)
	}

	m, err := model.New(uml.Metamodel(), "model", uml.Model, map[string]any{uml.FeatureName: "model"})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := model.NewModifier(m).Create("model", uml.FeaturePackagedElement, uml.Interaction, -1,
		map[string]any{uml.FeatureName: "Checkout"}); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	d, err := eng.Open(ctx, "session-1", m)
	if err != nil {
		log.Fatal(err)
	}

	st := eng.CreateNode(ctx, "session-1", domain.CreateNodeRequest{
		ParentViewID: d.Nodes[0].ID,
		Tool:         sequence.ToolLifeline,
	})
	fmt.Println(st.Success, st.Change)

	d, err = eng.Diagram(ctx, "session-1")
	if err != nil {
		log.Fatal(err)
	}
	for _, n := range d.AllNodes() {
		fmt.Println(n.MappingType)
	}
	// Output:
	// true semantic
	// SD_Interaction
	// SD_Lifeline_SubNode
}
