/*
Package papyrus keeps diagrams synchronized with the semantic models they show.

A diagram kind (see pkg/kinds) pairs a metamodel with a declarative diagram
description: which elements become nodes, which become edges, how views nest, and
which tools the palette offers. The engine renders a diagram from a model and a
description, keeps it consistent as the model changes, and runs interactive edit
operations (create, delete, reconnect, direct edit, drag and drop) that mutate the
model and the diagram together, atomically.

# Usage

	eng, err := papyrus.New(sequence.New())
	if err != nil {
		log.Fatal(err) // the description failed validation
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
	if !st.Success {
		log.Printf("%s: %s", st.Code, st.Message)
	}

Edit operations never return Go errors: every outcome is a domain.Status. Sessions are
serialized per id and persisted through a ports.SessionStore (memory by default; Redis
and SQLite adapters live in pkg/adapters).
*/
package papyrus
