/*
Package dsl provides a fluent Go API to author diagram descriptions.

It builds the same description.Description value the YAML compiler produces:

	b := dsl.New("sequence", uml.Interaction)
	interaction := b.Node("SD_Interaction", uml.Interaction).Self().Editable("Rename")
	lifeline := interaction.Child("SD_Lifeline_SubNode", uml.Lifeline).Feature("lifeline").
		Deletable("Delete").Editable("Rename")
	b.DomainEdge("SD_Message_DomainEdge", uml.Message).
		From("SD_Lifeline_SubNode").To("SD_Lifeline_SubNode").
		Paths("sendEvent.covered", "receiveEvent.covered")
	desc := b.Build()

Builders mutate the description in place; keep the returned builders to add
children or tools later.
*/
package dsl
