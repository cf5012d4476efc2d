package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/mapping"
)

func TestResolver(t *testing.T) {
	r := mapping.NewResolver("SD_",
		mapping.WithEdgeTypes("Message"),
		mapping.WithSharedExemptions("Comment"),
	)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"root", r.MappingType("Lifeline"), "SD_Lifeline"},
		{"edge type", r.MappingType("Message"), "SD_Message_DomainEdge"},
		{"sub node shared", r.MappingTypeAsSubNode("Lifeline"), "SD_Lifeline_SHARED"},
		{"exempt falls back", r.MappingTypeAsSubNode("Comment"), "SD_Comment"},
		{"role sub node", r.For("Lifeline", mapping.SubNode), "SD_Lifeline_SubNode"},
		{"role shared", r.For("Lifeline", mapping.Shared), "SD_Lifeline_SHARED"},
		{"role root", r.For("Lifeline", mapping.Root), "SD_Lifeline"},
		{"specialized", r.Specialized("Comment", "Annotation"), "SD_Comment_Annotation"},
		{"compartment", r.Compartment("Class", "Attributes"), "SD_Class_Attributes_CompartmentNode"},
		{"fake child", r.FakeChild("Interaction"), "SD_Interaction_FakeChildNode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestResolver_CollisionFree(t *testing.T) {
	r := mapping.NewResolver("CSD_", mapping.WithEdgeTypes("Connector"))
	seen := make(map[string]string)
	for _, typ := range []string{"Class", "Port", "Property", "Connector"} {
		for _, role := range []mapping.Role{mapping.Root, mapping.SubNode, mapping.Shared} {
			name := r.For(typ, role)
			key := typ + "/" + role.String()
			if prev, dup := seen[name]; dup {
				t.Fatalf("%s and %s both map to %s", prev, key, name)
			}
			seen[name] = key
			assert.Equal(t, name, r.For(typ, role), "deterministic")
		}
	}
}

func TestPredicates(t *testing.T) {
	r := mapping.NewResolver("SD_")
	assert.True(t, mapping.IsCompartment(r.Compartment("Class", "Attributes")))
	assert.True(t, mapping.IsFakeChild(r.FakeChild("Interaction")))
	assert.True(t, mapping.IsShared(r.MappingTypeAsSubNode("Lifeline")))
	assert.False(t, mapping.IsShared(r.MappingType("Lifeline")))
}
