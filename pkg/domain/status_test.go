package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	t.Run("Success Defaults Parameters", func(t *testing.T) {
		s := Success(ChangeSemantic, nil)
		assert.True(t, s.Success)
		assert.NotNil(t, s.Parameters)
		assert.False(t, s.Is(ErrPermissionDenied))
	})

	t.Run("Failure Keeps Wrapped Reason", func(t *testing.T) {
		err := fmt.Errorf("feature %q is derived: %w", "ownedMember", ErrPermissionDenied)
		s := Failure(err)
		assert.False(t, s.Success)
		assert.Equal(t, ChangeNone, s.Change)
		assert.Equal(t, "permission_denied", s.Code)
		assert.True(t, s.Is(ErrPermissionDenied))
		assert.Contains(t, s.Message, "ownedMember")
	})

	t.Run("Unknown Error Code", func(t *testing.T) {
		assert.Equal(t, "internal", Code(fmt.Errorf("boom")))
	})
}

func TestDiagram_Identity(t *testing.T) {
	d := diagram([]*Node{
		{ID: "b", MappingType: "B", SemanticID: "2", ParentID: "d", Children: []*Node{
			{ID: "c", MappingType: "C", SemanticID: "3", ParentID: "b"},
		}},
		{ID: "a", MappingType: "A", SemanticID: "1", ParentID: "d"},
	}, nil)

	assert.Equal(t, []Triple{
		{MappingType: "C", SemanticID: "3", ParentID: "b"},
		{MappingType: "A", SemanticID: "1", ParentID: "d"},
		{MappingType: "B", SemanticID: "2", ParentID: "d"},
	}, d.Identity())

	n, ok := d.Node("c")
	assert.True(t, ok)
	assert.Equal(t, "b", n.ParentID)
	assert.Len(t, d.NodesFor("3"), 1)
}
