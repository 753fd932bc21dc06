package dom

import (
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdoptNode_ReusesHandlePerNode(t *testing.T) {
	s := New(nil)
	el := &rod.Element{}

	first := s.adoptNode(proto.DOMBackendNodeID(42), el)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, s.adoptNode(proto.DOMBackendNodeID(42), el))
	}
	assert.Len(t, s.elements, 1, "re-adopting the same node must not grow the table")

	other := s.adoptNode(proto.DOMBackendNodeID(43), el)
	assert.NotEqual(t, first, other)
	assert.Len(t, s.elements, 2)
}

func TestAdoptNode_HandleResolvesToElement(t *testing.T) {
	s := New(nil)
	el := &rod.Element{}

	id := s.adoptNode(proto.DOMBackendNodeID(7), el)
	got, err := s.lookup(id)
	require.NoError(t, err)
	assert.Same(t, el, got)

	_, err = s.lookup("node-999")
	assert.Error(t, err)
}
