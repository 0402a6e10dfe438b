package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tartan/pkg/util"
)

func TestEmptySet(t *testing.T) {
	s := util.Set[string]{}
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
}

func TestSetOfDuplicates(t *testing.T) {
	s := util.SetOf("a", "b", "a", "c", "b")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("c"))
}

func TestAddRemove(t *testing.T) {
	s := util.Set[int]{}
	s.Add(1)
	s.Add(2)
	s.Add(1)
	assert.Equal(t, 2, s.Len())

	s.Remove(2)
	assert.False(t, s.Contains(2))
	assert.True(t, s.Contains(1))
}

func TestClone(t *testing.T) {
	s := util.SetOf("x", "y")
	c := s.Clone()
	c.Add("z")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, c.Len())
}

func TestSorted(t *testing.T) {
	s := util.SetOf("c", "a", "b")
	assert.Equal(t, []string{"a", "b", "c"}, util.Sorted(s))
	assert.Empty(t, util.Sorted(util.Set[string]{}))
}
