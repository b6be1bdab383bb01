package branchedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryMergeReturnsNewEntry(t *testing.T) {
	t.Parallel()

	e := NewEntry("A", 1, "main")
	merged := e.Merge(2, "alt", "main")

	assert.Equal(t, 1, e.Value())
	assert.ElementsMatch(t, []string{"main"}, e.BranchIDs().Slice())

	key, value, ids := merged.Unpack()
	assert.Equal(t, "A", key)
	assert.Equal(t, 2, value)
	assert.ElementsMatch(t, []string{"main", "alt"}, ids.Slice())
	assert.True(t, merged.HasBranch("alt"))
}

func TestEntryBranchIDsIsCopy(t *testing.T) {
	t.Parallel()

	e := NewEntry("A", 1, 1, 2)
	ids := e.BranchIDs()
	delete(ids, 1)
	ids[9] = struct{}{}

	assert.ElementsMatch(t, []int{1, 2}, e.BranchIDs().Slice())
}

func TestNewEntryOf(t *testing.T) {
	t.Parallel()

	e := NewEntryOf("A", "a", []int{3, 3, 4})
	assert.Equal(t, 2, e.BranchIDs().Len())

	assert.Panics(t, func() { NewEntryOf("A", "a", []int{}) })
}

func TestBranchSet(t *testing.T) {
	t.Parallel()

	a := NewBranchSet(1, 2, 3)
	b := NewBranchSet(3, 4)
	c := NewBranchSet(5)

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
	assert.True(t, a.Union(4).IsSupersetOf(b))
	assert.False(t, a.IsSupersetOf(b))
	assert.Equal(t, 3, a.Len(), "Union does not modify the receiver")
}

func TestDistinctBy(t *testing.T) {
	t.Parallel()

	type stop struct {
		id       string
		branches BranchSet[int]
	}
	stops := []stop{
		{"S1", NewBranchSet(1, 2)},
		{"S2", NewBranchSet(2)},
		{"S3", NewBranchSet(3)},
		{"S4", NewBranchSet(3, 4)},
		{"S5", NewBranchSet(5)},
	}

	got := DistinctBy(stops, func(s stop) BranchSet[int] { return s.branches }, IntersectingBranches[int])

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.id)
	}
	assert.Equal(t, []string{"S1", "S3", "S5"}, ids)
	assert.Empty(t, DistinctBy([]stop{}, func(s stop) string { return s.id }, func(a, b string) bool { return a == b }))
}
