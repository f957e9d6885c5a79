package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureTracker() *Tracker {
	nodes := []int64{1, 2, 3, 4}
	links := [][2]int64{{1, 2}, {2, 3}, {3, 4}}
	return NewFromUniverse(nodes, links)
}

func TestNewFromUniverse_Arity(t *testing.T) {
	tr := newFixtureTracker()
	assert.Equal(t, 4, tr.TotalNodes())
	assert.Equal(t, 3, tr.TotalLinks())
	assert.Equal(t, 0.0, tr.Fraction())
}

func TestNewFromUniverse_DedupsDuplicateLinkPairs(t *testing.T) {
	tr := NewFromUniverse([]int64{1, 2}, [][2]int64{{1, 2}, {2, 1}})
	assert.Equal(t, 1, tr.TotalLinks())
}

func TestUpdate_FirstPathIncreasesCoverage(t *testing.T) {
	tr := newFixtureTracker()
	isNew, frac := tr.Update("hash-a", []int64{1, 2, 3})
	assert.True(t, isNew)
	// 3 nodes + 2 links covered out of 4+3=7 total
	assert.InDelta(t, 5.0/7.0, frac, 1e-9)
}

func TestUpdate_RepeatHashIsNoOp(t *testing.T) {
	tr := newFixtureTracker()
	tr.Update("hash-a", []int64{1, 2, 3})
	before := tr.Fraction()
	isNew, frac := tr.Update("hash-a", []int64{1, 2, 3, 4})
	assert.False(t, isNew)
	assert.Equal(t, before, frac)
}

func TestUpdate_IgnoresNodesOutsideUniverse(t *testing.T) {
	tr := newFixtureTracker()
	_, frac := tr.Update("hash-b", []int64{1, 2, 999})
	// node 999 and link (2,999) aren't in the universe: 2 nodes + 1 link covered
	assert.InDelta(t, 3.0/7.0, frac, 1e-9)
}

func TestFraction_ReachesOneAtFullCoverage(t *testing.T) {
	tr := newFixtureTracker()
	tr.Update("hash-full", []int64{1, 2, 3, 4})
	assert.Equal(t, 1.0, tr.Fraction())
	assert.Equal(t, 1.0, tr.NodeFraction())
	assert.Equal(t, 1.0, tr.LinkFraction())
}

func TestUncoveredNodesAndLinks(t *testing.T) {
	tr := newFixtureTracker()
	tr.Update("hash-a", []int64{1, 2})
	assert.Equal(t, []int64{3, 4}, tr.UncoveredNodes(0))
	assert.Equal(t, [][2]int64{{2, 3}, {3, 4}}, tr.UncoveredLinks(0))
	assert.Equal(t, []int64{3}, tr.UncoveredNodes(1))
}

func TestGapsByNode_ActionableAboveFive(t *testing.T) {
	uncovered := []int64{1, 2, 3, 4, 5, 6}
	groups := GapsByNode(uncovered, func(int64) string { return "DC-100" })
	g := groups["DC-100"]
	assert.Equal(t, 6, g.Count)
	assert.True(t, g.Actionable)
}

func TestGapsByNode_NotActionableAtFive(t *testing.T) {
	uncovered := []int64{1, 2, 3, 4, 5}
	groups := GapsByNode(uncovered, func(int64) string { return "DC-100" })
	assert.False(t, groups["DC-100"].Actionable)
}

func TestExportImport_RoundTrip(t *testing.T) {
	tr := newFixtureTracker()
	tr.Update("hash-a", []int64{1, 2, 3})
	snap, err := tr.Export()
	require.NoError(t, err)

	restored := newFixtureTracker()
	require.NoError(t, restored.Import(snap))
	assert.Equal(t, tr.Fraction(), restored.Fraction())
	assert.Equal(t, tr.UncoveredNodes(0), restored.UncoveredNodes(0))
}
