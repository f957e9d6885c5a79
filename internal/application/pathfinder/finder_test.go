package pathfinder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/memstore"
)

// buildLine seeds a 5-node line 1-2-3-4-5. The first three links are
// bidirected; the last (4-5) is one-way so node 5 carries no adjacency
// entries of its own and classifies as LEAF - classify() judges a node's
// network-structural leaf/boundary status from its stored edges, not from
// the current walk's visited set.
func buildLine(t *testing.T) *network.Store {
	t.Helper()
	ms := memstore.New()
	for i := int64(1); i <= 5; i++ {
		ms.AddNode(model.Node{NodeID: i, UtilityNo: 7})
	}
	for i := int64(1); i < 4; i++ {
		ms.AddLink(model.Link{LinkID: i, StartNodeID: i, EndNodeID: i + 1, IsBidirected: true, Cost: 1})
	}
	ms.AddLink(model.Link{LinkID: 4, StartNodeID: 4, EndNodeID: 5, IsBidirected: false, Cost: 1})
	store := network.New(ms)
	require.NoError(t, store.LoadScope(context.Background(), network.Filters{}))
	return store
}

func TestFindShortest_ReachesLeafEndpoint(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	results, err := f.FindShortest(1, 0, "")
	require.NoError(t, err)

	var leaf *model.PathResult
	for i := range results {
		if results[i].EndNodeID == 5 {
			leaf = &results[i]
		}
	}
	require.NotNil(t, leaf)
	assert.Equal(t, model.EndpointLeaf, leaf.EndpointKind)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, leaf.Nodes)
	assert.Equal(t, 4.0, leaf.TotalCost)
}

func TestFindShortest_IgnoreNodeExcludesFromTraversal(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	results, err := f.FindShortest(1, 3, "")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, int64(3), r.EndNodeID)
		assert.NotEqual(t, int64(4), r.EndNodeID)
		assert.NotEqual(t, int64(5), r.EndNodeID)
	}
}

func TestFindShortestBetween_FindsPath(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	res, err := f.FindShortestBetween(1, 4, 0)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []int64{1, 2, 3, 4}, res.Nodes)
	assert.Equal(t, 3.0, res.TotalCost)
	require.Len(t, res.Links, 3)
	assert.Equal(t, 1, res.Links[0].Seq)
	assert.Equal(t, 3, res.Links[len(res.Links)-1].Seq)
}

func TestFindShortestBetween_UnreachableReturnsNilNil(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	res, err := f.FindShortestBetween(1, 99, 0)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestFindAnyBetween_RespectsDepthCap(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	res, err := f.FindAnyBetween(1, 5, 0, 2)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = f.FindAnyBetween(1, 5, 0, 4)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, res.Nodes)
}

func TestFindAnyBetween_SameStartAndEnd(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	res, err := f.FindAnyBetween(2, 2, 0, 5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []int64{2}, res.Nodes)
}

func TestFindAll_EnumeratesAllSimplePaths(t *testing.T) {
	store := buildLine(t)
	f := New(store)

	results, err := f.FindAll(1, 0, "", 0)
	require.NoError(t, err)
	// a straight line has exactly one leaf endpoint per direction from 1: node 5.
	require.Len(t, results, 1)
	assert.Equal(t, int64(5), results[0].EndNodeID)
	assert.Equal(t, model.EndpointLeaf, results[0].EndpointKind)
}

func TestFindAll_CeilingExceededReturnsPartialResultsAndError(t *testing.T) {
	// branching graph: 1 connects one-way to two dead-end leaves, 2 and 6,
	// so a ceiling of 1 is exceeded recording the second leaf.
	ms := memstore.New()
	ms.AddNode(model.Node{NodeID: 1, UtilityNo: 7})
	ms.AddNode(model.Node{NodeID: 2, UtilityNo: 7})
	ms.AddNode(model.Node{NodeID: 6, UtilityNo: 7})
	ms.AddLink(model.Link{LinkID: 1, StartNodeID: 1, EndNodeID: 2, IsBidirected: false, Cost: 1})
	ms.AddLink(model.Link{LinkID: 2, StartNodeID: 1, EndNodeID: 6, IsBidirected: false, Cost: 1})
	branching := network.New(ms)
	require.NoError(t, branching.LoadScope(context.Background(), network.Filters{}))
	bf := New(branching)

	results, err := bf.FindAll(1, 0, "", 1)
	assert.ErrorIs(t, err, ErrPathCeilingExceeded)
	assert.Len(t, results, 1)
}

func TestFindAll_NotLoadedReturnsError(t *testing.T) {
	store := network.New(memstore.New())
	f := New(store)
	_, err := f.FindAll(1, 0, "", 0)
	assert.ErrorIs(t, err, network.ErrNotLoaded)
}
