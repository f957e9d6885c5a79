package network

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/memstore"
)

func seedThreeNodeGraph(t *testing.T) *memstore.Store {
	t.Helper()
	ms := memstore.New()
	ms.AddNode(model.Node{NodeID: 1, UtilityNo: 7, ToolsetID: 100, EqPocNo: "EQ-A1"})
	ms.AddNode(model.Node{NodeID: 2, UtilityNo: 7, ToolsetID: 200, EqPocNo: "EQ-B2"})
	ms.AddNode(model.Node{NodeID: 3, UtilityNo: 9, ToolsetID: 100, EqPocNo: "EQ-C3"})
	ms.AddLink(model.Link{LinkID: 1, StartNodeID: 1, EndNodeID: 2, IsBidirected: true, Cost: 1})
	ms.AddLink(model.Link{LinkID: 2, StartNodeID: 2, EndNodeID: 3, IsBidirected: false, Cost: 1})
	return ms
}

func TestLoad_UnknownStartNodeFails(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	err := s.Load(context.Background(), 99, Filters{})
	assert.ErrorIs(t, err, ErrUnknownStart)
	assert.False(t, s.Loaded())
}

func TestLoad_ForcesStartNodeTraversableRegardlessOfFilters(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	// utility_no filter excludes node 1 (utility 7 != 99), but Load always
	// forces the start node into the traversable set.
	require.NoError(t, s.Load(context.Background(), 1, Filters{UtilityNo: 99}))

	ok, err := s.IsTraversable(1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsTraversable(2)
	require.NoError(t, err)
	assert.False(t, ok)

	start, err := s.StartNodeID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), start)
}

func TestLoadScope_NoForcedNodeFiltersPurely(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{UtilityNo: 7}))

	ok, err := s.IsTraversable(1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsTraversable(3)
	require.NoError(t, err)
	assert.False(t, ok) // utility 9, filtered out

	start, err := s.StartNodeID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
}

func TestComputeTraversable_ToolsetIDFilter(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{ToolsetID: 100}))

	ok, _ := s.IsTraversable(1)
	assert.True(t, ok)
	ok, _ = s.IsTraversable(2)
	assert.False(t, ok)
	ok, _ = s.IsTraversable(3)
	assert.True(t, ok)
}

func TestComputeTraversable_EqPocNoSubstringMatchIsCaseInsensitive(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{EqPocNo: "eq-b"}))

	ok, _ := s.IsTraversable(1)
	assert.False(t, ok)
	ok, _ = s.IsTraversable(2)
	assert.True(t, ok)
}

func TestNeighborsOf_BidirectedLinkProducesReverseEdge(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{}))

	edgesFrom2, err := s.NeighborsOf(2)
	require.NoError(t, err)
	require.Len(t, edgesFrom2, 2) // reverse edge from link 1, forward edge of link 2

	var sawReverseToOne, sawForwardToThree bool
	for _, e := range edgesFrom2 {
		if e.To == 1 && e.Reverse {
			sawReverseToOne = true
		}
		if e.To == 3 && !e.Reverse {
			sawForwardToThree = true
		}
	}
	assert.True(t, sawReverseToOne)
	assert.True(t, sawForwardToThree)

	edgesFrom3, err := s.NeighborsOf(3)
	require.NoError(t, err)
	assert.Empty(t, edgesFrom3) // link 2 is one-way, node 3 has no outgoing edges
}

func TestNodeInfoAndLinkInfo_ReturnStoredRows(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{}))

	node, ok, err := s.NodeInfo(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), node.ToolsetID)

	_, ok, err = s.NodeInfo(42)
	require.NoError(t, err)
	assert.False(t, ok)

	link, ok, err := s.LinkInfo(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), link.StartNodeID)
}

func TestQueries_BeforeLoadReturnErrNotLoaded(t *testing.T) {
	s := New(seedThreeNodeGraph(t))

	_, err := s.NeighborsOf(1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = s.IsTraversable(1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, _, err = s.NodeInfo(1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, _, err = s.LinkInfo(1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = s.StartNodeID()
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.False(t, s.Loaded())
}

func TestNodeCountAndLinkCount_ReportUnfilteredGraphSize(t *testing.T) {
	s := New(seedThreeNodeGraph(t))
	require.NoError(t, s.LoadScope(context.Background(), Filters{UtilityNo: 7}))

	assert.Equal(t, 3, s.NodeCount())
	assert.Equal(t, 2, s.LinkCount())
}

func TestParseTargetDataCodes_EmptyAndZeroMeanNoTargets(t *testing.T) {
	assert.Empty(t, ParseTargetDataCodes(""))
	assert.Empty(t, ParseTargetDataCodes("   "))
	assert.Empty(t, ParseTargetDataCodes("0"))
}

func TestParseTargetDataCodes_ParsesCommaSeparatedIntegers(t *testing.T) {
	out := ParseTargetDataCodes("10, 20,30")
	assert.Len(t, out, 3)
	_, ok := out[model.DataCode(10)]
	assert.True(t, ok)
	_, ok = out[model.DataCode(20)]
	assert.True(t, ok)
	_, ok = out[model.DataCode(30)]
	assert.True(t, ok)
}

func TestParseTargetDataCodes_SilentlyDropsNonIntegerTokens(t *testing.T) {
	out := ParseTargetDataCodes("10,abc,20")
	assert.Len(t, out, 2)
	_, ok := out[model.DataCode(10)]
	assert.True(t, ok)
	_, ok = out[model.DataCode(20)]
	assert.True(t, ok)
}
