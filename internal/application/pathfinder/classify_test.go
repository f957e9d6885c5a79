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

func TestClassify_TargetDataCodeWins(t *testing.T) {
	ms := memstore.New()
	ms.AddNode(model.Node{NodeID: 1, UtilityNo: 7})
	ms.AddNode(model.Node{NodeID: 2, UtilityNo: 7, DataCode: model.DataCodeEquipment})
	ms.AddNode(model.Node{NodeID: 3, UtilityNo: 7})
	ms.AddLink(model.Link{LinkID: 1, StartNodeID: 1, EndNodeID: 2, IsBidirected: true, Cost: 1})
	ms.AddLink(model.Link{LinkID: 2, StartNodeID: 2, EndNodeID: 3, IsBidirected: true, Cost: 1})
	store := network.New(ms)
	require.NoError(t, store.LoadScope(context.Background(), network.Filters{}))

	targets := map[model.DataCode]struct{}{model.DataCodeEquipment: {}}
	kind, ok, err := classify(store, 2, 1, 0, targets)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.EndpointTarget, kind)
}

func TestClassify_BoundaryWhenNoTraversableNeighbor(t *testing.T) {
	// one-way edges: 1 -> 2 -> 3, node 3 out of scope. At u=2 the only
	// stored neighbor is the forward edge to 3 - there is no reverse edge
	// back to 1 to count as "traversable", so 2 classifies as BOUNDARY.
	ms := memstore.New()
	ms.AddNode(model.Node{NodeID: 1, UtilityNo: 7})
	ms.AddNode(model.Node{NodeID: 2, UtilityNo: 7})
	ms.AddNode(model.Node{NodeID: 3, UtilityNo: 9}) // out of scope
	ms.AddLink(model.Link{LinkID: 1, StartNodeID: 1, EndNodeID: 2, IsBidirected: false, Cost: 1})
	ms.AddLink(model.Link{LinkID: 2, StartNodeID: 2, EndNodeID: 3, IsBidirected: false, Cost: 1})
	store := network.New(ms)
	require.NoError(t, store.LoadScope(context.Background(), network.Filters{UtilityNo: 7}))

	kind, ok, err := classify(store, 2, 1, 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.EndpointBoundary, kind)
}

func TestClassify_StartAndIgnoreAreNeverEndpoints(t *testing.T) {
	ms := memstore.New()
	ms.AddNode(model.Node{NodeID: 1, UtilityNo: 7})
	store := network.New(ms)
	require.NoError(t, store.LoadScope(context.Background(), network.Filters{}))

	_, ok, err := classify(store, 1, 1, 0, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = classify(store, 5, 1, 5, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
