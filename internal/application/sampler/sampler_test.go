package sampler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/memstore"
)

// seedToolsetWithTwoEquipments builds a toolset with two pieces of
// equipment, each carrying one active, unused PoC, bound to distinct
// nodes.
func seedToolsetWithTwoEquipments(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	store.AddToolset(model.Toolset{Code: "TS1", Fab: "FAB1", Phase: "P1", ModelNo: "M1", IsActive: true})
	store.AddEquipment(model.Equipment{ID: 1, ToolsetID: "TS1", GUID: "EQ1", NodeID: 10, IsActive: true})
	store.AddEquipment(model.Equipment{ID: 2, ToolsetID: "TS1", GUID: "EQ2", NodeID: 20, IsActive: true})
	store.AddPoC(model.PoC{ID: 1, EquipmentID: 1, NodeID: 10, Code: "PC1", Flow: model.FlowOut, IsActive: true})
	store.AddPoC(model.PoC{ID: 2, EquipmentID: 2, NodeID: 20, Code: "PC2", Flow: model.FlowIn, IsActive: true})
	return store
}

func TestDraw_ProducesPairFromTwoDistinctEquipments(t *testing.T) {
	store := seedToolsetWithTwoEquipments(t)
	s := New(store, model.Scope{Fab: "FAB1"}, Config{BiasMitigation: true, MaxPoCRetries: 3}, "run-1")

	pair, err := s.Draw(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEqual(t, pair.From.NodeID, pair.To.NodeID)
}

func TestDraw_NilWhenToolsetHasFewerThanTwoEquipments(t *testing.T) {
	store := memstore.New()
	store.AddToolset(model.Toolset{Code: "TS1", Fab: "FAB1", IsActive: true})
	store.AddEquipment(model.Equipment{ID: 1, ToolsetID: "TS1", GUID: "EQ1", NodeID: 10, IsActive: true})
	s := New(store, model.Scope{Fab: "FAB1"}, Config{}, "run-1")

	pair, err := s.Draw(context.Background())
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestDraw_NilWhenNoActiveToolsetsInFab(t *testing.T) {
	store := memstore.New()
	s := New(store, model.Scope{Fab: "FAB1"}, Config{}, "run-1")

	pair, err := s.Draw(context.Background())
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestDraw_SeenPairIsNotRedrawn(t *testing.T) {
	store := seedToolsetWithTwoEquipments(t)
	s := New(store, model.Scope{Fab: "FAB1"}, Config{MaxPoCRetries: 3}, "run-1")

	first, err := s.Draw(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	key := unorderedPair(first.From.NodeID, first.To.NodeID)
	_, seen := s.seenPairs[key]
	assert.True(t, seen)

	// with only one possible pair in this toolset, the next draw must
	// exhaust its PoC retries and come back empty rather than repeat it.
	second, err := s.Draw(context.Background())
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestRecordDryDraw_MovesToolsetToFailedSetPastThreshold(t *testing.T) {
	store := memstore.New()
	s := New(store, model.Scope{}, Config{MaxToolsetDryDraws: 2}, "run-1")
	// five toolsets so TS1 alone failing stays under the 80% livelock
	// threshold and the failed set isn't immediately reset.
	s.allToolsets = []model.Toolset{{Code: "TS1"}, {Code: "TS2"}, {Code: "TS3"}, {Code: "TS4"}, {Code: "TS5"}}

	s.recordDryDraw("TS1")
	_, failed := s.failedSet["TS1"]
	assert.False(t, failed)

	s.recordDryDraw("TS1")
	s.recordDryDraw("TS1")
	_, failed = s.failedSet["TS1"]
	assert.True(t, failed)
	assert.False(t, s.Exhausted())
}

func TestRecordDryDraw_MarksExhaustedPastLivelockThreshold(t *testing.T) {
	store := memstore.New()
	s := New(store, model.Scope{}, Config{MaxToolsetDryDraws: 1}, "run-1")
	s.allToolsets = []model.Toolset{{Code: "A"}, {Code: "B"}, {Code: "C"}, {Code: "D"}, {Code: "E"}}
	assert.False(t, s.Exhausted())

	// fail 4 of 5 toolsets (80%), which should trip Exhausted - there is no
	// candidate pool left to reset into, so the failed set stays populated.
	for _, code := range []string{"A", "B", "C", "D"} {
		s.recordDryDraw(code)
		s.recordDryDraw(code)
	}
	assert.True(t, s.Exhausted())
	assert.Len(t, s.failedSet, 4)
}

func TestWeightedPick_UniformWithoutBiasMitigation(t *testing.T) {
	store := memstore.New()
	s := New(store, model.Scope{}, Config{BiasMitigation: false}, "run-1")
	idx := s.weightedPick(3, func(i int) string { return "x" })
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 3)
}

func TestWeightedPick_EmptyReturnsNegativeOne(t *testing.T) {
	store := memstore.New()
	s := New(store, model.Scope{}, Config{}, "run-1")
	assert.Equal(t, -1, s.weightedPick(0, func(i int) string { return "x" }))
}

func TestSeedFromRunID_IsDeterministicAndNonZero(t *testing.T) {
	a := seedFromRunID("run-123")
	b := seedFromRunID("run-123")
	assert.Equal(t, a, b)
	assert.NotZero(t, a)
	assert.Greater(t, a, int64(0))
}
