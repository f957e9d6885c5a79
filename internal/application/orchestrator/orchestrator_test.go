package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfrisancho/fabnet-coverage/internal/application/validator"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/memstore"
)

// seedSinglePairFixture builds a two-node network with exactly one drawable
// PoC pair, so a run completes in a single successful attempt once coverage
// target 0.0 is satisfied.
func seedSinglePairFixture(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	store.AddNode(model.Node{NodeID: 1, UtilityNo: 7, DataCode: 15000})
	store.AddNode(model.Node{NodeID: 2, UtilityNo: 7, DataCode: 16000})
	store.AddLink(model.Link{LinkID: 1, StartNodeID: 1, EndNodeID: 2, IsBidirected: true, Cost: 1})

	store.AddToolset(model.Toolset{Code: "TS1", Fab: "FAB1", IsActive: true})
	store.AddEquipment(model.Equipment{ID: 1, ToolsetID: "TS1", GUID: "EQ1", NodeID: 1, IsActive: true})
	store.AddEquipment(model.Equipment{ID: 2, ToolsetID: "TS1", GUID: "EQ2", NodeID: 2, IsActive: true})
	store.AddPoC(model.PoC{ID: 1, EquipmentID: 1, NodeID: 1, Code: "P1", Flow: model.FlowOut, IsActive: true, Reference: "REF-A"})
	store.AddPoC(model.PoC{ID: 2, EquipmentID: 2, NodeID: 2, Code: "P2", Flow: model.FlowIn, IsActive: true, Reference: "REF-B"})
	store.Connect(1, 2)
	return store
}

// seedUnderstaffedToolsetFixture builds a network with a nonempty coverage
// universe (so EmptyScope never triggers) but a single toolset with only
// one piece of equipment, so the sampler can never draw a pair and, after
// enough dry draws, becomes exhausted.
func seedUnderstaffedToolsetFixture(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	store.AddNode(model.Node{NodeID: 1, UtilityNo: 7})
	store.AddToolset(model.Toolset{Code: "TS1", Fab: "FAB1", IsActive: true})
	store.AddEquipment(model.Equipment{ID: 1, ToolsetID: "TS1", GUID: "EQ1", NodeID: 1, IsActive: true})
	store.AddPoC(model.PoC{ID: 1, EquipmentID: 1, NodeID: 1, Code: "P1", Flow: model.FlowOut, IsActive: true})
	return store
}

func TestExecuteRun_CompletesOnFirstSuccessfulAttempt(t *testing.T) {
	store := seedSinglePairFixture(t)
	compat, err := validator.NewCompatibilityTable(nil)
	require.NoError(t, err)
	orch := New(store, store, store, store, store, compat)

	cfg := RunConfig{
		Approach: "RANDOM", Method: "DIJKSTRA", Fab: "FAB1",
		CoverageTarget: 0.0, MaxAttempts: 20, Timeout: 2 * time.Second,
	}
	summary, err := orch.RunToCompletion(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, model.CompletionCompleted, summary.CompletionStatus)
	assert.Equal(t, 1, summary.TotalAttempts)
	assert.Equal(t, 1, summary.TotalPathsFound)
	assert.Equal(t, 1, summary.UniquePaths)
	assert.Equal(t, 1.0, summary.AchievedCoverage)
	assert.Equal(t, 1.0, summary.SuccessRate)

	require.Len(t, store.Runs, 1)
	for _, r := range store.Runs {
		assert.Equal(t, model.RunStatusDone, r.Status)
		assert.NotNil(t, r.EndedAt)
	}
	assert.NotEmpty(t, store.PathTags)

	require.Len(t, store.Definitions, 1)
	def := store.Definitions[0]
	assert.ElementsMatch(t, []int{7}, def.UtilitiesScope)
	assert.ElementsMatch(t, []int64{15000, 16000}, def.DataCodesScope)
	assert.ElementsMatch(t, []string{"REF-A", "REF-B"}, def.ReferencesScope)
}

func TestExecuteRun_EmptyScopeFailsImmediately(t *testing.T) {
	store := memstore.New() // no nodes, toolsets, or PoCs at all
	compat, err := validator.NewCompatibilityTable(nil)
	require.NoError(t, err)
	orch := New(store, store, store, store, store, compat)

	cfg := RunConfig{
		Approach: "RANDOM", Method: "DIJKSTRA", Fab: "FAB1",
		CoverageTarget: 0.0, MaxAttempts: 5, Timeout: 200 * time.Millisecond,
	}
	summary, err := orch.RunToCompletion(context.Background(), cfg)
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.TotalAttempts)
	assert.Equal(t, model.CompletionFailed, summary.CompletionStatus)

	require.Len(t, store.Runs, 1)
	for _, r := range store.Runs {
		assert.Equal(t, model.RunStatusFailed, r.Status)
		assert.NotNil(t, r.EndedAt)
	}
}

func TestExecuteRun_SamplerExhaustionEndsRunAsPartial(t *testing.T) {
	store := seedUnderstaffedToolsetFixture(t)
	compat, err := validator.NewCompatibilityTable(nil)
	require.NoError(t, err)
	orch := New(store, store, store, store, store, compat)

	cfg := RunConfig{
		Approach: "RANDOM", Method: "DIJKSTRA", Fab: "FAB1",
		CoverageTarget: 0.5, MaxAttempts: 1000, Timeout: 5 * time.Second,
	}
	summary, err := orch.RunToCompletion(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, model.CompletionPartial, summary.CompletionStatus)
	assert.Equal(t, 0, summary.TotalAttempts)
	assert.Equal(t, 0, summary.TotalPathsFound)
}
