// Package repository defines the persistence-facing interfaces the
// application layer depends on. Concrete implementations live under
// internal/infrastructure/storage (Postgres via bun) and
// internal/infrastructure/storage/memstore (in-memory fake for tests).
package repository

import (
	"context"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// NetworkRepository loads the raw node/link universe the Network Store
// builds its adjacency list from (spec §4.A).
type NetworkRepository interface {
	// LoadAllNodes returns every node in nw_nodes.
	LoadAllNodes(ctx context.Context) ([]model.Node, error)

	// LoadLinks returns every link whose endpoints are both present in
	// nodeIDs.
	LoadLinks(ctx context.Context, nodeIDs map[int64]struct{}) ([]model.Link, error)
}

// SamplingRepository exposes the equipment/PoC universe the Sampler draws
// from (spec §4.E) and the coverage universe queries (spec §4.D).
type SamplingRepository interface {
	// DistinctFabs returns distinct fabs of active toolsets matching scope.
	DistinctFabs(ctx context.Context, scope model.Scope) ([]string, error)

	// ToolsetsInFab returns active toolsets under fab matching scope.
	ToolsetsInFab(ctx context.Context, fab string, scope model.Scope) ([]model.Toolset, error)

	// RelatedToolsets returns toolsets sharing fab/phase/model with seed,
	// excluding seed itself, for the "grouped" intelligent coverage
	// strategy.
	RelatedToolsets(ctx context.Context, seed model.Toolset) ([]model.Toolset, error)

	// EquipmentInToolset returns active equipment for a toolset code.
	EquipmentInToolset(ctx context.Context, toolsetCode string) ([]model.Equipment, error)

	// ActivePoCsForEquipment returns active PoCs for an equipment.
	ActivePoCsForEquipment(ctx context.Context, equipmentID int64) ([]model.PoC, error)

	// PoCCountInToolset returns the count of active PoCs bound to a
	// toolset's equipment, used to estimate a scope's "potential coverage".
	PoCCountInToolset(ctx context.Context, toolsetCode string) (int, error)

	// TotalPoCCount returns the factory-wide active PoC count.
	TotalPoCCount(ctx context.Context) (int, error)

	// ValidConnections reports, for each node pair, whether a PoC-to-PoC
	// connection exists and is valid between the two nodes, used by the
	// Validator's connectivity check.
	ValidConnections(ctx context.Context, nodePairs [][2]int64) (map[[2]int64]bool, error)

	// PoCByNodeID fetches a PoC keyed by its bound network node.
	PoCByNodeID(ctx context.Context, nodeID int64) (*model.PoC, error)

	// CoverageUniverse returns the distinct in-scope node ids and the
	// distinct unordered link-node-pairs in scope, per spec §4.D
	// Initialize.
	CoverageUniverse(ctx context.Context, scope model.Scope) (nodes []int64, links [][2]int64, err error)
}
