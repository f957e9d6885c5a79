package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/models"
)

// SamplingRepository is the bun-backed implementation of
// repository.SamplingRepository.
type SamplingRepository struct {
	db bun.IDB
}

func NewSamplingRepository(db bun.IDB) *SamplingRepository {
	return &SamplingRepository{db: db}
}

func applyScope(q *bun.SelectQuery, scope model.Scope) *bun.SelectQuery {
	if scope.Phase != "" {
		q = q.Where("phase = ?", scope.Phase)
	}
	if scope.Model != "" {
		q = q.Where("model_no = ?", scope.Model)
	}
	return q
}

func (r *SamplingRepository) DistinctFabs(ctx context.Context, scope model.Scope) ([]string, error) {
	var fabs []string
	q := r.db.NewSelect().Model((*models.ToolsetModel)(nil)).
		ColumnExpr("DISTINCT fab").
		Where("is_active = ?", true)
	q = applyScope(q, scope)
	if err := q.Scan(ctx, &fabs); err != nil {
		return nil, fmt.Errorf("distinct fabs: %w", err)
	}
	return fabs, nil
}

func (r *SamplingRepository) ToolsetsInFab(ctx context.Context, fab string, scope model.Scope) ([]model.Toolset, error) {
	var rows []models.ToolsetModel
	q := r.db.NewSelect().Model(&rows).
		Where("fab = ?", fab).
		Where("is_active = ?", true)
	q = applyScope(q, scope)
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("toolsets in fab: %w", err)
	}
	return toToolsets(rows), nil
}

func (r *SamplingRepository) RelatedToolsets(ctx context.Context, seed model.Toolset) ([]model.Toolset, error) {
	var rows []models.ToolsetModel
	err := r.db.NewSelect().Model(&rows).
		Where("fab = ?", seed.Fab).
		Where("phase = ?", seed.Phase).
		Where("model_no = ?", seed.ModelNo).
		Where("code != ?", seed.Code).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("related toolsets: %w", err)
	}
	return toToolsets(rows), nil
}

func toToolsets(rows []models.ToolsetModel) []model.Toolset {
	out := make([]model.Toolset, 0, len(rows))
	for _, t := range rows {
		out = append(out, model.Toolset{Code: t.Code, Fab: t.Fab, Phase: t.Phase, ModelNo: t.ModelNo, PhaseNo: t.PhaseNo, IsActive: t.IsActive})
	}
	return out
}

func (r *SamplingRepository) EquipmentInToolset(ctx context.Context, toolsetCode string) ([]model.Equipment, error) {
	var rows []models.EquipmentModel
	if err := r.db.NewSelect().Model(&rows).Where("toolset = ?", toolsetCode).Where("is_active = ?", true).Scan(ctx); err != nil {
		return nil, fmt.Errorf("equipment in toolset: %w", err)
	}
	out := make([]model.Equipment, 0, len(rows))
	for _, e := range rows {
		out = append(out, model.Equipment{ID: e.ID, ToolsetID: e.ToolsetID, GUID: e.GUID, NodeID: e.NodeID, DataCode: model.DataCode(e.DataCode), CategoryNo: e.CategoryNo, Kind: e.Kind, IsActive: e.IsActive})
	}
	return out, nil
}

func (r *SamplingRepository) ActivePoCsForEquipment(ctx context.Context, equipmentID int64) ([]model.PoC, error) {
	var rows []models.PoCModel
	if err := r.db.NewSelect().Model(&rows).Where("equipment_id = ?", equipmentID).Where("is_active = ?", true).Scan(ctx); err != nil {
		return nil, fmt.Errorf("active pocs: %w", err)
	}
	return toPoCs(rows), nil
}

func toPoCs(rows []models.PoCModel) []model.PoC {
	out := make([]model.PoC, 0, len(rows))
	for _, p := range rows {
		out = append(out, model.PoC{
			ID: p.ID, EquipmentID: p.EquipmentID, NodeID: p.NodeID, Code: p.Code,
			UtilityNo: p.UtilityNo, Reference: p.Reference, Flow: model.Flow(p.Flow),
			Markers: p.Markers, IsUsed: p.IsUsed, IsLoopback: p.IsLoopback, IsActive: p.IsActive,
		})
	}
	return out
}

func (r *SamplingRepository) PoCCountInToolset(ctx context.Context, toolsetCode string) (int, error) {
	n, err := r.db.NewSelect().
		Model((*models.PoCModel)(nil)).
		Join("JOIN tb_equipments AS e ON e.id = p.equipment_id").
		Where("e.toolset = ?", toolsetCode).
		Where("p.is_active = ?", true).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("poc count in toolset: %w", err)
	}
	return n, nil
}

func (r *SamplingRepository) TotalPoCCount(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().Model((*models.PoCModel)(nil)).Where("is_active = ?", true).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("total poc count: %w", err)
	}
	return n, nil
}

func (r *SamplingRepository) ValidConnections(ctx context.Context, nodePairs [][2]int64) (map[[2]int64]bool, error) {
	out := make(map[[2]int64]bool, len(nodePairs))
	if len(nodePairs) == 0 {
		return out, nil
	}

	nodeIDs := make(map[int64]struct{})
	for _, p := range nodePairs {
		nodeIDs[p[0]] = struct{}{}
		nodeIDs[p[1]] = struct{}{}
	}
	ids := make([]int64, 0, len(nodeIDs))
	for id := range nodeIDs {
		ids = append(ids, id)
	}

	var pocs []models.PoCModel
	if err := r.db.NewSelect().Model(&pocs).Where("node_id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load pocs for connections: %w", err)
	}
	nodeToPoC := make(map[int64]int64, len(pocs))
	pocToNode := make(map[int64]int64, len(pocs))
	for _, p := range pocs {
		nodeToPoC[p.NodeID] = p.ID
		pocToNode[p.ID] = p.NodeID
	}

	var conns []models.PoCConnectionModel
	if err := r.db.NewSelect().Model(&conns).Where("is_valid = ?", true).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load poc connections: %w", err)
	}
	validPairs := make(map[[2]int64]bool, len(conns))
	for _, c := range conns {
		fromNode, ok1 := pocToNode[c.FromPoCID]
		toNode, ok2 := pocToNode[c.ToPoCID]
		if !ok1 || !ok2 {
			continue
		}
		validPairs[[2]int64{fromNode, toNode}] = true
	}

	for _, p := range nodePairs {
		out[p] = validPairs[p] || validPairs[[2]int64{p[1], p[0]}]
	}
	return out, nil
}

// PoCByNodeID returns the PoC bound to nodeID, or (nil, nil) if the node has
// no bound PoC — a node without a PoC is a legitimate path-internal hop,
// not a lookup failure.
func (r *SamplingRepository) PoCByNodeID(ctx context.Context, nodeID int64) (*model.PoC, error) {
	var row models.PoCModel
	err := r.db.NewSelect().Model(&row).Where("node_id = ?", nodeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("poc by node id: %w", err)
	}
	pocs := toPoCs([]models.PoCModel{row})
	return &pocs[0], nil
}

func (r *SamplingRepository) CoverageUniverse(ctx context.Context, scope model.Scope) ([]int64, [][2]int64, error) {
	var pocs []models.PoCModel
	q := r.db.NewSelect().Model(&pocs).
		Join("JOIN tb_equipments AS e ON e.id = p.equipment_id").
		Join("JOIN tb_toolsets AS t ON t.code = e.toolset").
		Where("p.is_active = ?", true).
		Where("e.is_active = ?", true).
		Where("t.is_active = ?", true)
	if scope.Fab != "" {
		q = q.Where("t.fab = ?", scope.Fab)
	}
	if scope.Phase != "" {
		q = q.Where("t.phase = ?", scope.Phase)
	}
	if scope.Toolset != "" {
		q = q.Where("t.code = ?", scope.Toolset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("coverage universe pocs: %w", err)
	}

	nodeSet := make(map[int64]struct{}, len(pocs))
	pocIDSet := make(map[int64]struct{}, len(pocs))
	for _, p := range pocs {
		nodeSet[p.NodeID] = struct{}{}
		pocIDSet[p.ID] = struct{}{}
	}
	nodes := make([]int64, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}

	var conns []models.PoCConnectionModel
	if err := r.db.NewSelect().Model(&conns).Where("is_valid = ?", true).Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("coverage universe connections: %w", err)
	}
	var allPoCs []models.PoCModel
	if err := r.db.NewSelect().Model(&allPoCs).Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("load all pocs: %w", err)
	}
	pocNode := make(map[int64]int64, len(allPoCs))
	for _, p := range allPoCs {
		pocNode[p.ID] = p.NodeID
	}

	linkSet := make(map[[2]int64]struct{})
	for _, c := range conns {
		if _, ok := pocIDSet[c.FromPoCID]; !ok {
			continue
		}
		if _, ok := pocIDSet[c.ToPoCID]; !ok {
			continue
		}
		a, b := pocNode[c.FromPoCID], pocNode[c.ToPoCID]
		if a == 0 || b == 0 || a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		linkSet[[2]int64{a, b}] = struct{}{}
	}
	links := make([][2]int64, 0, len(linkSet))
	for l := range linkSet {
		links = append(links, l)
	}
	return nodes, links, nil
}
