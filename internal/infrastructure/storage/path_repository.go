package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/models"
)

// PathRepository is the bun-backed implementation of
// repository.PathRepository.
type PathRepository struct {
	db bun.IDB
}

func NewPathRepository(db bun.IDB) *PathRepository {
	return &PathRepository{db: db}
}

// pathContext is the JSON-serialized shape stored in
// tb_path_definitions.path_context, per spec §4.C step 3.
type pathContext struct {
	Nodes []int64          `json:"path_sequence"`
	Links []model.PathLink `json:"links"`
}

func (r *PathRepository) FindByHash(ctx context.Context, hash string) (*model.PathDefinition, error) {
	var row models.PathDefinitionModel
	err := r.db.NewSelect().Model(&row).Where("path_hash = ?", hash).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find path by hash: %w", err)
	}
	return toPathDefinition(row)
}

func (r *PathRepository) DefinitionByID(ctx context.Context, id int64) (*model.PathDefinition, error) {
	var row models.PathDefinitionModel
	if err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("definition by id: %w", err)
	}
	return toPathDefinition(row)
}

func toPathDefinition(row models.PathDefinitionModel) (*model.PathDefinition, error) {
	var ctxBody pathContext
	if len(row.PathContext) > 0 {
		if err := json.Unmarshal(row.PathContext, &ctxBody); err != nil {
			return nil, fmt.Errorf("unmarshal path context: %w", err)
		}
	}
	var dataCodes []int64
	var utilities []int
	var refs []string
	_ = json.Unmarshal(row.DataCodesScope, &dataCodes)
	_ = json.Unmarshal(row.UtilitiesScope, &utilities)
	_ = json.Unmarshal(row.ReferencesScope, &refs)

	return &model.PathDefinition{
		ID: row.ID, PathHash: row.PathHash, SourceType: row.SourceType, Scope: row.Scope,
		NodeCount: row.NodeCount, LinkCount: row.LinkCount, TotalLengthMM: row.TotalLengthMM,
		Coverage: row.Coverage, Nodes: ctxBody.Nodes, Links: ctxBody.Links,
		DataCodesScope: dataCodes, UtilitiesScope: utilities, ReferencesScope: refs,
	}, nil
}

func (r *PathRepository) InsertDefinition(ctx context.Context, def *model.PathDefinition) (int64, error) {
	ctxBody, err := json.Marshal(pathContext{Nodes: def.Nodes, Links: def.Links})
	if err != nil {
		return 0, fmt.Errorf("marshal path context: %w", err)
	}
	dataCodes, _ := json.Marshal(def.DataCodesScope)
	utilities, _ := json.Marshal(def.UtilitiesScope)
	refs, _ := json.Marshal(def.ReferencesScope)

	row := &models.PathDefinitionModel{
		PathHash: def.PathHash, SourceType: def.SourceType, Scope: def.Scope,
		NodeCount: def.NodeCount, LinkCount: def.LinkCount, TotalLengthMM: def.TotalLengthMM,
		Coverage: def.Coverage, PathContext: ctxBody,
		DataCodesScope: dataCodes, UtilitiesScope: utilities, ReferencesScope: refs,
	}
	if _, err := r.db.NewInsert().Model(row).Returning("id").Exec(ctx, &row.ID); err != nil {
		return 0, fmt.Errorf("insert path definition: %w", err)
	}
	return row.ID, nil
}

func (r *PathRepository) InsertAttemptPick(ctx context.Context, runID string, fromNodeID, toNodeID int64) (int64, error) {
	row := &models.AttemptPathModel{
		RunID: runID, StartNodeID: fromNodeID, EndNodeID: toNodeID, PickedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().Model(row).Returning("id").Exec(ctx, &row.ID); err != nil {
		return 0, fmt.Errorf("insert attempt pick: %w", err)
	}
	return row.ID, nil
}

func (r *PathRepository) LatestOpenAttempt(ctx context.Context, runID string) (*model.AttemptPath, error) {
	var row models.AttemptPathModel
	err := r.db.NewSelect().Model(&row).
		Where("run_id = ?", runID).
		Where("path_definition_id IS NULL").
		OrderExpr("picked_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest open attempt: %w", err)
	}
	return toAttemptPath(row), nil
}

func toAttemptPath(row models.AttemptPathModel) *model.AttemptPath {
	a := &model.AttemptPath{
		ID: row.ID, RunID: row.RunID, PathDefinitionID: row.PathDefinitionID,
		StartNodeID: row.StartNodeID, EndNodeID: row.EndNodeID, Cost: row.Cost,
		PickedAt: row.PickedAt.UnixNano(), Notes: row.Notes,
	}
	if row.TestedAt != nil {
		n := row.TestedAt.UnixNano()
		a.TestedAt = &n
	}
	return a
}

func (r *PathRepository) AttachDefinitionToAttempt(ctx context.Context, attemptID, pathDefinitionID int64, cost float64) error {
	now := time.Now()
	_, err := r.db.NewUpdate().Model((*models.AttemptPathModel)(nil)).
		Set("path_definition_id = ?", pathDefinitionID).
		Set("cost = ?", cost).
		Set("tested_at = ?", now).
		Where("id = ?", attemptID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("attach definition to attempt: %w", err)
	}
	return nil
}

func (r *PathRepository) AttemptsForRun(ctx context.Context, runID string) ([]model.AttemptPath, error) {
	var rows []models.AttemptPathModel
	if err := r.db.NewSelect().Model(&rows).Where("run_id = ?", runID).OrderExpr("picked_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("attempts for run: %w", err)
	}
	out := make([]model.AttemptPath, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toAttemptPath(row))
	}
	return out, nil
}

func (r *PathRepository) WritePathTag(ctx context.Context, pathDefinitionID int64, outcome model.PathTagOutcome, confidence float64, source string) error {
	row := &models.PathTagModel{PathDefinitionID: pathDefinitionID, Outcome: string(outcome), Confidence: confidence, Source: source}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("write path tag: %w", err)
	}
	return nil
}
