package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/models"
)

// RunRepository is the bun-backed implementation of repository.RunRepository.
type RunRepository struct {
	db bun.IDB
}

func NewRunRepository(db bun.IDB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) InsertRun(ctx context.Context, run *model.Run) error {
	row := &models.RunModel{
		ID: run.ID, Approach: string(run.Approach), Method: run.Method,
		CoverageTarget: run.CoverageTarget, Fab: run.Fab, Toolset: run.Toolset,
		ModelNo: run.Model, Status: string(run.Status), Tag: run.Tag,
		StartedAt: run.StartedAt, ExecutionMode: run.ExecutionMode,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) UpdateRun(ctx context.Context, run *model.Run) error {
	q := r.db.NewUpdate().Model((*models.RunModel)(nil)).
		Set("status = ?", string(run.Status)).
		Set("total_coverage = ?", run.TotalCoverage).
		Set("total_nodes = ?", run.TotalNodes).
		Set("total_links = ?", run.TotalLinks).
		Where("id = ?", run.ID)
	if run.EndedAt != nil {
		q = q.Set("ended_at = ?", *run.EndedAt)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *RunRepository) InsertSummary(ctx context.Context, summary *model.RunSummary) error {
	row := &models.RunSummaryModel{
		RunID: summary.RunID, TotalAttempts: summary.TotalAttempts, TotalPathsFound: summary.TotalPathsFound,
		UniquePaths: summary.UniquePaths, TotalErrors: summary.TotalErrors, TotalReviews: summary.TotalReviews,
		TargetCoverage: summary.TargetCoverage, AchievedCoverage: summary.AchievedCoverage,
		CoverageEfficiency: summary.CoverageEfficiency, SuccessRate: summary.SuccessRate,
		CompletionStatus: string(summary.CompletionStatus), ExecutionTimeSeconds: summary.ExecutionTimeSeconds,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// ValidationRepository is the bun-backed implementation of
// repository.ValidationRepository.
type ValidationRepository struct {
	db bun.IDB
}

func NewValidationRepository(db bun.IDB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

func (r *ValidationRepository) InsertValidationError(ctx context.Context, e *model.ValidationError) error {
	var flow *string
	if e.ObjectFlow != nil {
		f := string(*e.ObjectFlow)
		flow = &f
	}
	row := &models.ValidationErrorModel{
		RunID: e.RunID, PathDefinitionID: e.PathDefinitionID, Severity: string(e.Severity),
		ErrorScope: string(e.ErrorScope), ErrorType: e.ErrorType, ObjectType: e.ObjectType,
		ObjectID: e.ObjectID, ObjectGUID: e.ObjectGUID, ErrorMessage: e.Message,
		ObjectUtilityNo: e.ObjectUtilityNo, ObjectFlow: flow, ObjectIsLoopback: e.ObjectIsLoopback,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert validation error: %w", err)
	}
	return nil
}

func (r *ValidationRepository) InsertReviewFlag(ctx context.Context, f *model.ReviewFlag) error {
	row := &models.ReviewFlagModel{
		RunID: f.RunID, FlagType: f.FlagType, Severity: string(f.Severity), Status: string(f.Status),
		Reason: f.Reason, ObjectType: f.ObjectType, ObjectID: f.ObjectID, ObjectGUID: f.ObjectGUID,
		CreatedAt: f.CreatedAt, Notes: f.Notes,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert review flag: %w", err)
	}
	return nil
}
