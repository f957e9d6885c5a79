package repository

import (
	"context"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// PathRepository is the persistence contract of spec §4.C.
type PathRepository interface {
	// FindByHash looks up an existing PathDefinition by its stable hash.
	FindByHash(ctx context.Context, hash string) (*model.PathDefinition, error)

	// InsertDefinition persists a new PathDefinition, returning its
	// assigned ID.
	InsertDefinition(ctx context.Context, def *model.PathDefinition) (int64, error)

	// InsertAttemptPick records a sampler draw with no path yet attached.
	InsertAttemptPick(ctx context.Context, runID string, fromNodeID, toNodeID int64) (int64, error)

	// LatestOpenAttempt returns the most recent AttemptPath for runID that
	// has no PathDefinitionID yet.
	LatestOpenAttempt(ctx context.Context, runID string) (*model.AttemptPath, error)

	// AttachDefinitionToAttempt links attemptID to pathDefinitionID, sets
	// cost and tested_at.
	AttachDefinitionToAttempt(ctx context.Context, attemptID, pathDefinitionID int64, cost float64) error

	// AttemptsForRun returns every AttemptPath recorded for a run.
	AttemptsForRun(ctx context.Context, runID string) ([]model.AttemptPath, error)

	// DefinitionByID fetches one PathDefinition by its surrogate key.
	DefinitionByID(ctx context.Context, id int64) (*model.PathDefinition, error)

	// WritePathTag persists the Validator's outcome tag for a
	// PathDefinition (tb_path_tags).
	WritePathTag(ctx context.Context, pathDefinitionID int64, outcome model.PathTagOutcome, confidence float64, source string) error
}

// RunRepository persists Run and RunSummary rows.
type RunRepository interface {
	InsertRun(ctx context.Context, run *model.Run) error
	UpdateRun(ctx context.Context, run *model.Run) error
	InsertSummary(ctx context.Context, summary *model.RunSummary) error
}

// ValidationRepository persists ValidationError and ReviewFlag rows.
type ValidationRepository interface {
	InsertValidationError(ctx context.Context, e *model.ValidationError) error
	InsertReviewFlag(ctx context.Context, f *model.ReviewFlag) error
}
