// Package orchestrator implements the Orchestrator (spec §4.G): the run
// lifecycle control loop that drives Sampler -> Path Finder -> Path
// Repository -> Coverage Tracker in a tight loop, then the Validator over
// every unique path the run touched.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/jfrisancho/fabnet-coverage/internal/application/coverage"
	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/application/pathfinder"
	"github.com/jfrisancho/fabnet-coverage/internal/application/pathhash"
	"github.com/jfrisancho/fabnet-coverage/internal/application/sampler"
	"github.com/jfrisancho/fabnet-coverage/internal/application/validator"
	domainerrors "github.com/jfrisancho/fabnet-coverage/internal/domain/errors"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

var tracer = otel.Tracer("github.com/jfrisancho/fabnet-coverage/orchestrator")

// Orchestrator owns one run's collaborators. A new Orchestrator (or at
// least a new call to ExecuteRun building fresh collaborators) is required
// per run; nothing here is shared across concurrent runs (spec §5).
type Orchestrator struct {
	networkRepo    repository.NetworkRepository
	samplingRepo   repository.SamplingRepository
	pathRepo       repository.PathRepository
	runRepo        repository.RunRepository
	validationRepo repository.ValidationRepository
	compat         *validator.CompatibilityTable
}

func New(
	networkRepo repository.NetworkRepository, samplingRepo repository.SamplingRepository,
	pathRepo repository.PathRepository, runRepo repository.RunRepository,
	validationRepo repository.ValidationRepository, compat *validator.CompatibilityTable,
) *Orchestrator {
	return &Orchestrator{
		networkRepo: networkRepo, samplingRepo: samplingRepo, pathRepo: pathRepo,
		runRepo: runRepo, validationRepo: validationRepo, compat: compat,
	}
}

// ExecuteRun drives one complete run per spec §4.G steps 1-8.
func (o *Orchestrator) ExecuteRun(ctx context.Context, cfg RunConfig) (*model.RunSummary, error) {
	ctx, span := tracer.Start(ctx, "ExecuteRun")
	defer span.End()

	runID := uuid.NewString()
	startedAt := time.Now()
	run := &model.Run{
		ID: runID, Approach: model.Approach(cfg.Approach), Method: cfg.Method,
		Fab: cfg.Fab, Phase: cfg.Phase, Model: cfg.Model, Toolset: cfg.Toolset,
		CoverageTarget: cfg.CoverageTarget, Tag: BuildTag(cfg, startedAt),
		Status: model.RunStatusRunning, StartedAt: startedAt, ExecutionMode: cfg.ExecutionMode(),
	}
	if err := o.runRepo.InsertRun(ctx, run); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	logger := log.With().Str("run_id", runID).Str("fab", cfg.Fab).Str("toolset", cfg.Toolset).Logger()
	logger.Info().Msg("run started")

	scope := model.Scope{
		Fab: cfg.Fab, Phase: cfg.Phase, Model: cfg.Model, Toolset: cfg.Toolset,
		UtilityNo: cfg.UtilityNo, EqPocNo: cfg.EqPocNo, CoverageTarget: cfg.CoverageTarget,
	}

	store := network.New(o.networkRepo)
	if err := store.LoadScope(ctx, network.Filters{UtilityNo: cfg.UtilityNo, ToolsetID: 0, EqPocNo: cfg.EqPocNo}); err != nil {
		run.Status = model.RunStatusFailed
		o.finishRun(ctx, run, startedAt)
		return nil, fmt.Errorf("load network store: %w", err)
	}
	finder := pathfinder.New(store)

	if cfg.Toolset != "" {
		seed := model.Toolset{Code: cfg.Toolset, Fab: cfg.Fab, Phase: cfg.Phase, ModelNo: cfg.Model}
		strategyResult, err := sampler.ApplyIntelligentCoverageStrategy(ctx, o.samplingRepo, scope, seed)
		if err == nil {
			run.Strategy = strategyResult.Strategy
			scope.CoverageTarget = strategyResult.AppliedTarget
			scope.ExpandedToolsets = strategyResult.ExpandedToolsets
			logger.Info().Str("strategy", string(strategyResult.Strategy)).Float64("applied_target", strategyResult.AppliedTarget).Msg("intelligent coverage strategy applied")
		}
	} else {
		run.Strategy = model.StrategyStandard
	}

	tracker, err := coverage.Initialize(ctx, o.samplingRepo, scope)
	if err != nil {
		run.Status = model.RunStatusFailed
		o.finishRun(ctx, run, startedAt)
		return nil, fmt.Errorf("initialize coverage: %w", err)
	}
	run.TotalNodes = tracker.TotalNodes()
	run.TotalLinks = tracker.TotalLinks()

	// EmptyScope (spec §7): zero in-scope nodes and links under the given
	// filters. Record FAILED and return immediately rather than entering a
	// main loop that can never draw or cover anything.
	if run.TotalNodes == 0 && run.TotalLinks == 0 {
		run.Status = model.RunStatusFailed
		o.finishRun(ctx, run, startedAt)
		summary := &model.RunSummary{
			RunID: runID, TargetCoverage: scope.CoverageTarget,
			CompletionStatus: model.CompletionFailed, ExecutionTimeSeconds: time.Since(startedAt).Seconds(),
		}
		_ = o.runRepo.InsertSummary(ctx, summary)
		logger.Warn().Msg("empty scope: zero in-scope nodes and links under filters")
		return summary, domainerrors.NewRunError(runID, 0, "init", "empty scope: zero in-scope nodes under filters", domainerrors.ErrNoCandidates)
	}

	s := sampler.New(o.samplingRepo, scope, sampler.Config{
		BiasMitigation: true, MaxPoCRetries: 3, MaxToolsetDryDraws: 10,
	}, runID)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10000
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	totalAttempts, totalPathsFound, totalReviews := 0, 0, 0
	uniquePaths := 0
	completion := model.CompletionPartial

	for totalAttempts < maxAttempts && time.Since(startedAt) < timeout {
		if err := ctx.Err(); err != nil {
			run.Status = model.RunStatusFailed
			break
		}

		pair, err := s.Draw(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("sampler draw failed")
			continue
		}
		if pair == nil {
			if tracker.Fraction() >= scope.CoverageTarget {
				completion = model.CompletionCompleted
				break
			}
			// DrawExhausted (spec §7): the sampler can no longer produce a
			// new pair because all known toolsets are in its failed set.
			// Exit now instead of busy-spinning until the wall-clock
			// timeout with totalAttempts never advancing.
			if s.Exhausted() {
				completion = model.CompletionPartial
				logger.Warn().Err(domainerrors.ErrLivelock).Msg("sampler exhausted: all toolsets in failed set")
				break
			}
			continue
		}
		totalAttempts++

		attemptID, err := o.pathRepo.InsertAttemptPick(ctx, runID, pair.From.NodeID, pair.To.NodeID)
		if err != nil {
			return nil, domainerrors.NewRunError(runID, totalAttempts, "persist", "insert attempt pick failed", err)
		}

		result, err := finder.FindShortestBetween(pair.From.NodeID, pair.To.NodeID, 0)
		if err != nil {
			logger.Warn().Err(err).Msg("path finder failed")
			continue
		}

		if result != nil {
			totalPathsFound++
			def := o.buildPathDefinition(ctx, store, result, string(run.Approach), scope.Toolset)
			pid, err := o.storePath(ctx, attemptID, def, result.TotalCost)
			if err != nil {
				return nil, domainerrors.NewRunError(runID, totalAttempts, "persist", "store path failed", err)
			}
			def.ID = pid
			isNew, frac := tracker.Update(def.PathHash, def.Nodes)
			if isNew {
				uniquePaths++
			}
			run.TotalCoverage = frac
		} else if pair.From.IsUsed && pair.To.IsUsed && pair.From.UtilityNo == pair.To.UtilityNo {
			flag := &model.ReviewFlag{
				RunID: runID, FlagType: "CONNECTIVITY_ISSUE", Severity: model.SeverityMedium,
				Status: model.FlagStatusOpen, Reason: "two used PoCs of the same utility have no discoverable path",
				ObjectType: "poc", ObjectID: pair.From.ID, CreatedAt: time.Now(),
			}
			if err := o.validationRepo.InsertReviewFlag(ctx, flag); err == nil {
				totalReviews++
			}
		}

		if tracker.Fraction() >= scope.CoverageTarget {
			completion = model.CompletionCompleted
			break
		}
	}

	if run.Status != model.RunStatusFailed {
		run.Status = model.RunStatusDone
	}
	run.TotalCoverage = tracker.Fraction()
	o.finishRun(ctx, run, startedAt)

	totalErrors := 0
	if run.Status != model.RunStatusFailed {
		v := validator.New(o.samplingRepo, o.validationRepo, o.pathRepo, o.compat)
		attempts, err := o.pathRepo.AttemptsForRun(ctx, runID)
		if err == nil {
			seen := make(map[int64]struct{})
			for _, a := range attempts {
				if a.PathDefinitionID == nil {
					continue
				}
				if _, ok := seen[*a.PathDefinitionID]; ok {
					continue
				}
				seen[*a.PathDefinitionID] = struct{}{}
				def, err := o.pathRepo.DefinitionByID(ctx, *a.PathDefinitionID)
				if err != nil || def == nil {
					continue
				}
				res, err := v.Validate(ctx, runID, def, a.StartNodeID, a.EndNodeID)
				if err == nil {
					totalErrors += len(res.Errors)
				}
			}
		}
	}

	execTime := time.Since(startedAt).Seconds()
	successRate := 0.0
	if totalAttempts > 0 {
		successRate = float64(totalPathsFound) / float64(totalAttempts)
	}
	efficiency := 0.0
	if scope.CoverageTarget > 0 {
		efficiency = run.TotalCoverage / scope.CoverageTarget
	}
	if run.Status == model.RunStatusFailed {
		completion = model.CompletionFailed
	}

	summary := &model.RunSummary{
		RunID: runID, TotalAttempts: totalAttempts, TotalPathsFound: totalPathsFound,
		UniquePaths: uniquePaths, TotalErrors: totalErrors, TotalReviews: totalReviews,
		TargetCoverage: scope.CoverageTarget, AchievedCoverage: run.TotalCoverage,
		CoverageEfficiency: efficiency, SuccessRate: successRate,
		CompletionStatus: completion, ExecutionTimeSeconds: execTime,
	}
	if err := o.runRepo.InsertSummary(ctx, summary); err != nil {
		return summary, fmt.Errorf("insert run summary: %w", err)
	}
	logger.Info().Str("completion_status", string(completion)).Float64("achieved_coverage", run.TotalCoverage).Msg("run finished")
	return summary, nil
}

// RunToCompletion is a synchronous run-to-completion convenience wrapper
// over ExecuteRun, mirroring the teacher corpus's usage_example.py: callers
// that don't need to drive the loop themselves (cmd/fabnet-run) just call
// this and get the final summary.
func (o *Orchestrator) RunToCompletion(ctx context.Context, cfg RunConfig) (*model.RunSummary, error) {
	return o.ExecuteRun(ctx, cfg)
}

func (o *Orchestrator) finishRun(ctx context.Context, run *model.Run, startedAt time.Time) {
	ended := time.Now()
	run.EndedAt = &ended
	_ = o.runRepo.UpdateRun(ctx, run)
}

// storePath implements the Path Repository's StorePath contract (spec
// §4.C): hash, dedup by hash, insert-or-reuse, attach to the open attempt.
func (o *Orchestrator) storePath(ctx context.Context, attemptID int64, def *model.PathDefinition, cost float64) (int64, error) {
	existing, err := o.pathRepo.FindByHash(ctx, def.PathHash)
	if err != nil {
		return 0, err
	}

	var pid int64
	if existing != nil {
		pid = existing.ID
	} else {
		pid, err = o.pathRepo.InsertDefinition(ctx, def)
		if err != nil {
			return 0, err
		}
	}

	if err := o.pathRepo.AttachDefinitionToAttempt(ctx, attemptID, pid, cost); err != nil {
		return 0, err
	}
	return pid, nil
}

// buildPathDefinition assembles the canonical path row, including the
// aggregated scope tags (utilities, data-codes, references traversed) the
// schema carries per spec §4.C "aggregated scope tags" - gathered from each
// traversed node's network attributes and, where bound, its PoC.
func (o *Orchestrator) buildPathDefinition(ctx context.Context, store *network.Store, result *model.PathResult, sourceType, scopeTag string) *model.PathDefinition {
	hash := pathhash.Compute(result.Nodes, linkIDs(result.Links), sourceType, scopeTag)

	utilSeen := make(map[int]struct{})
	dataCodeSeen := make(map[int64]struct{})
	refSeen := make(map[string]struct{})
	var utilities []int
	var dataCodes []int64
	var references []string

	for _, n := range result.Nodes {
		if node, ok, err := store.NodeInfo(n); err == nil && ok {
			if node.UtilityNo != 0 {
				if _, seen := utilSeen[node.UtilityNo]; !seen {
					utilSeen[node.UtilityNo] = struct{}{}
					utilities = append(utilities, node.UtilityNo)
				}
			}
			if node.DataCode != 0 {
				dc := int64(node.DataCode)
				if _, seen := dataCodeSeen[dc]; !seen {
					dataCodeSeen[dc] = struct{}{}
					dataCodes = append(dataCodes, dc)
				}
			}
		}
		if poc, err := o.samplingRepo.PoCByNodeID(ctx, n); err == nil && poc != nil && poc.Reference != "" {
			if _, seen := refSeen[poc.Reference]; !seen {
				refSeen[poc.Reference] = struct{}{}
				references = append(references, poc.Reference)
			}
		}
	}

	return &model.PathDefinition{
		PathHash: hash, SourceType: sourceType, Scope: scopeTag,
		NodeCount: len(result.Nodes), LinkCount: len(result.Links),
		// total_length_mm is an acknowledged placeholder in the source
		// (len(nodes) * 1000.0); treated as derived, not authoritative,
		// per spec §9.
		TotalLengthMM: float64(len(result.Nodes)) * 1000.0,
		Nodes:         result.Nodes, Links: result.Links,
		DataCodesScope: dataCodes, UtilitiesScope: utilities, ReferencesScope: references,
	}
}

func linkIDs(links []model.PathLink) []int64 {
	out := make([]int64, len(links))
	for i, l := range links {
		out[i] = l.LinkID
	}
	return out
}
