package sampler

import (
	"context"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

// criticalToolsetEquipmentThreshold is the heuristic cutoff for a "critical"
// toolset, per spec §4.E ("heuristic: >100 equipments").
const criticalToolsetEquipmentThreshold = 100

// StrategyResult is the outcome of ApplyIntelligentCoverageStrategy,
// recorded on the run for reporting (spec §4.E "records the original
// target, the applied strategy, and any expanded toolset list").
type StrategyResult struct {
	Strategy         model.CoverageStrategy
	OriginalTarget   float64
	AppliedTarget    float64
	ExpandedToolsets []string
}

// ApplyIntelligentCoverageStrategy compares the scope's potential coverage
// against the requested target and adapts it per spec §4.E, before the
// sampling loop begins.
func ApplyIntelligentCoverageStrategy(
	ctx context.Context, repo repository.SamplingRepository, scope model.Scope, seed model.Toolset,
) (StrategyResult, error) {
	result := StrategyResult{OriginalTarget: scope.CoverageTarget, AppliedTarget: scope.CoverageTarget}

	potential, err := scopePotential(ctx, repo, scope)
	if err != nil {
		return result, err
	}

	if potential >= scope.CoverageTarget {
		result.Strategy = model.StrategyStandard
		return result, nil
	}

	equipCount := len(mustEquipment(ctx, repo, seed.Code))
	if equipCount > criticalToolsetEquipmentThreshold {
		result.Strategy = model.StrategyIntensive
		result.AppliedTarget = minFloat(scope.CoverageTarget, potential*0.8)
		return result, nil
	}

	related, err := repo.RelatedToolsets(ctx, seed)
	if err != nil {
		return result, err
	}
	if len(related) > 0 {
		expanded, summed, ok := expandUntilTarget(ctx, repo, related, potential, scope.CoverageTarget)
		if ok {
			result.Strategy = model.StrategyGrouped
			result.AppliedTarget = scope.CoverageTarget
			result.ExpandedToolsets = expanded
			_ = summed
			return result, nil
		}
	}

	result.Strategy = model.StrategyAdaptive
	result.AppliedTarget = potential * 0.9
	return result, nil
}

func scopePotential(ctx context.Context, repo repository.SamplingRepository, scope model.Scope) (float64, error) {
	total, err := repo.TotalPoCCount(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	scopeCount, err := repo.PoCCountInToolset(ctx, scope.Toolset)
	if err != nil {
		return 0, err
	}
	return float64(scopeCount) / float64(total), nil
}

func mustEquipment(ctx context.Context, repo repository.SamplingRepository, toolsetCode string) []model.Equipment {
	equips, err := repo.EquipmentInToolset(ctx, toolsetCode)
	if err != nil {
		return nil
	}
	return equips
}

// expandUntilTarget adds related toolsets, smallest expansion first is not
// required by spec (only that the summed potential reaches target), so
// toolsets are added in the order the repository returned them.
func expandUntilTarget(
	ctx context.Context, repo repository.SamplingRepository, related []model.Toolset, base, target float64,
) ([]string, float64, bool) {
	summed := base
	var expanded []string
	total, err := repo.TotalPoCCount(ctx)
	if err != nil || total == 0 {
		return nil, summed, false
	}
	for _, t := range related {
		if summed >= target {
			break
		}
		count, err := repo.PoCCountInToolset(ctx, t.Code)
		if err != nil {
			continue
		}
		summed += float64(count) / float64(total)
		expanded = append(expanded, t.Code)
	}
	return expanded, summed, summed >= target
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
