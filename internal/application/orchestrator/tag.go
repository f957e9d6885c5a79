package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// BuildTag renders the deterministic run tag, per spec §6 "Tag generation":
// YYYYMMDD_APPROACH_METHOD_COV(NNP)[_FAB][_PHASE][_TOOLSET] for RANDOM,
// YYYYMMDD_APPROACH_METHOD_SCENARIO for SCENARIO.
func BuildTag(cfg RunConfig, now time.Time) string {
	date := now.Format("20060102")
	if cfg.Approach == "SCENARIO" {
		return fmt.Sprintf("%s_%s_%s_%s", date, cfg.Approach, cfg.Method, cfg.ScenarioCode)
	}

	covNNP := int(cfg.CoverageTarget*100 + 0.5)
	parts := []string{date, cfg.Approach, cfg.Method, fmt.Sprintf("COV%03d", covNNP)}
	if cfg.Fab != "" {
		parts = append(parts, cfg.Fab)
	}
	if cfg.Phase != "" {
		parts = append(parts, cfg.Phase)
	}
	if cfg.Toolset != "" {
		parts = append(parts, cfg.Toolset)
	}
	return strings.Join(parts, "_")
}
