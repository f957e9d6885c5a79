package orchestrator

import "time"

// RunConfig is the external interface contract (spec §6 "CLI surface,
// informational"): the core receives this value and never parses argv
// itself.
type RunConfig struct {
	Approach       string // "RANDOM" | "SCENARIO"
	Method         string
	Fab            string
	Phase          string
	Model          string
	Toolset        string
	CoverageTarget float64
	UtilityNo      int
	EqPocNo        string

	ScenarioCode string
	ScenarioFile string

	Unattended bool
	Verbose    bool

	MaxAttempts     int
	Timeout         time.Duration
	DFSPathCeiling  int
	BFSMaxDepth     int
	TargetDataCodes string
}

// ExecutionMode renders the unattended/verbose flags into the single
// string tb_runs.execution_mode carries.
func (c RunConfig) ExecutionMode() string {
	switch {
	case c.Unattended && c.Verbose:
		return "unattended_verbose"
	case c.Unattended:
		return "unattended"
	case c.Verbose:
		return "verbose"
	default:
		return "interactive"
	}
}
