// Command fabnet-run drives one coverage sampling run end-to-end: it reads
// flags and environment, wires the Postgres-backed repositories, and hands
// off to the Orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jfrisancho/fabnet-coverage/internal/application/orchestrator"
	"github.com/jfrisancho/fabnet-coverage/internal/application/validator"
	"github.com/jfrisancho/fabnet-coverage/internal/config"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage"
)

func main() {
	var (
		approach    = flag.String("approach", "RANDOM", "RANDOM or SCENARIO")
		method      = flag.String("method", "SIMPLE", "sampling method label recorded on the run")
		fab         = flag.String("fab", "", "fab scope filter")
		phase       = flag.String("phase", "", "phase scope filter")
		model       = flag.String("model", "", "model scope filter")
		toolset     = flag.String("toolset", "", "toolset scope filter, seeds the intelligent coverage strategy")
		target      = flag.Float64("coverage-target", 0, "coverage target in (0,1]; defaults to config value")
		utilityNo   = flag.Int("utility-no", 0, "utility_no scope filter")
		eqPocNo     = flag.String("eq-poc-no", "", "eq_poc_no substring filter")
		scenario    = flag.String("scenario-code", "", "scenario code, required when approach=SCENARIO")
		unattended  = flag.Bool("unattended", true, "run without interactive prompts")
		verbose     = flag.Bool("verbose", false, "verbose logging")
		dataCodes   = flag.String("target-data-codes", "", "comma-separated DataCode list classified as TARGET endpoints")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config: "+err.Error())
		os.Exit(1)
	}
	setupLogging(cfg.Logging.Level, cfg.Logging.Format)

	coverageTarget := *target
	if coverageTarget <= 0 {
		coverageTarget = cfg.Run.DefaultCoverageTarget
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.NewDB(&storage.Config{
		DSN: cfg.Database.DSN, MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns, ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime, Debug: cfg.Database.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer storage.Close(db)

	compat, err := validator.NewCompatibilityTable(cfg.Validation.CompatibilityRules)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile utility compatibility rules")
	}

	orch := orchestrator.New(
		storage.NewNetworkRepository(db),
		storage.NewSamplingRepository(db),
		storage.NewPathRepository(db),
		storage.NewRunRepository(db),
		storage.NewValidationRepository(db),
		compat,
	)

	runCfg := orchestrator.RunConfig{
		Approach: *approach, Method: *method, Fab: *fab, Phase: *phase, Model: *model,
		Toolset: *toolset, CoverageTarget: coverageTarget, UtilityNo: *utilityNo, EqPocNo: *eqPocNo,
		ScenarioCode: *scenario, Unattended: *unattended, Verbose: *verbose,
		MaxAttempts: cfg.Run.MaxAttempts, Timeout: cfg.Run.Timeout,
		DFSPathCeiling: cfg.Run.DFSPathCeiling, BFSMaxDepth: cfg.Run.BFSMaxDepth,
		TargetDataCodes: *dataCodes,
	}
	if runCfg.Approach == "SCENARIO" && runCfg.ScenarioCode == "" {
		log.Fatal().Msg("-scenario-code is required when -approach=SCENARIO")
	}

	summary, err := orch.RunToCompletion(ctx, runCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}

	log.Info().
		Str("completion_status", string(summary.CompletionStatus)).
		Int("total_attempts", summary.TotalAttempts).
		Int("unique_paths", summary.UniquePaths).
		Float64("achieved_coverage", summary.AchievedCoverage).
		Float64("success_rate", summary.SuccessRate).
		Msg("run summary")
}

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
}
