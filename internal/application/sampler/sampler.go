// Package sampler implements the Bias-Mitigated Random Sampler (spec §4.E):
// a five-step hierarchical draw (fab -> toolset -> two equipments -> one PoC
// each -> dedup) with inverse-frequency weighting and per-toolset
// dry-draw/livelock handling. The per-scope fab/toolset caches use
// puzpuzpuz/xsync's lock-free MapOf, promoted here from an indirect
// teacher dependency (pulled in transitively via bun/otel) to a direct one.
package sampler

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

// Config mirrors config.SamplingConfig without importing internal/config,
// keeping this package dependency-light for tests.
type Config struct {
	BiasMitigation     bool
	MaxPoCRetries      int
	MaxToolsetDryDraws int
}

// Pair is one successful draw: a PoC on each of two distinct equipments in
// the same toolset.
type Pair struct {
	From model.PoC
	To   model.PoC
}

// Sampler owns one run's sampling state: usage counters for bias
// mitigation, the seen-pairs set, and per-toolset dry-draw counts. It is
// owned exclusively by one orchestrator loop (spec §5) and is not safe to
// share across runs.
type Sampler struct {
	repo   repository.SamplingRepository
	rng    *rand.Rand
	cfg    Config
	scope  model.Scope

	fabCache     *xsync.MapOf[string, []string]
	toolsetCache *xsync.MapOf[string, []model.Toolset]

	usage       map[string]int // generic usage counter keyed by "fab:x" / "toolset:x" / "equip:x" / "poc:x"
	seenPairs   map[[2]int64]struct{}
	dryDraws    map[string]int // toolset code -> consecutive dry draws
	failedSet   map[string]struct{}
	allToolsets []model.Toolset
	exhausted   bool
}

// New builds a Sampler seeded deterministically from runID, per spec §9
// "Global RNG state... Thread an injected RNG... seed it from run_id when
// determinism is required."
func New(repo repository.SamplingRepository, scope model.Scope, cfg Config, runID string) *Sampler {
	return &Sampler{
		repo:         repo,
		rng:          rand.New(rand.NewSource(seedFromRunID(runID))),
		cfg:          cfg,
		scope:        scope,
		fabCache:     xsync.NewMapOf[string, []string](),
		toolsetCache: xsync.NewMapOf[string, []model.Toolset](),
		usage:        make(map[string]int),
		seenPairs:    make(map[[2]int64]struct{}),
		dryDraws:     make(map[string]int),
		failedSet:    make(map[string]struct{}),
	}
}

func seedFromRunID(runID string) int64 {
	basis := uint64(14695981039346656037) // FNV offset basis, truncated to fit int64 math below
	h := int64(basis)
	for _, c := range runID {
		h ^= int64(c)
		h *= 1099511628211
	}
	if h < 0 {
		h = -h
	}
	if h == 0 {
		h = 1
	}
	return h
}

// Draw runs the five-step hierarchical draw and returns a Pair, or nil if
// no candidate could be produced this call (spec §9: "replace [exceptions]
// with an explicit optional return so the orchestrator branches without
// unwinding").
func (s *Sampler) Draw(ctx context.Context) (*Pair, error) {
	fab, err := s.pickFab(ctx)
	if err != nil {
		return nil, err
	}
	if fab == "" {
		return nil, nil
	}

	toolset, err := s.pickToolset(ctx, fab)
	if err != nil {
		return nil, err
	}
	if toolset == nil {
		return nil, nil
	}

	equipA, equipB, err := s.pickTwoEquipments(ctx, toolset.Code)
	if err != nil {
		return nil, err
	}
	if equipA == nil || equipB == nil {
		s.recordDryDraw(toolset.Code)
		return nil, nil
	}

	for attempt := 0; attempt <= s.maxPoCRetries(); attempt++ {
		pocA, err := s.pickPoC(ctx, equipA.ID)
		if err != nil {
			return nil, err
		}
		pocB, err := s.pickPoC(ctx, equipB.ID)
		if err != nil {
			return nil, err
		}
		if pocA == nil || pocB == nil {
			s.recordDryDraw(toolset.Code)
			return nil, nil
		}

		key := unorderedPair(pocA.NodeID, pocB.NodeID)
		if _, seen := s.seenPairs[key]; seen {
			continue // retry step 4 with the same equipments
		}
		s.seenPairs[key] = struct{}{}
		s.bump(fmt.Sprintf("fab:%s", fab))
		s.bump(fmt.Sprintf("toolset:%s", toolset.Code))
		s.bump("equip:" + equipmentKey(*equipA))
		s.bump("equip:" + equipmentKey(*equipB))
		s.bump("poc:" + pocKey(*pocA))
		s.bump("poc:" + pocKey(*pocB))
		delete(s.dryDraws, toolset.Code)
		return &Pair{From: *pocA, To: *pocB}, nil
	}

	s.recordDryDraw(toolset.Code)
	return nil, nil
}

func (s *Sampler) maxPoCRetries() int {
	if s.cfg.MaxPoCRetries <= 0 {
		return 3
	}
	return s.cfg.MaxPoCRetries
}

func (s *Sampler) maxToolsetDryDraws() int {
	if s.cfg.MaxToolsetDryDraws <= 0 {
		return 10
	}
	return s.cfg.MaxToolsetDryDraws
}

// recordDryDraw increments a toolset's consecutive-dry-draw count and, past
// the configured threshold, moves it into the failed set. When >= 80% of
// all known toolsets are failed, sampling has reached livelock (spec §4.E
// step 2 / §7 DrawExhausted) and Exhausted starts reporting true - there is
// no candidate pool left to reset into, so the orchestrator is expected to
// stop calling Draw and exit the run instead.
func (s *Sampler) recordDryDraw(toolsetCode string) {
	s.dryDraws[toolsetCode]++
	if s.dryDraws[toolsetCode] > s.maxToolsetDryDraws() {
		s.failedSet[toolsetCode] = struct{}{}
	}
	if len(s.allToolsets) > 0 && float64(len(s.failedSet))/float64(len(s.allToolsets)) >= 0.8 {
		s.exhausted = true
	}
}

// Exhausted reports DrawExhausted (spec §7): all known toolsets are
// currently in the failed set and no further candidate pair can be drawn.
func (s *Sampler) Exhausted() bool { return s.exhausted }

func (s *Sampler) bump(key string) { s.usage[key]++ }

func unorderedPair(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// weightedPick draws one index from candidates using inverse-frequency
// weighting when bias mitigation is on, or uniformly otherwise. usageKeyFn
// maps a candidate index to the usage-counter key.
func (s *Sampler) weightedPick(n int, usageKeyFn func(i int) string) int {
	if n == 0 {
		return -1
	}
	if !s.cfg.BiasMitigation {
		return s.rng.Intn(n)
	}

	weights := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		w := 1.0 / float64(1+s.usage[usageKeyFn(i)])
		weights[i] = w
		total += w
	}
	r := s.rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return n - 1
}
