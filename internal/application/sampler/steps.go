package sampler

import (
	"context"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// pickFab is step 1: pick a building from the distinct fabs of active
// toolsets matching scope, cached per scope.
func (s *Sampler) pickFab(ctx context.Context) (string, error) {
	if s.scope.Fab != "" {
		return s.scope.Fab, nil
	}

	cacheKey := s.scope.Phase + "|" + s.scope.Model
	fabs, ok := s.fabCache.Load(cacheKey)
	if !ok {
		var err error
		fabs, err = s.repo.DistinctFabs(ctx, s.scope)
		if err != nil {
			return "", err
		}
		s.fabCache.Store(cacheKey, fabs)
	}
	if len(fabs) == 0 {
		return "", nil
	}
	idx := s.weightedPick(len(fabs), func(i int) string { return "fab:" + fabs[i] })
	if idx < 0 {
		return "", nil
	}
	return fabs[idx], nil
}

// pickToolset is step 2: pick a toolset under fab, excluding toolsets in
// the failed set (spec §4.E step 2).
func (s *Sampler) pickToolset(ctx context.Context, fab string) (*model.Toolset, error) {
	toolsets, ok := s.toolsetCache.Load(fab)
	if !ok {
		var err error
		toolsets, err = s.repo.ToolsetsInFab(ctx, fab, s.scope)
		if err != nil {
			return nil, err
		}
		s.toolsetCache.Store(fab, toolsets)
		if len(s.allToolsets) == 0 {
			s.allToolsets = toolsets
		}
	}

	candidates := make([]model.Toolset, 0, len(toolsets))
	for _, t := range toolsets {
		if _, failed := s.failedSet[t.Code]; failed {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	idx := s.weightedPick(len(candidates), func(i int) string { return "toolset:" + candidates[i].Code })
	if idx < 0 {
		return nil, nil
	}
	picked := candidates[idx]
	return &picked, nil
}

// pickTwoEquipments is step 3: pick two distinct equipments from toolset.
// Fails (returns nils) if the toolset has fewer than two equipments.
func (s *Sampler) pickTwoEquipments(ctx context.Context, toolsetCode string) (*model.Equipment, *model.Equipment, error) {
	equips, err := s.repo.EquipmentInToolset(ctx, toolsetCode)
	if err != nil {
		return nil, nil, err
	}
	if len(equips) < 2 {
		return nil, nil, nil
	}

	i := s.weightedPick(len(equips), func(i int) string {
		return "equip:" + equipmentKey(equips[i])
	})
	if i < 0 {
		return nil, nil, nil
	}
	first := equips[i]

	rest := make([]model.Equipment, 0, len(equips)-1)
	for j, e := range equips {
		if j != i {
			rest = append(rest, e)
		}
	}
	j := s.weightedPick(len(rest), func(k int) string {
		return "equip:" + equipmentKey(rest[k])
	})
	if j < 0 {
		return nil, nil, nil
	}
	second := rest[j]

	return &first, &second, nil
}

func equipmentKey(e model.Equipment) string {
	return e.GUID
}

// pickPoC is step 4: pick one active PoC for equipmentID. Used PoCs are
// drawn with 70% probability over unused ones whenever any used PoC exists
// (spec §4.E step 4), then weighted by inverse-frequency within the chosen
// pool.
func (s *Sampler) pickPoC(ctx context.Context, equipmentID int64) (*model.PoC, error) {
	pocs, err := s.repo.ActivePoCsForEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if len(pocs) == 0 {
		return nil, nil
	}

	var used, unused []model.PoC
	for _, p := range pocs {
		if p.IsUsed {
			used = append(used, p)
		} else {
			unused = append(unused, p)
		}
	}

	pool := pocs
	switch {
	case len(used) > 0 && len(unused) > 0:
		if s.rng.Float64() < 0.7 {
			pool = used
		} else {
			pool = unused
		}
	case len(used) > 0:
		pool = used
	default:
		pool = unused
	}
	if len(pool) == 0 {
		pool = pocs
	}

	idx := s.weightedPick(len(pool), func(i int) string { return "poc:" + pocKey(pool[i]) })
	if idx < 0 {
		return nil, nil
	}
	picked := pool[idx]
	return &picked, nil
}

func pocKey(p model.PoC) string {
	return p.Code
}
