// Package memstore is an in-memory fake of the domain/repository
// interfaces, used by component tests in place of a real Postgres
// instance. It follows the teacher's convention of small, package-local
// fakes (see testutil/) rather than a generic mocking framework.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// Store is a single in-memory universe of nodes, links, toolsets,
// equipment, PoCs and connections, plus the run-scoped records the
// orchestrator produces.
type Store struct {
	mu sync.Mutex

	Nodes       map[int64]model.Node
	Links       map[int64]model.Link
	Toolsets    map[string]model.Toolset
	Equipments  map[int64]model.Equipment
	PoCs        map[int64]model.PoC
	PoCByNode   map[int64]int64 // node_id -> poc_id
	Connections map[[2]int64]bool

	Runs            map[string]*model.Run
	Definitions     []*model.PathDefinition
	definitionByHash map[string]int64
	Attempts        []*model.AttemptPath
	ValidationErrs  []*model.ValidationError
	ReviewFlags     []*model.ReviewFlag
	Summaries       map[string]*model.RunSummary
	PathTags        map[int64]model.PathTagOutcome

	nextID int64
}

func New() *Store {
	return &Store{
		Nodes: make(map[int64]model.Node), Links: make(map[int64]model.Link),
		Toolsets: make(map[string]model.Toolset), Equipments: make(map[int64]model.Equipment),
		PoCs: make(map[int64]model.PoC), PoCByNode: make(map[int64]int64),
		Connections: make(map[[2]int64]bool), Runs: make(map[string]*model.Run),
		definitionByHash: make(map[string]int64), Summaries: make(map[string]*model.RunSummary),
		PathTags: make(map[int64]model.PathTagOutcome),
	}
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

// --- seeding helpers -------------------------------------------------

func (s *Store) AddNode(n model.Node) { s.Nodes[n.NodeID] = n }
func (s *Store) AddLink(l model.Link) { s.Links[l.LinkID] = l }
func (s *Store) AddToolset(t model.Toolset) { s.Toolsets[t.Code] = t }
func (s *Store) AddEquipment(e model.Equipment) { s.Equipments[e.ID] = e }
func (s *Store) AddPoC(p model.PoC) {
	s.PoCs[p.ID] = p
	s.PoCByNode[p.NodeID] = p.ID
}
func (s *Store) Connect(fromPoCID, toPoCID int64) {
	fromNode := s.PoCs[fromPoCID].NodeID
	toNode := s.PoCs[toPoCID].NodeID
	s.Connections[[2]int64{fromNode, toNode}] = true
}

// --- repository.NetworkRepository ------------------------------------

func (s *Store) LoadAllNodes(ctx context.Context) ([]model.Node, error) {
	out := make([]model.Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

func (s *Store) LoadLinks(ctx context.Context, nodeIDs map[int64]struct{}) ([]model.Link, error) {
	out := make([]model.Link, 0, len(s.Links))
	for _, l := range s.Links {
		if _, ok := nodeIDs[l.StartNodeID]; !ok {
			continue
		}
		if _, ok := nodeIDs[l.EndNodeID]; !ok {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out, nil
}

// --- repository.SamplingRepository ------------------------------------

func (s *Store) DistinctFabs(ctx context.Context, scope model.Scope) ([]string, error) {
	seen := make(map[string]bool)
	for _, t := range s.Toolsets {
		if !t.IsActive {
			continue
		}
		if scope.Phase != "" && t.Phase != scope.Phase {
			continue
		}
		if scope.Model != "" && t.ModelNo != scope.Model {
			continue
		}
		seen[t.Fab] = true
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) ToolsetsInFab(ctx context.Context, fab string, scope model.Scope) ([]model.Toolset, error) {
	var out []model.Toolset
	for _, t := range s.Toolsets {
		if t.Fab != fab || !t.IsActive {
			continue
		}
		if scope.Phase != "" && t.Phase != scope.Phase {
			continue
		}
		if scope.Model != "" && t.ModelNo != scope.Model {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) RelatedToolsets(ctx context.Context, seed model.Toolset) ([]model.Toolset, error) {
	var out []model.Toolset
	for _, t := range s.Toolsets {
		if t.Code == seed.Code || !t.IsActive {
			continue
		}
		if t.Fab == seed.Fab && t.Phase == seed.Phase && t.ModelNo == seed.ModelNo {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) EquipmentInToolset(ctx context.Context, toolsetCode string) ([]model.Equipment, error) {
	var out []model.Equipment
	for _, e := range s.Equipments {
		if e.ToolsetID == toolsetCode && e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ActivePoCsForEquipment(ctx context.Context, equipmentID int64) ([]model.PoC, error) {
	var out []model.PoC
	for _, p := range s.PoCs {
		if p.EquipmentID == equipmentID && p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) PoCCountInToolset(ctx context.Context, toolsetCode string) (int, error) {
	n := 0
	for _, p := range s.PoCs {
		if !p.IsActive {
			continue
		}
		eq, ok := s.Equipments[p.EquipmentID]
		if !ok || eq.ToolsetID != toolsetCode {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) TotalPoCCount(ctx context.Context) (int, error) {
	n := 0
	for _, p := range s.PoCs {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) ValidConnections(ctx context.Context, nodePairs [][2]int64) (map[[2]int64]bool, error) {
	out := make(map[[2]int64]bool, len(nodePairs))
	for _, p := range nodePairs {
		out[p] = s.Connections[p] || s.Connections[[2]int64{p[1], p[0]}]
	}
	return out, nil
}

func (s *Store) PoCByNodeID(ctx context.Context, nodeID int64) (*model.PoC, error) {
	id, ok := s.PoCByNode[nodeID]
	if !ok {
		return nil, nil
	}
	p := s.PoCs[id]
	return &p, nil
}

func (s *Store) CoverageUniverse(ctx context.Context, scope model.Scope) ([]int64, [][2]int64, error) {
	nodeSet := make(map[int64]struct{})
	pocIDs := make(map[int64]struct{})
	for _, p := range s.PoCs {
		if !p.IsActive {
			continue
		}
		eq, ok := s.Equipments[p.EquipmentID]
		if !ok || !eq.IsActive {
			continue
		}
		t, ok := s.Toolsets[eq.ToolsetID]
		if !ok || !t.IsActive {
			continue
		}
		if scope.Fab != "" && t.Fab != scope.Fab {
			continue
		}
		if scope.Phase != "" && t.Phase != scope.Phase {
			continue
		}
		if scope.Toolset != "" && t.Code != scope.Toolset {
			continue
		}
		nodeSet[p.NodeID] = struct{}{}
		pocIDs[p.ID] = struct{}{}
	}
	nodes := make([]int64, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	linkSet := make(map[[2]int64]struct{})
	for pair := range s.Connections {
		fromID, okFrom := s.PoCByNode[pair[0]]
		toID, okTo := s.PoCByNode[pair[1]]
		if !okFrom || !okTo {
			continue
		}
		if _, ok := pocIDs[fromID]; !ok {
			continue
		}
		if _, ok := pocIDs[toID]; !ok {
			continue
		}
		a, b := pair[0], pair[1]
		if a > b {
			a, b = b, a
		}
		linkSet[[2]int64{a, b}] = struct{}{}
	}
	links := make([][2]int64, 0, len(linkSet))
	for l := range linkSet {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i][0] != links[j][0] {
			return links[i][0] < links[j][0]
		}
		return links[i][1] < links[j][1]
	})
	return nodes, links, nil
}

// --- repository.PathRepository -----------------------------------------

func (s *Store) FindByHash(ctx context.Context, hash string) (*model.PathDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.definitionByHash[hash]
	if !ok {
		return nil, nil
	}
	for _, d := range s.Definitions {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertDefinition(ctx context.Context, def *model.PathDefinition) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def.ID = s.newID()
	cp := *def
	s.Definitions = append(s.Definitions, &cp)
	s.definitionByHash[def.PathHash] = def.ID
	return def.ID, nil
}

func (s *Store) InsertAttemptPick(ctx context.Context, runID string, fromNodeID, toNodeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.AttemptPath{ID: s.newID(), RunID: runID, StartNodeID: fromNodeID, EndNodeID: toNodeID, PickedAt: time.Now().UnixNano()}
	s.Attempts = append(s.Attempts, a)
	return a.ID, nil
}

func (s *Store) LatestOpenAttempt(ctx context.Context, runID string) (*model.AttemptPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Attempts) - 1; i >= 0; i-- {
		a := s.Attempts[i]
		if a.RunID == runID && a.PathDefinitionID == nil {
			return a, nil
		}
	}
	return nil, nil
}

func (s *Store) AttachDefinitionToAttempt(ctx context.Context, attemptID, pathDefinitionID int64, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Attempts {
		if a.ID == attemptID {
			pid := pathDefinitionID
			a.PathDefinitionID = &pid
			c := cost
			a.Cost = &c
			now := time.Now().UnixNano()
			a.TestedAt = &now
			return nil
		}
	}
	return fmt.Errorf("attempt %d not found", attemptID)
}

func (s *Store) AttemptsForRun(ctx context.Context, runID string) ([]model.AttemptPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AttemptPath
	for _, a := range s.Attempts {
		if a.RunID == runID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) DefinitionByID(ctx context.Context, id int64) (*model.PathDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Definitions {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("definition %d not found", id)
}

func (s *Store) WritePathTag(ctx context.Context, pathDefinitionID int64, outcome model.PathTagOutcome, confidence float64, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PathTags[pathDefinitionID] = outcome
	return nil
}

// --- repository.RunRepository / ValidationRepository --------------------

func (s *Store) InsertRun(ctx context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.Runs[run.ID] = &cp
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.Runs[run.ID] = &cp
	return nil
}

func (s *Store) InsertSummary(ctx context.Context, summary *model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *summary
	s.Summaries[summary.RunID] = &cp
	return nil
}

func (s *Store) InsertValidationError(ctx context.Context, e *model.ValidationError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.newID()
	s.ValidationErrs = append(s.ValidationErrs, e)
	return nil
}

func (s *Store) InsertReviewFlag(ctx context.Context, f *model.ReviewFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.newID()
	s.ReviewFlags = append(s.ReviewFlags, f)
	return nil
}
