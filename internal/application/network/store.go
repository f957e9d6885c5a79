// Package network implements the Network Store (spec §4.A): it loads the
// node/link universe and exposes a read-only adjacency view filtered by
// scope. The adjacency shape mirrors the teacher's internal/engine.Graph
// (out-map keyed by node, edges carrying just enough to reconstruct a
// path) generalized from a workflow DAG to a weighted, optionally
// bidirected physical network.
package network

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

// ErrNotLoaded is returned by any query made before Load succeeds.
var ErrNotLoaded = errors.New("network store: not loaded")

// ErrUnknownStart is returned when Load's start node isn't in the backing
// store.
var ErrUnknownStart = errors.New("network store: unknown start node")

// Filters are the path filters of spec §4.A: utility_no/toolset_id require
// exact match when > 0, eq_poc_no is a case-insensitive substring match
// when non-empty.
type Filters struct {
	UtilityNo int
	ToolsetID int64
	EqPocNo   string
}

// Store loads the full node/link graph once and answers adjacency and
// traversability queries against it. It is read-only after Load and may be
// shared across tasks that hold a reference (spec §5 "Shared resource
// policy"); it is never mutated mid-run.
type Store struct {
	repo repository.NetworkRepository

	nodes       map[int64]model.Node
	links       map[int64]model.Link
	adjacency   map[int64][]model.Edge
	traversable map[int64]struct{}
	startNodeID int64
	loaded      bool
}

func New(repo repository.NetworkRepository) *Store {
	return &Store{repo: repo}
}

// Load loads all nodes/links and computes the traversable set for the
// given start node and filters, per spec §4.A. The start node is always
// added to the traversable set regardless of filters. This is the form
// used by the operator-triggered, single-start downstream operations
// (FindShortest/FindAll).
func (s *Store) Load(ctx context.Context, startNodeID int64, f Filters) error {
	nodeMap, linkMap, adjacency, err := s.loadGraph(ctx)
	if err != nil {
		return err
	}
	if _, ok := nodeMap[startNodeID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStart, startNodeID)
	}

	traversable := computeTraversable(nodeMap, f, startNodeID, true)

	s.nodes = nodeMap
	s.links = linkMap
	s.adjacency = adjacency
	s.traversable = traversable
	s.startNodeID = startNodeID
	s.loaded = true
	return nil
}

// LoadScope loads all nodes/links and computes the traversable set from
// filters alone, with no node forced in regardless of scope. This is the
// form the orchestrator uses for its main sampling loop, where "start"
// varies on every draw rather than being fixed for the whole load.
func (s *Store) LoadScope(ctx context.Context, f Filters) error {
	nodeMap, linkMap, adjacency, err := s.loadGraph(ctx)
	if err != nil {
		return err
	}

	traversable := computeTraversable(nodeMap, f, 0, false)

	s.nodes = nodeMap
	s.links = linkMap
	s.adjacency = adjacency
	s.traversable = traversable
	s.startNodeID = 0
	s.loaded = true
	return nil
}

func (s *Store) loadGraph(ctx context.Context) (map[int64]model.Node, map[int64]model.Link, map[int64][]model.Edge, error) {
	nodes, err := s.repo.LoadAllNodes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load nodes: %w", err)
	}
	nodeMap := make(map[int64]model.Node, len(nodes))
	for _, n := range nodes {
		nodeMap[n.NodeID] = n
	}

	nodeIDSet := make(map[int64]struct{}, len(nodeMap))
	for id := range nodeMap {
		nodeIDSet[id] = struct{}{}
	}
	links, err := s.repo.LoadLinks(ctx, nodeIDSet)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load links: %w", err)
	}

	linkMap := make(map[int64]model.Link, len(links))
	adjacency := make(map[int64][]model.Edge)
	for _, l := range links {
		linkMap[l.LinkID] = l
		cost := l.NormalizedCost()
		adjacency[l.StartNodeID] = append(adjacency[l.StartNodeID], model.Edge{
			LinkID: l.LinkID, From: l.StartNodeID, To: l.EndNodeID, Cost: cost,
			Reverse: false, StartNodeID: l.StartNodeID, EndNodeID: l.EndNodeID,
		})
		if l.IsBidirected {
			adjacency[l.EndNodeID] = append(adjacency[l.EndNodeID], model.Edge{
				LinkID: l.LinkID, From: l.EndNodeID, To: l.StartNodeID, Cost: cost,
				Reverse: true, StartNodeID: l.StartNodeID, EndNodeID: l.EndNodeID,
			})
		}
	}
	return nodeMap, linkMap, adjacency, nil
}

func computeTraversable(nodeMap map[int64]model.Node, f Filters, forcedNodeID int64, force bool) map[int64]struct{} {
	traversable := make(map[int64]struct{})
	if force {
		traversable[forcedNodeID] = struct{}{}
	}
	eqPocNo := strings.ToLower(strings.TrimSpace(f.EqPocNo))
	for id, n := range nodeMap {
		if force && id == forcedNodeID {
			continue
		}
		if f.UtilityNo > 0 && n.UtilityNo != f.UtilityNo {
			continue
		}
		if f.ToolsetID > 0 && n.ToolsetID != f.ToolsetID {
			continue
		}
		if eqPocNo != "" && !strings.Contains(strings.ToLower(n.EqPocNo), eqPocNo) {
			continue
		}
		traversable[id] = struct{}{}
	}
	return traversable
}

// NeighborsOf returns every forward edge out of n, or nil if n has none.
func (s *Store) NeighborsOf(n int64) ([]model.Edge, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.adjacency[n], nil
}

// IsTraversable reports whether n is in the scope-filtered traversable set.
func (s *Store) IsTraversable(n int64) (bool, error) {
	if !s.loaded {
		return false, ErrNotLoaded
	}
	_, ok := s.traversable[n]
	return ok, nil
}

// NodeInfo returns the full attribute tuple for a node.
func (s *Store) NodeInfo(n int64) (model.Node, bool, error) {
	if !s.loaded {
		return model.Node{}, false, ErrNotLoaded
	}
	node, ok := s.nodes[n]
	return node, ok, nil
}

// LinkInfo returns the stored link row for a link id.
func (s *Store) LinkInfo(linkID int64) (model.Link, bool, error) {
	if !s.loaded {
		return model.Link{}, false, ErrNotLoaded
	}
	l, ok := s.links[linkID]
	return l, ok, nil
}

// StartNodeID returns the node Load was called with.
func (s *Store) StartNodeID() (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return s.startNodeID, nil
}

// Loaded reports whether Load has succeeded.
func (s *Store) Loaded() bool { return s.loaded }

// NodeCount/LinkCount report the full (unfiltered) graph size.
func (s *Store) NodeCount() int { return len(s.nodes) }
func (s *Store) LinkCount() int { return len(s.links) }

// ParseTargetDataCodes parses a comma-separated ASCII integer list. Empty
// or the literal "0" means "no targets"; non-integer tokens are silently
// dropped, per spec §9 Open Questions ("preserve this lenient behavior").
func ParseTargetDataCodes(raw string) map[model.DataCode]struct{} {
	out := make(map[model.DataCode]struct{})
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return out
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		out[model.DataCode(n)] = struct{}{}
	}
	return out
}
