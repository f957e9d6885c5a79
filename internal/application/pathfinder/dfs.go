package pathfinder

import (
	"errors"
	"fmt"

	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// ErrPathCeilingExceeded is returned by FindAll when the number of recorded
// paths would exceed the configured ceiling, per spec §4.B "Implementers
// must guard this operation with a path-count ceiling; it is exponential in
// highly meshed graphs."
var ErrPathCeilingExceeded = errors.New("pathfinder: path-count ceiling exceeded")

// DefaultPathCeiling bounds FindAll when the caller passes ceiling <= 0.
const DefaultPathCeiling = 5000

// dfsFrame is one step of the explicit traversal stack used to reconstruct
// a path from the current recursion depth without re-walking predecessors.
type dfsFrame struct {
	node        int64
	linkID      int64
	cost        float64
	reverse     bool
	startNodeID int64
	endNodeID   int64
}

// FindAll runs exhaustive DFS from startNode and returns every simple path
// to a classified endpoint, per spec §4.B "FindAll". The visited set is
// pushed on recursion and popped on return so the search stays cycle-free;
// DFS records a path the instant a node classifies as an endpoint and, for
// non-LEAF endpoints, keeps recursing past it to find deeper paths too.
func (f *Finder) FindAll(startNode, ignoreNode int64, targetDataCodes string, ceiling int) ([]model.PathResult, error) {
	if !f.store.Loaded() {
		return nil, network.ErrNotLoaded
	}
	if ceiling <= 0 {
		ceiling = DefaultPathCeiling
	}
	targets := network.ParseTargetDataCodes(targetDataCodes)

	var results []model.PathResult
	visited := map[int64]bool{startNode: true}
	stack := []dfsFrame{{node: startNode}}

	var walk func(u int64) error
	walk = func(u int64) error {
		if u != startNode {
			kind, ok, err := classify(f.store, u, startNode, ignoreNode, targets)
			if err != nil {
				return err
			}
			if ok {
				if len(results) >= ceiling {
					return fmt.Errorf("%w: %d", ErrPathCeilingExceeded, ceiling)
				}
				results = append(results, buildDFSPathResult(stack, kind))
				if kind == model.EndpointLeaf {
					return nil
				}
			}
		}

		edges, err := traversableNeighbors(f.store, u, ignoreNode, visited)
		if err != nil {
			return err
		}
		for _, e := range edges {
			visited[e.To] = true
			stack = append(stack, dfsFrame{
				node: e.To, linkID: e.LinkID, cost: e.Cost, reverse: e.Reverse,
				startNodeID: e.StartNodeID, endNodeID: e.EndNodeID,
			})

			if err := walk(e.To); err != nil {
				return err
			}

			stack = stack[:len(stack)-1]
			delete(visited, e.To)
		}
		return nil
	}

	if err := walk(startNode); err != nil {
		return results, err
	}
	return results, nil
}

// buildDFSPathResult materializes a PathResult from the current DFS stack,
// numbering links 1..k in traversal order.
func buildDFSPathResult(stack []dfsFrame, kind model.EndpointKind) model.PathResult {
	nodes := make([]int64, len(stack))
	links := make([]model.PathLink, 0, len(stack)-1)
	var totalCost float64
	for i, fr := range stack {
		nodes[i] = fr.node
		if i == 0 {
			continue
		}
		totalCost += fr.cost
		links = append(links, model.PathLink{
			Seq: i, LinkID: fr.linkID, StartNodeID: fr.startNodeID, EndNodeID: fr.endNodeID,
			Cost: fr.cost, Reverse: fr.reverse,
		})
	}
	return model.PathResult{
		Algorithm: model.AlgorithmDFSDownstream, StartNodeID: nodes[0], EndNodeID: nodes[len(nodes)-1],
		EndpointKind: kind, TotalCost: totalCost, Nodes: nodes, Links: links,
	}
}
