package pathfinder

import (
	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// bfsFrame records how a node was reached during BFS expansion. node is the
// node this frame describes arriving at; from is its predecessor.
type bfsFrame struct {
	node        int64
	from        int64
	linkID      int64
	cost        float64
	reverse     bool
	startNodeID int64
	endNodeID   int64
	depth       int
}

// FindAnyBetween runs BFS from start with a depth cap and returns the first
// path it finds to end, not necessarily the cheapest, per spec §4.B
// "Shortest-path-between-two-nodes". A nil result with nil error means end
// was unreachable within maxDepth.
func (f *Finder) FindAnyBetween(start, end, ignore int64, maxDepth int) (*model.PathResult, error) {
	if !f.store.Loaded() {
		return nil, network.ErrNotLoaded
	}
	if start == end {
		return &model.PathResult{
			Algorithm: model.AlgorithmDFSDownstream, StartNodeID: start, EndNodeID: end,
			Nodes: []int64{start},
		}, nil
	}

	visited := map[int64]bool{start: true}
	prev := map[int64]bfsFrame{}
	queue := []bfsFrame{{node: start, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		edges, err := traversableNeighbors(f.store, cur.node, ignore, nil)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if visited[e.To] {
				continue
			}
			if e.To != end {
				traversable, err := f.store.IsTraversable(e.To)
				if err != nil {
					return nil, err
				}
				if !traversable {
					continue
				}
			}
			visited[e.To] = true
			frame := bfsFrame{
				node: e.To, from: cur.node, linkID: e.LinkID, cost: e.Cost, reverse: e.Reverse,
				startNodeID: e.StartNodeID, endNodeID: e.EndNodeID, depth: cur.depth + 1,
			}
			prev[e.To] = frame

			if e.To == end {
				return buildBFSPathResult(start, end, prev), nil
			}
			queue = append(queue, frame)
		}
	}
	return nil, nil
}

// buildBFSPathResult walks prev backwards from end to start and numbers the
// links in traversal order.
func buildBFSPathResult(start, end int64, prev map[int64]bfsFrame) *model.PathResult {
	var revNodes []int64
	var revLinks []model.PathLink
	var totalCost float64
	cur := end
	for cur != start {
		revNodes = append(revNodes, cur)
		fr, ok := prev[cur]
		if !ok {
			break
		}
		totalCost += fr.cost
		revLinks = append(revLinks, model.PathLink{
			LinkID: fr.linkID, StartNodeID: fr.startNodeID, EndNodeID: fr.endNodeID,
			Cost: fr.cost, Reverse: fr.reverse,
		})
		cur = fr.from
	}
	revNodes = append(revNodes, start)

	nodes := make([]int64, len(revNodes))
	for i, n := range revNodes {
		nodes[len(revNodes)-1-i] = n
	}
	links := make([]model.PathLink, len(revLinks))
	for i, l := range revLinks {
		links[len(revLinks)-1-i] = l
	}
	for i := range links {
		links[i].Seq = i + 1
	}

	return &model.PathResult{
		Algorithm: model.AlgorithmDFSDownstream, StartNodeID: start, EndNodeID: end,
		TotalCost: totalCost, Nodes: nodes, Links: links,
	}
}
