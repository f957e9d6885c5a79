package pathfinder

import (
	"container/heap"

	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// item is one entry of the Dijkstra priority queue.
type item struct {
	dist float64
	node int64
}

type priorityQueue []item

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(item)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	x := old[n-1]
	*pq = old[:n-1]
	return x
}

// predecessor records how a node was reached during Dijkstra expansion.
type predecessor struct {
	node    int64
	linkID  int64
	cost    float64
	reverse bool
}

// FindShortest runs Dijkstra from startNode and returns one PathResult per
// reachable endpoint, per spec §4.B steps 1-4.
func (f *Finder) FindShortest(startNode, ignoreNode int64, targetDataCodes string) ([]model.PathResult, error) {
	if !f.store.Loaded() {
		return nil, network.ErrNotLoaded
	}
	targets := network.ParseTargetDataCodes(targetDataCodes)

	dist := map[int64]float64{startNode: 0}
	prev := map[int64]predecessor{}
	visited := map[int64]bool{}

	pq := &priorityQueue{{dist: 0, node: startNode}}
	heap.Init(pq)

	type endpointHit struct {
		node int64
		kind model.EndpointKind
	}
	var endpoints []endpointHit

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		u := cur.node
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == ignoreNode {
			continue
		}
		if u != startNode {
			kind, ok, err := classify(f.store, u, startNode, ignoreNode, targets)
			if err != nil {
				return nil, err
			}
			if ok {
				endpoints = append(endpoints, endpointHit{node: u, kind: kind})
			}
		}

		neighbors, err := f.store.NeighborsOf(u)
		if err != nil {
			return nil, err
		}
		for _, e := range neighbors {
			if e.To == ignoreNode || visited[e.To] {
				continue
			}
			traversable, err := f.store.IsTraversable(e.To)
			if err != nil {
				return nil, err
			}
			if !traversable {
				continue
			}
			nd := dist[u] + e.Cost
			if existing, ok := dist[e.To]; !ok || nd < existing {
				dist[e.To] = nd
				prev[e.To] = predecessor{node: u, linkID: e.LinkID, cost: e.Cost, reverse: e.Reverse}
				heap.Push(pq, item{dist: nd, node: e.To})
			}
		}
	}

	results := make([]model.PathResult, 0, len(endpoints))
	for _, ep := range endpoints {
		nodes, links, err := reconstructPath(f.store, startNode, ep.node, prev)
		if err != nil {
			return nil, err
		}
		results = append(results, model.PathResult{
			Algorithm: model.AlgorithmDijkstraDownstream, StartNodeID: startNode, EndNodeID: ep.node,
			EndpointKind: ep.kind, TotalCost: dist[ep.node], Nodes: nodes, Links: links,
		})
	}
	return results, nil
}

// reconstructPath walks prev backwards from end to start, reverses, and
// numbers the links 1..k. It never swaps a link's stored endpoints -
// PathLink.StartNodeID/EndNodeID always mirror the underlying Link, with
// Reverse recording traversal direction.
func reconstructPath(store *network.Store, start, end int64, prev map[int64]predecessor) ([]int64, []model.PathLink, error) {
	var revNodes []int64
	var revLinks []model.PathLink
	cur := end
	for cur != start {
		revNodes = append(revNodes, cur)
		p, ok := prev[cur]
		if !ok {
			break
		}
		link, found, err := store.LinkInfo(p.linkID)
		if err != nil {
			return nil, nil, err
		}
		startNodeID, endNodeID := p.node, cur
		if found {
			startNodeID, endNodeID = link.StartNodeID, link.EndNodeID
		}
		revLinks = append(revLinks, model.PathLink{
			LinkID: p.linkID, StartNodeID: startNodeID, EndNodeID: endNodeID, Cost: p.cost, Reverse: p.reverse,
		})
		cur = p.node
	}
	revNodes = append(revNodes, start)

	nodes := make([]int64, len(revNodes))
	for i, n := range revNodes {
		nodes[len(revNodes)-1-i] = n
	}
	links := make([]model.PathLink, len(revLinks))
	for i, l := range revLinks {
		l.Seq = i + 1
		links[len(revLinks)-1-i] = l
	}
	// fix sequence numbers after reversal
	for i := range links {
		links[i].Seq = i + 1
	}
	return nodes, links, nil
}

// FindShortestBetween runs Dijkstra from start with early termination the
// moment end is popped off the heap, per spec §4.B
// "Shortest-path-between-two-nodes".
func (f *Finder) FindShortestBetween(start, end, ignore int64) (*model.PathResult, error) {
	if !f.store.Loaded() {
		return nil, network.ErrNotLoaded
	}

	dist := map[int64]float64{start: 0}
	prev := map[int64]predecessor{}
	visited := map[int64]bool{}
	pq := &priorityQueue{{dist: 0, node: start}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		u := cur.node
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == end {
			nodes, links, err := reconstructPath(f.store, start, end, prev)
			if err != nil {
				return nil, err
			}
			return &model.PathResult{
				Algorithm: model.AlgorithmDijkstraDownstream, StartNodeID: start, EndNodeID: end,
				TotalCost: dist[end], Nodes: nodes, Links: links,
			}, nil
		}
		if u == ignore {
			continue
		}

		neighbors, err := f.store.NeighborsOf(u)
		if err != nil {
			return nil, err
		}
		for _, e := range neighbors {
			if e.To == ignore || visited[e.To] {
				continue
			}
			traversable, err := f.store.IsTraversable(e.To)
			if err != nil {
				return nil, err
			}
			if !traversable && e.To != end {
				continue
			}
			nd := dist[u] + e.Cost
			if existing, ok := dist[e.To]; !ok || nd < existing {
				dist[e.To] = nd
				prev[e.To] = predecessor{node: u, linkID: e.LinkID, cost: e.Cost, reverse: e.Reverse}
				heap.Push(pq, item{dist: nd, node: e.To})
			}
		}
	}
	return nil, nil
}
