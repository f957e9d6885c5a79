package pathfinder

import (
	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
)

// classify implements spec §4.B "Endpoint classification" for node u,
// given the start node, the ignored node, and the parsed target data
// codes. It returns ok=false when u is not an endpoint.
func classify(store *network.Store, u, start, ignore int64, targets map[model.DataCode]struct{}) (kind model.EndpointKind, ok bool, err error) {
	if u == start || u == ignore {
		return "", false, nil
	}

	allNeighbors, err := store.NeighborsOf(u)
	if err != nil {
		return "", false, err
	}

	if len(allNeighbors) == 0 {
		return model.EndpointLeaf, true, nil
	}

	if len(targets) > 0 {
		node, found, err := store.NodeInfo(u)
		if err != nil {
			return "", false, err
		}
		if found {
			if _, isTarget := targets[node.DataCode]; isTarget {
				return model.EndpointTarget, true, nil
			}
		}
	}

	hasTraversableNeighbor := false
	for _, e := range allNeighbors {
		if e.To == ignore {
			continue
		}
		traversable, err := store.IsTraversable(e.To)
		if err != nil {
			return "", false, err
		}
		if traversable {
			hasTraversableNeighbor = true
			break
		}
	}
	if !hasTraversableNeighbor {
		return model.EndpointBoundary, true, nil
	}

	return "", false, nil
}

// traversableNeighbors returns the forward edges from u that are not the
// ignored node, not already visited, and land in the traversable set.
func traversableNeighbors(store *network.Store, u, ignore int64, visited map[int64]bool) ([]model.Edge, error) {
	all, err := store.NeighborsOf(u)
	if err != nil {
		return nil, err
	}
	out := make([]model.Edge, 0, len(all))
	for _, e := range all {
		if e.To == ignore {
			continue
		}
		if visited != nil && visited[e.To] {
			continue
		}
		traversable, err := store.IsTraversable(e.To)
		if err != nil {
			return nil, err
		}
		if traversable {
			out = append(out, e)
		}
	}
	return out, nil
}
