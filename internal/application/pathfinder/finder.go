// Package pathfinder implements the Path Finder (spec §4.B): Dijkstra
// shortest-path-per-endpoint, exhaustive DFS enumeration, and the two
// operator-triggered between-two-nodes queries, all running over a
// pre-loaded network.Store. It mirrors the teacher's internal/engine
// traversal package, generalized from a single-source workflow DAG walk to
// a multi-endpoint physical network walk with three endpoint kinds.
package pathfinder

import (
	"github.com/jfrisancho/fabnet-coverage/internal/application/network"
)

// Finder runs all four path-discovery operations against a single loaded
// network.Store. It holds no state of its own across calls; every method
// is safe to call concurrently once the Store has finished loading.
type Finder struct {
	store *network.Store
}

// New returns a Finder bound to an already-loaded (or about-to-be-loaded)
// Store. Every method returns network.ErrNotLoaded until Store.Load
// succeeds.
func New(store *network.Store) *Finder {
	return &Finder{store: store}
}
