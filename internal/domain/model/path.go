package model

// EndpointKind classifies why a path-finder terminated a path at a node,
// per §4.B "Endpoint classification".
type EndpointKind string

const (
	EndpointLeaf     EndpointKind = "LEAF"
	EndpointTarget   EndpointKind = "TARGET"
	EndpointBoundary EndpointKind = "BOUNDARY"
)

// NodeFlag is the path-local role a node plays in a discovered path, per
// §4.B "Path node flags".
type NodeFlag string

const (
	FlagStart       NodeFlag = "S"
	FlagLeaf        NodeFlag = "L"
	FlagEndpoint    NodeFlag = "E"
	FlagBoundary    NodeFlag = "F"
	FlagConvergence NodeFlag = "C"
	FlagIntermediate NodeFlag = "I"
)

// PathLink is one hop of a discovered path, numbered 1..k in traversal
// order. StartNodeID/EndNodeID always mirror the underlying Link's stored
// orientation; Reverse records whether the hop traversed it backwards.
type PathLink struct {
	Seq         int
	LinkID      int64
	StartNodeID int64
	EndNodeID   int64
	Cost        float64
	Reverse     bool
}

// Algorithm tags the algorithm used to discover a path, persisted in
// nw_paths.algorithm for later replay.
type Algorithm string

const (
	AlgorithmDijkstraDownstream Algorithm = "DIJKSTRA_DOWNSTREAM"
	AlgorithmDFSDownstream      Algorithm = "DFS_DOWNSTREAM"
)

// PathResult is one path produced by the Path Finder, before persistence.
type PathResult struct {
	Algorithm   Algorithm
	StartNodeID int64
	EndNodeID   int64
	EndpointKind EndpointKind
	TotalCost   float64
	Nodes       []int64
	Links       []PathLink
}

// NodeFlags assigns the path-local flags for every node across a batch of
// paths found from the same start, per §4.B. It must be called with all
// paths produced by a single downstream operation so "convergence" (a node
// appearing in more than one path's node set) can be detected.
func NodeFlags(start int64, paths []PathResult) map[int64]map[int]NodeFlag {
	occurrences := make(map[int64]int)
	for _, p := range paths {
		seen := make(map[int64]bool)
		for _, n := range p.Nodes {
			if !seen[n] {
				seen[n] = true
				occurrences[n]++
			}
		}
	}

	out := make(map[int64]map[int]NodeFlag, len(paths))
	for pi, p := range paths {
		flags := make(map[int]NodeFlag, len(p.Nodes))
		for idx, n := range p.Nodes {
			switch {
			case n == start:
				flags[idx] = FlagStart
			case idx == len(p.Nodes)-1:
				switch p.EndpointKind {
				case EndpointLeaf:
					flags[idx] = FlagLeaf
				case EndpointBoundary:
					flags[idx] = FlagBoundary
				default:
					flags[idx] = FlagEndpoint
				}
			case occurrences[n] > 1:
				flags[idx] = FlagConvergence
			default:
				flags[idx] = FlagIntermediate
			}
		}
		out[int64(pi)] = flags
	}
	return out
}

// PathDefinition is the canonical, deduplicated representation of a
// discovered path.
type PathDefinition struct {
	ID              int64
	PathHash        string
	SourceType      string
	Scope           string
	NodeCount       int
	LinkCount       int
	TotalLengthMM   float64
	Coverage        float64
	Nodes           []int64
	Links           []PathLink
	DataCodesScope  []int64
	UtilitiesScope  []int
	ReferencesScope []string
}

// AttemptPath is one sampler draw, from pick to (optional) test.
type AttemptPath struct {
	ID               int64
	RunID            string
	PathDefinitionID *int64
	StartNodeID      int64
	EndNodeID        int64
	Cost             *float64
	PickedAt         int64 // unix nanos; set by the PathRepository on InsertAttemptPick
	TestedAt         *int64
	Notes            string
}
