// Package model holds the domain entities shared by every component of the
// coverage sampler: the physical network graph, the equipment/PoC sampling
// universe, and the run/attempt/validation records a run produces.
package model

// NetObjType tags the kind of network object a Node or Link represents.
type NetObjType int

const (
	NetObjUnknown       NetObjType = 0
	NetObjLink          NetObjType = 101
	NetObjLogicalPoc    NetObjType = 201
	NetObjPocPoc        NetObjType = 202
	NetObjPocDistance   NetObjType = 203
	NetObjPocVirtual    NetObjType = 204
)

// DataCode is an opaque integer class tag on a Node. 15000 conventionally
// denotes "equipment"; the core never interprets the value beyond equality.
type DataCode int

const (
	DataCodeEquipment DataCode = 15000
)

// Node is a vertex of the physical utility network. Nodes are immutable
// within a run.
type Node struct {
	NodeID     int64
	DataCode   DataCode
	UtilityNo  int
	ToolsetID  int64
	EqPocNo    string
	NetObjType NetObjType
}

// Link is an edge of the physical utility network.
type Link struct {
	LinkID        int64
	GUID          string
	StartNodeID   int64
	EndNodeID     int64
	IsBidirected  bool
	Cost          float64
	NetObjType    NetObjType
}

// NormalizedCost returns the link's cost, substituting 1.0 for a stored 0,
// per §3: "cost (non-negative real; 0 is replaced by 1.0)".
func (l Link) NormalizedCost() float64 {
	if l.Cost == 0 {
		return 1.0
	}
	return l.Cost
}

// Edge is a directed, synthetic adjacency entry produced from a Link. A
// bidirected Link contributes two Edges: the stored orientation (Reverse =
// false) and the flipped one (Reverse = true). Edge never swaps the stored
// endpoints on emission — StartNodeID/EndNodeID always mirror the
// underlying Link's stored orientation; To/From below record the direction
// actually traversed.
type Edge struct {
	LinkID      int64
	From        int64
	To          int64
	Cost        float64
	Reverse     bool
	StartNodeID int64
	EndNodeID   int64
}
