package model

// Flow is the direction a PoC moves material/utility relative to its
// equipment.
type Flow string

const (
	FlowIn  Flow = "IN"
	FlowOut Flow = "OUT"
)

// Toolset is a named group of equipment within one fab/phase.
type Toolset struct {
	Code     string
	Fab      string
	Phase    string
	ModelNo  string
	PhaseNo  int
	IsActive bool
}

// Equipment is a physical machine associated with one logical network node.
type Equipment struct {
	ID         int64
	ToolsetID  string
	GUID       string
	NodeID     int64
	DataCode   DataCode
	CategoryNo int
	Kind       string
	IsActive   bool
}

// PoC (Point of Connection) binds an Equipment to exactly one network node.
type PoC struct {
	ID          int64
	EquipmentID int64
	NodeID      int64
	Code        string
	UtilityNo   int
	Reference   string
	Flow        Flow
	Markers     string
	IsUsed      bool
	IsLoopback  bool
	IsActive    bool
}

// Scope is the derived context for one run.
type Scope struct {
	Fab             string
	Phase           string
	Model           string
	Toolset         string
	UtilityNo       int
	EqPocNo         string
	CoverageTarget  float64
	// ExpandedToolsets carries related toolsets the sampler widened into
	// under the "grouped" intelligent coverage strategy.
	ExpandedToolsets []string
}

// CoverageStrategy is the strategy the sampler applied before the run loop
// started, per §4.E "Intelligent coverage strategy".
type CoverageStrategy string

const (
	StrategyStandard  CoverageStrategy = "standard"
	StrategyIntensive CoverageStrategy = "intensive"
	StrategyGrouped   CoverageStrategy = "grouped"
	StrategyAdaptive  CoverageStrategy = "adaptive"
)
