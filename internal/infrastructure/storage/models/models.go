// Package models holds the bun.BaseModel-tagged row types mapped onto the
// schema of spec.md §6 "Backing store schema". Field tags follow the
// teacher's convention in go/internal/infrastructure/storage/models.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NodeModel maps nw_nodes.
type NodeModel struct {
	bun.BaseModel `bun:"table:nw_nodes,alias:n"`

	NodeID     int64  `bun:"node_id,pk"`
	DataCode   int    `bun:"data_code,notnull,default:0"`
	UtilityNo  int    `bun:"utility_no,notnull,default:0"`
	ToolsetID  int64  `bun:"toolset_id,notnull,default:0"`
	EqPocNo    string `bun:"eq_poc_no,default:''"`
	NetObjType int    `bun:"net_obj_type,notnull,default:0"`
}

// LinkModel maps nw_links.
type LinkModel struct {
	bun.BaseModel `bun:"table:nw_links,alias:l"`

	ID           int64   `bun:"id,pk,autoincrement"`
	GUID         string  `bun:"guid"`
	StartNodeID  int64   `bun:"start_node_id,notnull"`
	EndNodeID    int64   `bun:"end_node_id,notnull"`
	IsBidirected bool    `bun:"is_bidirected,notnull,default:false"`
	Cost         float64 `bun:"cost,notnull,default:1.0"`
	NetObjType   int     `bun:"net_obj_type,notnull,default:101"`
}

// ToolsetModel maps tb_toolsets.
type ToolsetModel struct {
	bun.BaseModel `bun:"table:tb_toolsets,alias:t"`

	Code     string `bun:"code,pk"`
	Fab      string `bun:"fab,notnull"`
	Phase    string `bun:"phase,notnull"`
	ModelNo  string `bun:"model_no"`
	PhaseNo  int    `bun:"phase_no"`
	IsActive bool   `bun:"is_active,notnull,default:true"`
}

// EquipmentModel maps tb_equipments.
type EquipmentModel struct {
	bun.BaseModel `bun:"table:tb_equipments,alias:e"`

	ID         int64  `bun:"id,pk,autoincrement"`
	ToolsetID  string `bun:"toolset,notnull"`
	GUID       string `bun:"guid,unique"`
	NodeID     int64  `bun:"node_id,notnull"`
	DataCode   int    `bun:"data_code,notnull,default:0"`
	CategoryNo int    `bun:"category_no"`
	Kind       string `bun:"kind"`
	IsActive   bool   `bun:"is_active,notnull,default:true"`
}

// PoCModel maps tb_equipment_pocs.
type PoCModel struct {
	bun.BaseModel `bun:"table:tb_equipment_pocs,alias:p"`

	ID          int64  `bun:"id,pk,autoincrement"`
	EquipmentID int64  `bun:"equipment_id,notnull"`
	NodeID      int64  `bun:"node_id,unique,notnull"`
	Code        string `bun:"code,notnull"`
	UtilityNo   int    `bun:"utility_no"`
	Reference   string `bun:"reference"`
	Flow        string `bun:"flow"`
	Markers     string `bun:"markers"`
	IsUsed      bool   `bun:"is_used,notnull,default:false"`
	IsLoopback  bool   `bun:"is_loopback,notnull,default:false"`
	IsActive    bool   `bun:"is_active,notnull,default:true"`
}

// PoCConnectionModel maps tb_equipment_poc_connections.
type PoCConnectionModel struct {
	bun.BaseModel `bun:"table:tb_equipment_poc_connections,alias:pc"`

	FromPoCID int64 `bun:"from_poc_id,notnull"`
	ToPoCID   int64 `bun:"to_poc_id,notnull"`
	IsValid   bool  `bun:"is_valid,notnull,default:true"`
}

// RunModel maps tb_runs.
type RunModel struct {
	bun.BaseModel `bun:"table:tb_runs,alias:r"`

	ID             string     `bun:"id,pk"`
	Approach       string     `bun:"approach,notnull"`
	Method         string     `bun:"method"`
	CoverageTarget float64    `bun:"coverage_target,notnull"`
	Fab            string     `bun:"fab"`
	Toolset        string     `bun:"toolset"`
	PhaseNo        string     `bun:"phase_no"`
	ModelNo        string     `bun:"model_no"`
	Status         string     `bun:"status,notnull"`
	Tag            string     `bun:"tag"`
	StartedAt      time.Time  `bun:"started_at,notnull,default:current_timestamp"`
	EndedAt        *time.Time `bun:"ended_at"`
	TotalCoverage  float64    `bun:"total_coverage"`
	TotalNodes     int        `bun:"total_nodes"`
	TotalLinks     int        `bun:"total_links"`
	ExecutionMode  string     `bun:"execution_mode"`
}

// PathDefinitionModel maps tb_path_definitions.
type PathDefinitionModel struct {
	bun.BaseModel `bun:"table:tb_path_definitions,alias:pd"`

	ID              int64   `bun:"id,pk,autoincrement"`
	PathHash        string  `bun:"path_hash,unique,notnull"`
	SourceType      string  `bun:"source_type,notnull"`
	Scope           string  `bun:"scope"`
	NodeCount       int     `bun:"node_count,notnull"`
	LinkCount       int     `bun:"link_count,notnull"`
	TotalLengthMM   float64 `bun:"total_length_mm"`
	Coverage        float64 `bun:"coverage"`
	PathContext     []byte  `bun:"path_context,type:jsonb"`
	DataCodesScope  []byte  `bun:"data_codes_scope,type:jsonb"`
	UtilitiesScope  []byte  `bun:"utilities_scope,type:jsonb"`
	ReferencesScope []byte  `bun:"references_scope,type:jsonb"`
}

// AttemptPathModel maps tb_attempt_paths.
type AttemptPathModel struct {
	bun.BaseModel `bun:"table:tb_attempt_paths,alias:ap"`

	ID               int64   `bun:"id,pk,autoincrement"`
	RunID            string  `bun:"run_id,notnull"`
	PathDefinitionID *int64  `bun:"path_definition_id"`
	StartNodeID      int64   `bun:"start_node_id,notnull"`
	EndNodeID        int64   `bun:"end_node_id,notnull"`
	Cost             *float64 `bun:"cost"`
	PickedAt         time.Time `bun:"picked_at,notnull,default:current_timestamp"`
	TestedAt         *time.Time `bun:"tested_at"`
	Notes            string  `bun:"notes"`
}

// ValidationErrorModel maps tb_validation_errors.
type ValidationErrorModel struct {
	bun.BaseModel `bun:"table:tb_validation_errors,alias:ve"`

	ID               int64  `bun:"id,pk,autoincrement"`
	RunID            string `bun:"run_id,notnull"`
	PathDefinitionID *int64 `bun:"path_definition_id"`
	Severity         string `bun:"severity,notnull"`
	ErrorScope       string `bun:"error_scope,notnull"`
	ErrorType        string `bun:"error_type,notnull"`
	ObjectType       string `bun:"object_type"`
	ObjectID         int64  `bun:"object_id"`
	ObjectGUID       string `bun:"object_guid"`
	ErrorMessage     string `bun:"error_message"`
	ErrorData        []byte `bun:"error_data,type:jsonb"`
	ObjectUtilityNo  *int   `bun:"object_utility_no"`
	ObjectFlow       *string `bun:"object_flow"`
	ObjectIsLoopback *bool  `bun:"object_is_loopback"`
}

// ReviewFlagModel maps tb_review_flags.
type ReviewFlagModel struct {
	bun.BaseModel `bun:"table:tb_review_flags,alias:rf"`

	ID         int64     `bun:"id,pk,autoincrement"`
	RunID      string    `bun:"run_id,notnull"`
	FlagType   string    `bun:"flag_type,notnull"`
	Severity   string    `bun:"severity,notnull"`
	Status     string    `bun:"status,notnull"`
	Reason     string    `bun:"reason"`
	ObjectType string    `bun:"object_type"`
	ObjectID   int64     `bun:"object_id"`
	ObjectGUID string    `bun:"object_guid"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	Notes      string    `bun:"notes"`
}

// PathTagModel maps tb_path_tags.
type PathTagModel struct {
	bun.BaseModel `bun:"table:tb_path_tags,alias:pt"`

	ID               int64   `bun:"id,pk,autoincrement"`
	PathDefinitionID int64   `bun:"path_definition_id,notnull"`
	Outcome          string  `bun:"outcome,notnull"`
	Confidence       float64 `bun:"confidence,notnull,default:1.0"`
	Source           string  `bun:"source,notnull,default:'SYSTEM'"`
}

// RunSummaryModel maps tb_run_summaries.
type RunSummaryModel struct {
	bun.BaseModel `bun:"table:tb_run_summaries,alias:rs"`

	RunID                string  `bun:"run_id,pk"`
	TotalAttempts        int     `bun:"total_attempts"`
	TotalPathsFound      int     `bun:"total_paths_found"`
	UniquePaths          int     `bun:"unique_paths"`
	TotalErrors          int     `bun:"total_errors"`
	TotalReviews         int     `bun:"total_reviews"`
	TargetCoverage       float64 `bun:"target_coverage"`
	AchievedCoverage     float64 `bun:"achieved_coverage"`
	CoverageEfficiency   float64 `bun:"coverage_efficiency"`
	SuccessRate          float64 `bun:"success_rate"`
	CompletionStatus     string  `bun:"completion_status"`
	ExecutionTimeSeconds float64 `bun:"execution_time_seconds"`
}
