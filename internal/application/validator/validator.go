// Package validator implements the Validator (spec §4.F): five ordered
// checks run against each stored PathDefinition, producing typed
// ValidationErrors and an aggregate OverallStatus, followed by a
// tb_path_tags outcome write.
package validator

import (
	"context"
	"fmt"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/domain/repository"
)

const maxReasonablePathNodes = 100

// Validator runs the ordered check battery against a PathDefinition.
type Validator struct {
	samplingRepo   repository.SamplingRepository
	validationRepo repository.ValidationRepository
	pathRepo       repository.PathRepository
	compat         *CompatibilityTable
}

func New(
	samplingRepo repository.SamplingRepository, validationRepo repository.ValidationRepository,
	pathRepo repository.PathRepository, compat *CompatibilityTable,
) *Validator {
	return &Validator{samplingRepo: samplingRepo, validationRepo: validationRepo, pathRepo: pathRepo, compat: compat}
}

// Result is the outcome of validating one PathDefinition.
type Result struct {
	PathDefinitionID int64
	Status           model.OverallStatus
	Errors           []model.ValidationError
}

// Validate runs all five checks in order against def, writes every produced
// ValidationError, aggregates the OverallStatus, and writes the
// tb_path_tags outcome row.
func (v *Validator) Validate(ctx context.Context, runID string, def *model.PathDefinition, startNodeID, endNodeID int64) (*Result, error) {
	var errs []model.ValidationError

	errs = append(errs, v.checkConnectivity(ctx, def, startNodeID, endNodeID)...)
	utilByNode, err := v.nodeUtilities(ctx, def)
	if err != nil {
		return nil, err
	}
	errs = append(errs, v.checkUtilityConsistency(def, utilByNode)...)

	startPoC, endPoC, err := v.endpointPoCs(ctx, startNodeID, endNodeID)
	if err != nil {
		return nil, err
	}
	errs = append(errs, v.checkPoCProperties(startPoC, endPoC)...)
	errs = append(errs, v.checkPathContinuity(def)...)
	errs = append(errs, v.checkFlowDirection(startPoC, endPoC)...)

	for i := range errs {
		errs[i].RunID = runID
		errs[i].PathDefinitionID = &def.ID
		if err := v.validationRepo.InsertValidationError(ctx, &errs[i]); err != nil {
			return nil, fmt.Errorf("insert validation error: %w", err)
		}
	}

	status := aggregateStatus(errs)
	outcome := outcomeFor(status)
	if err := v.pathRepo.WritePathTag(ctx, def.ID, outcome, 1.0, "SYSTEM"); err != nil {
		return nil, fmt.Errorf("write path tag: %w", err)
	}

	return &Result{PathDefinitionID: def.ID, Status: status, Errors: errs}, nil
}

// checkConnectivity is check 1: node count, endpoint identity, and
// consecutive-pair connectivity resolved in one batched lookup.
func (v *Validator) checkConnectivity(ctx context.Context, def *model.PathDefinition, startNodeID, endNodeID int64) []model.ValidationError {
	var errs []model.ValidationError
	add := func(errType, msg string) {
		errs = append(errs, model.ValidationError{
			Severity: model.SeverityHigh, ErrorScope: model.ScopeConnectivity, ErrorType: errType,
			ObjectType: "path_definition", ObjectID: def.ID, Message: msg,
		})
	}

	if len(def.Nodes) < 2 {
		add("INSUFFICIENT_NODES", "path has fewer than two nodes")
		return errs
	}
	if def.Nodes[0] != startNodeID {
		add("START_MISMATCH", "path's first node does not match the start PoC's node")
	}
	if def.Nodes[len(def.Nodes)-1] != endNodeID {
		add("END_MISMATCH", "path's last node does not match the end PoC's node")
	}

	pairs := make([][2]int64, 0, len(def.Nodes)-1)
	for i := 0; i+1 < len(def.Nodes); i++ {
		pairs = append(pairs, [2]int64{def.Nodes[i], def.Nodes[i+1]})
	}
	if len(pairs) == 0 {
		return errs
	}
	valid, err := v.samplingRepo.ValidConnections(ctx, pairs)
	if err != nil {
		add("CONNECTIVITY_LOOKUP_FAILED", err.Error())
		return errs
	}
	for _, p := range pairs {
		if !valid[p] {
			add("UNKNOWN_CONNECTION", fmt.Sprintf("no valid PoC-to-PoC connection between nodes %d and %d", p[0], p[1]))
		}
	}
	return errs
}

// nodeUtilities looks up utility_no for every node in the path, one
// PoCByNodeID call per node (a node without a bound PoC is simply absent
// from the map).
func (v *Validator) nodeUtilities(ctx context.Context, def *model.PathDefinition) (map[int64]int, error) {
	out := make(map[int64]int, len(def.Nodes))
	for _, n := range def.Nodes {
		poc, err := v.samplingRepo.PoCByNodeID(ctx, n)
		if err != nil {
			return nil, err
		}
		if poc != nil {
			out[n] = poc.UtilityNo
		}
	}
	return out, nil
}

// checkUtilityConsistency is check 2: flag transitions between non-null,
// unequal, incompatible utilities. Start<->end mismatch is a WARNING.
func (v *Validator) checkUtilityConsistency(def *model.PathDefinition, utilByNode map[int64]int) []model.ValidationError {
	var errs []model.ValidationError
	for i := 0; i+1 < len(def.Nodes); i++ {
		from, fromOK := utilByNode[def.Nodes[i]]
		to, toOK := utilByNode[def.Nodes[i+1]]
		if !fromOK || !toOK || from == to {
			continue
		}
		compatible, err := v.compat.Compatible(from, to)
		if err != nil || compatible {
			continue
		}
		errs = append(errs, model.ValidationError{
			Severity: model.SeverityMedium, ErrorScope: model.ScopeUtility, ErrorType: "UTILITY_TRANSITION_INCOMPATIBLE",
			ObjectType: "node", ObjectID: def.Nodes[i],
			Message: fmt.Sprintf("utility transition %d -> %d is not in the compatibility table", from, to),
		})
	}

	if len(def.Nodes) >= 2 {
		startU, startOK := utilByNode[def.Nodes[0]]
		endU, endOK := utilByNode[def.Nodes[len(def.Nodes)-1]]
		if startOK && endOK && startU != endU {
			errs = append(errs, model.ValidationError{
				Severity: model.SeverityWarning, ErrorScope: model.ScopeUtility, ErrorType: "START_END_UTILITY_MISMATCH",
				ObjectType: "path_definition", ObjectID: def.ID,
				Message: fmt.Sprintf("start utility %d differs from end utility %d", startU, endU),
			})
		}
	}
	return errs
}

func (v *Validator) endpointPoCs(ctx context.Context, startNodeID, endNodeID int64) (start, end *model.PoC, err error) {
	start, err = v.samplingRepo.PoCByNodeID(ctx, startNodeID)
	if err != nil {
		return nil, nil, err
	}
	end, err = v.samplingRepo.PoCByNodeID(ctx, endNodeID)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// checkPoCProperties is check 3.
func (v *Validator) checkPoCProperties(start, end *model.PoC) []model.ValidationError {
	var errs []model.ValidationError
	check := func(label string, p *model.PoC) {
		if p == nil {
			errs = append(errs, model.ValidationError{
				Severity: model.SeverityHigh, ErrorScope: model.ScopeQA, ErrorType: "POC_NOT_FOUND",
				ObjectType: "poc", Message: label + " PoC could not be resolved from its node",
			})
			return
		}
		warn := func(errType, msg string) {
			errs = append(errs, model.ValidationError{
				Severity: model.SeverityWarning, ErrorScope: model.ScopeQA, ErrorType: errType,
				ObjectType: "poc", ObjectID: p.ID, ObjectUtilityNo: &p.UtilityNo, Message: label + ": " + msg,
			})
		}
		if p.UtilityNo == 0 {
			warn("MISSING_UTILITY_NO", "utility_no is unset")
		}
		if p.Markers == "" {
			warn("MISSING_MARKERS", "markers is empty")
		}
		if p.Reference == "" {
			warn("MISSING_REFERENCE", "reference is empty")
		}
		if p.Flow == "" {
			warn("MISSING_FLOW", "flow is unset")
		}
		if !p.IsUsed {
			warn("POC_NOT_USED", "is_used is false")
		}
		if p.IsLoopback {
			warn("POC_IS_LOOPBACK", "is_loopback is true")
		}
	}
	check("start", start)
	check("end", end)
	return errs
}

// checkPathContinuity is check 4: consecutive duplicates are MEDIUM;
// overlong paths raise a performance WARNING.
func (v *Validator) checkPathContinuity(def *model.PathDefinition) []model.ValidationError {
	var errs []model.ValidationError
	for i := 0; i+1 < len(def.Nodes); i++ {
		if def.Nodes[i] == def.Nodes[i+1] {
			errs = append(errs, model.ValidationError{
				Severity: model.SeverityMedium, ErrorScope: model.ScopeQA, ErrorType: "CONSECUTIVE_DUPLICATE_NODE",
				ObjectType: "node", ObjectID: def.Nodes[i],
				Message: fmt.Sprintf("node %d repeats consecutively at position %d", def.Nodes[i], i),
			})
		}
	}
	if len(def.Nodes) > maxReasonablePathNodes {
		errs = append(errs, model.ValidationError{
			Severity: model.SeverityWarning, ErrorScope: model.ScopeQA, ErrorType: "PATH_TOO_LONG",
			ObjectType: "path_definition", ObjectID: def.ID,
			Message: fmt.Sprintf("path has %d nodes, exceeding the %d-node performance threshold", len(def.Nodes), maxReasonablePathNodes),
		})
	}
	return errs
}

// checkFlowDirection is check 5: (OUT, IN) is normal, (IN, OUT) is a
// WARNING, any other pairing is a MEDIUM error.
func (v *Validator) checkFlowDirection(start, end *model.PoC) []model.ValidationError {
	if start == nil || end == nil {
		return nil
	}
	switch {
	case start.Flow == model.FlowOut && end.Flow == model.FlowIn:
		return nil
	case start.Flow == model.FlowIn && end.Flow == model.FlowOut:
		return []model.ValidationError{{
			Severity: model.SeverityWarning, ErrorScope: model.ScopeFlow, ErrorType: "REVERSE_FLOW",
			ObjectType: "poc", ObjectID: start.ID, ObjectFlow: &start.Flow,
			Message: "start PoC is IN and end PoC is OUT",
		}}
	default:
		return []model.ValidationError{{
			Severity: model.SeverityMedium, ErrorScope: model.ScopeFlow, ErrorType: "INVALID_FLOW_PAIR",
			ObjectType: "poc", ObjectID: start.ID, ObjectFlow: &start.Flow,
			Message: fmt.Sprintf("unexpected flow pairing %s -> %s", start.Flow, end.Flow),
		}}
	}
}

// aggregateStatus picks the overall outcome, per spec §4.F "Overall status
// selection": any CRITICAL -> CRITICAL_FAILURE; else any HIGH -> FAILED;
// else any error -> WARNING; else PASSED.
func aggregateStatus(errs []model.ValidationError) model.OverallStatus {
	hasHigh, hasAny := false, false
	for _, e := range errs {
		hasAny = true
		if e.Severity == model.SeverityCritical {
			return model.OverallCriticalFailure
		}
		if e.Severity == model.SeverityHigh {
			hasHigh = true
		}
	}
	switch {
	case hasHigh:
		return model.OverallFailed
	case hasAny:
		return model.OverallWarning
	default:
		return model.OverallPassed
	}
}

func outcomeFor(status model.OverallStatus) model.PathTagOutcome {
	switch status {
	case model.OverallPassed:
		return model.TagValidatedOK
	case model.OverallWarning:
		return model.TagValidatedWarn
	case model.OverallCriticalFailure:
		return model.TagValidatedCrit
	default:
		return model.TagValidatedFail
	}
}
