// Package models defines the domain models for flow orchestration and scheduling.
package models

import "errors"

// FlowType identifies which orchestration engine executes a flow
// configuration. The two engines have distinct configuration schemas and are
// addressed as separate component types by the configuration-storage service.
type FlowType string

const (
	// FlowTypeOrchestrator is the legacy phase/task orchestration engine.
	FlowTypeOrchestrator FlowType = "keboola.orchestrator"

	// FlowTypeConditional is the conditional-flow engine.
	FlowTypeConditional FlowType = "keboola.flow"
)

// ErrInvalidFlowType is returned when a flow type is not one of the supported engines.
var ErrInvalidFlowType = errors.New("invalid flow type")

// FlowTypes returns all supported flow types in lookup order.
func FlowTypes() []FlowType {
	return []FlowType{FlowTypeConditional, FlowTypeOrchestrator}
}

func (t FlowType) Validate() error {
	switch t {
	case FlowTypeOrchestrator, FlowTypeConditional:
		return nil
	default:
		return ErrInvalidFlowType
	}
}

func (t FlowType) String() string {
	return string(t)
}
