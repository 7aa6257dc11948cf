package flows

import (
	"fmt"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/schema"
)

// Task ids are seeded high so they never collide with phase ids (small
// sequential integers) in tooling that renders both in one namespace.
const taskIDSeed = 20001

// EnsurePhaseIDs assigns ids to phases that lack one. New ids are sequential
// integers starting just above the highest explicit integer id, in input
// order. Explicit ids are never changed; duplicates among them are rejected.
func EnsurePhaseIDs(phases []models.Phase) ([]models.Phase, error) {
	out := make([]models.Phase, len(phases))
	copy(out, phases)

	next := nextSequentialID(phaseIDs(out), 1)
	seen := make(map[models.NodeID]struct{}, len(out))

	for i := range out {
		if out[i].ID.IsZero() {
			out[i].ID = models.IntID(next)
			next++
		}

		if _, dup := seen[out[i].ID]; dup {
			return nil, NewValidationError("EnsurePhaseIDs", "DUPLICATE_PHASE_ID",
				fmt.Sprintf("phase id %s is used more than once", out[i].ID), ErrDuplicateID)
		}

		seen[out[i].ID] = struct{}{}

		if out[i].Name == "" {
			out[i].Name = "Phase " + out[i].ID.String()
		}

		if out[i].DependsOn == nil {
			out[i].DependsOn = []models.NodeID{}
		}
	}

	return out, nil
}

// EnsureTaskIDs assigns ids to tasks that lack one, applying the same
// sequential scheme as phases but seeded at 20001. Defaults are applied to
// name and execution mode; a missing component id is a structural error.
func EnsureTaskIDs(tasks []models.Task) ([]models.Task, error) {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	next := nextSequentialID(taskIDs(out), taskIDSeed)
	seen := make(map[models.NodeID]struct{}, len(out))

	for i := range out {
		if out[i].ID.IsZero() {
			out[i].ID = models.IntID(next)
			next++
		}

		if _, dup := seen[out[i].ID]; dup {
			return nil, NewValidationError("EnsureTaskIDs", "DUPLICATE_TASK_ID",
				fmt.Sprintf("task id %s is used more than once", out[i].ID), ErrDuplicateID)
		}

		seen[out[i].ID] = struct{}{}

		if out[i].Name == "" {
			out[i].Name = "Task " + out[i].ID.String()
		}

		if out[i].Task.ComponentID == "" {
			return nil, NewValidationError("EnsureTaskIDs", "MISSING_COMPONENT_ID",
				fmt.Sprintf("task %s is missing componentId in its task configuration", out[i].ID), ErrInvalidTask)
		}

		if out[i].Task.Mode == "" {
			out[i].Task.Mode = models.TaskModeRun
		}
	}

	return out, nil
}

func phaseIDs(phases []models.Phase) []models.NodeID {
	ids := make([]models.NodeID, len(phases))
	for i, phase := range phases {
		ids[i] = phase.ID
	}

	return ids
}

func taskIDs(tasks []models.Task) []models.NodeID {
	ids := make([]models.NodeID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}

	return ids
}

// nextSequentialID returns max(explicit integer ids, floor-1) + 1.
func nextSequentialID(ids []models.NodeID, floor int64) int64 {
	next := floor

	for _, id := range ids {
		if n, ok := id.Int(); ok && n+1 > next {
			next = n + 1
		}
	}

	return next
}

// ValidateStructure checks a fully id-assigned phase/task graph, in order:
// referential integrity of task phase references, referential integrity of
// phase dependencies, acyclicity of the dependency graph, and conformance of
// the assembled configuration to the published orchestrator schema.
//
// An empty flow is valid. No partial graph is ever considered valid; the
// first violation is returned.
func ValidateStructure(phases []models.Phase, tasks []models.Task) error {
	known := make(map[models.NodeID]struct{}, len(phases))
	for _, phase := range phases {
		known[phase.ID] = struct{}{}
	}

	for _, task := range tasks {
		if _, ok := known[task.Phase]; !ok {
			return NewValidationError("ValidateStructure", "UNKNOWN_PHASE",
				fmt.Sprintf("task %s references non-existent phase %s", task.ID, task.Phase), ErrUnknownPhase)
		}
	}

	for _, phase := range phases {
		for _, dep := range phase.DependsOn {
			if _, ok := known[dep]; !ok {
				return NewValidationError("ValidateStructure", "UNKNOWN_PHASE",
					fmt.Sprintf("phase %s depends on non-existent phase %s", phase.ID, dep), ErrUnknownPhase)
			}
		}
	}

	if cycle := findCycle(phases); cycle != nil {
		return NewValidationError("ValidateStructure", "CYCLIC_DEPENDENCY",
			fmt.Sprintf("circular dependency detected: %s", models.JoinNodeIDs(cycle)), ErrCyclicDependency)
	}

	configuration := models.FlowConfiguration{Phases: phases, Tasks: tasks}
	if configuration.Phases == nil {
		configuration.Phases = []models.Phase{}
	}

	if configuration.Tasks == nil {
		configuration.Tasks = []models.Task{}
	}

	if err := schema.ValidateFlowConfiguration(configuration, models.FlowTypeOrchestrator); err != nil {
		return NewValidationError("ValidateStructure", "SCHEMA_VIOLATION", err.Error(), err)
	}

	return nil
}

const (
	colorUnvisited = iota
	colorOnStack
	colorDone
)

type dfsFrame struct {
	node int
	edge int
}

// findCycle runs an iterative depth-first search over the phase dependency
// graph (phase -> each id it depends on) and returns the first cycle found as
// a path of ids ending where it started, or nil if the graph is acyclic.
//
// The search uses an explicit frame stack indexed into a phase arena, so
// arbitrarily deep graphs cannot exhaust the goroutine stack. Duplicate
// depends_on entries are collapsed to a single edge.
func findCycle(phases []models.Phase) []models.NodeID {
	index := make(map[models.NodeID]int, len(phases))
	for i, phase := range phases {
		index[phase.ID] = i
	}

	adjacency := make([][]int, len(phases))

	for i, phase := range phases {
		edges := make([]int, 0, len(phase.DependsOn))
		dedupe := make(map[int]struct{}, len(phase.DependsOn))

		for _, dep := range phase.DependsOn {
			target := index[dep]
			if _, dup := dedupe[target]; dup {
				continue
			}

			dedupe[target] = struct{}{}
			edges = append(edges, target)
		}

		adjacency[i] = edges
	}

	color := make([]int, len(phases))

	for root := range phases {
		if color[root] != colorUnvisited {
			continue
		}

		stack := []dfsFrame{{node: root}}
		color[root] = colorOnStack

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.edge == len(adjacency[top.node]) {
				color[top.node] = colorDone
				stack = stack[:len(stack)-1]

				continue
			}

			next := adjacency[top.node][top.edge]
			top.edge++

			switch color[next] {
			case colorOnStack:
				return cyclePath(phases, stack, next)
			case colorUnvisited:
				color[next] = colorOnStack
				stack = append(stack, dfsFrame{node: next})
			}
		}
	}

	return nil
}

// cyclePath renders the portion of the DFS stack from the back-edge target to
// the top, closed with the target again.
func cyclePath(phases []models.Phase, stack []dfsFrame, target int) []models.NodeID {
	start := 0
	for i, frame := range stack {
		if frame.node == target {
			start = i

			break
		}
	}

	path := make([]models.NodeID, 0, len(stack)-start+1)
	for _, frame := range stack[start:] {
		path = append(path, phases[frame.node].ID)
	}

	return append(path, phases[target].ID)
}
