package models

import "encoding/json"

// Phase is a dependency-ordered stage of a flow. Tasks that share a phase run
// in parallel; phases run in the order induced by DependsOn.
type Phase struct {
	ID          NodeID   `json:"id"`
	Name        string   `json:"name"        validate:"required,min=1"`
	Description string   `json:"description"`
	DependsOn   []NodeID `json:"dependsOn"`
}

// TaskPayload identifies what a task executes: a component configuration plus
// an execution mode. This is the typed form of the orchestration engine's
// "task" object.
type TaskPayload struct {
	ComponentID string `json:"componentId"      validate:"required"`
	ConfigID    string `json:"configId,omitempty"`
	Mode        string `json:"mode"`
	Tag         string `json:"tag,omitempty"`
}

// TaskModeRun is the only execution mode the orchestration engines accept.
const TaskModeRun = "run"

// Task is a unit of work within a phase.
type Task struct {
	ID                NodeID      `json:"id"`
	Name              string      `json:"name"`
	Phase             NodeID      `json:"phase"`
	Enabled           bool        `json:"enabled"`
	ContinueOnFailure bool        `json:"continueOnFailure"`
	Task              TaskPayload `json:"task"`
}

// UnmarshalJSON applies the enabled=true default when the field is omitted.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task

	aux := struct {
		*plain

		Enabled *bool `json:"enabled"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Enabled = aux.Enabled == nil || *aux.Enabled

	return nil
}

// FlowConfiguration is the complete phase/task graph of a flow. It is always
// created and replaced wholesale; the core never mutates it partially.
type FlowConfiguration struct {
	Phases []Phase `json:"phases"`
	Tasks  []Task  `json:"tasks"`
}

// MetadataEntry tags a configuration with key/value provenance information,
// e.g. to mark machine-authored configurations.
type MetadataEntry struct {
	ID        string `json:"id,omitempty"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Provider  string `json:"provider,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Flow is the full detail of a flow configuration as held by the
// configuration-storage service.
type Flow struct {
	FlowType          FlowType          `json:"flowType"`
	ConfigurationID   string            `json:"configurationId"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Version           int               `json:"version"`
	IsDisabled        bool              `json:"isDisabled"`
	IsDeleted         bool              `json:"isDeleted"`
	Configuration     FlowConfiguration `json:"configuration"`
	ChangeDescription string            `json:"changeDescription,omitempty"`
	Metadata          []MetadataEntry   `json:"metadata,omitempty"`
	Created           string            `json:"created,omitempty"`
	Updated           string            `json:"updated,omitempty"`
}

// FlowSummary is the reduced listing shape of a flow.
type FlowSummary struct {
	FlowType        FlowType `json:"flowType"`
	ConfigurationID string   `json:"configurationId"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Version         int      `json:"version"`
	IsDisabled      bool     `json:"isDisabled"`
	IsDeleted       bool     `json:"isDeleted"`
	PhasesCount     int      `json:"phasesCount"`
	TasksCount      int      `json:"tasksCount"`
	Created         string   `json:"created,omitempty"`
	Updated         string   `json:"updated,omitempty"`
}

// Summary reduces a flow to its listing shape.
func (f *Flow) Summary() FlowSummary {
	return FlowSummary{
		FlowType:        f.FlowType,
		ConfigurationID: f.ConfigurationID,
		Name:            f.Name,
		Description:     f.Description,
		Version:         f.Version,
		IsDisabled:      f.IsDisabled,
		IsDeleted:       f.IsDeleted,
		PhasesCount:     len(f.Configuration.Phases),
		TasksCount:      len(f.Configuration.Tasks),
		Created:         f.Created,
		Updated:         f.Updated,
	}
}
