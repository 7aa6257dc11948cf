// Package web provides HTTP request and response types for the flow API.
package web

import "github.com/keboola/flowkit/pkg/models"

// CreateFlowRequest represents the request body for creating a new flow.
type CreateFlowRequest struct {
	FlowType    models.FlowType `json:"flowType"`
	Name        string          `json:"name"        validate:"required,min=1"`
	Description string          `json:"description"`
	Phases      []models.Phase  `json:"phases"`
	Tasks       []models.Task   `json:"tasks"`
}

// UpdateFlowRequest represents the request body for replacing an existing
// flow's configuration. The full phase/task set is always submitted.
type UpdateFlowRequest struct {
	FlowType          models.FlowType `json:"flowType"`
	Name              string          `json:"name"              validate:"required,min=1"`
	Description       string          `json:"description"`
	Phases            []models.Phase  `json:"phases"`
	Tasks             []models.Task   `json:"tasks"`
	ChangeDescription string          `json:"changeDescription"`
}

// CreateScheduleRequest represents the request body for creating a schedule.
type CreateScheduleRequest struct {
	TargetComponentID     string               `json:"targetComponentId"     validate:"required"`
	TargetConfigurationID string               `json:"targetConfigurationId" validate:"required"`
	CronTab               string               `json:"cronTab"               validate:"required"`
	Timezone              string               `json:"timezone"`
	State                 models.ScheduleState `json:"state"`
	Name                  string               `json:"name"`
	Description           string               `json:"description"`
}

// UpdateScheduleRequest represents the request body for updating a schedule.
type UpdateScheduleRequest struct {
	CronTab           string               `json:"cronTab"  validate:"required"`
	Timezone          string               `json:"timezone"`
	State             models.ScheduleState `json:"state"`
	ChangeDescription string               `json:"changeDescription"`
}

// ListSchedulesResponse wraps the schedules targeting one configuration.
type ListSchedulesResponse struct {
	Schedules []models.ScheduleDetail `json:"schedules"`
	Count     int                     `json:"count"`
}

// ListFlowsResponse wraps flow summaries.
type ListFlowsResponse struct {
	Flows []models.FlowSummary `json:"flows"`
	Count int                  `json:"count"`
}
