// Package platform defines the abstract clients for the two backend
// services the core talks to: the configuration-storage service (versioned,
// named JSON configuration objects per component type) and the scheduler
// service (live activation records that fire scheduled executions).
//
// The concrete HTTP transport, token handling and retry policy live outside
// this module; implementations of these interfaces are injected into the
// services.
package platform

import (
	"context"
	"encoding/json"

	"github.com/keboola/flowkit/pkg/models"
)

// ComponentScheduler is the component type under which schedule
// configurations are stored.
const ComponentScheduler = "keboola.scheduler"

// CreateConfigRequest carries the payload for a new configuration object.
type CreateConfigRequest struct {
	Name          string          `json:"name"          validate:"required"`
	Description   string          `json:"description"`
	Configuration json.RawMessage `json:"configuration" validate:"required"`
}

// UpdateConfigRequest replaces a configuration object's content, creating a
// new version.
type UpdateConfigRequest struct {
	Name              string          `json:"name,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Configuration     json.RawMessage `json:"configuration"`
	ChangeDescription string          `json:"changeDescription"`
}

// ConfigResponse is a configuration object as returned by the
// configuration-storage service.
type ConfigResponse struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	Version           int                    `json:"version"`
	IsDisabled        bool                   `json:"isDisabled"`
	IsDeleted         bool                   `json:"isDeleted"`
	ChangeDescription string                 `json:"changeDescription,omitempty"`
	Configuration     json.RawMessage        `json:"configuration"`
	Metadata          []models.MetadataEntry `json:"metadata,omitempty"`
	Created           string                 `json:"created,omitempty"`
	Updated           string                 `json:"updated,omitempty"`
}

// StorageAPI is the configuration-storage service client.
type StorageAPI interface {
	CreateConfig(ctx context.Context, component string, req CreateConfigRequest) (*ConfigResponse, error)
	UpdateConfig(ctx context.Context, component, configID string, req UpdateConfigRequest) (*ConfigResponse, error)
	GetConfig(ctx context.Context, component, configID string) (*ConfigResponse, error)
	DeleteConfig(ctx context.Context, component, configID string) error
	ListConfigs(ctx context.Context, component string) ([]*ConfigResponse, error)
	AppendConfigMetadata(ctx context.Context, component, configID string, entries []models.MetadataEntry) error
}

// ScheduleConfig is the schedule sub-object of a scheduler configuration.
type ScheduleConfig struct {
	CronTab  string               `json:"cronTab"`
	Timezone string               `json:"timezone"`
	State    models.ScheduleState `json:"state"`
}

// ScheduleTarget identifies what a schedule executes.
type ScheduleTarget struct {
	ComponentID     string `json:"componentId"`
	ConfigurationID string `json:"configurationId"`
	Mode            string `json:"mode"`
	Tag             string `json:"tag,omitempty"`
}

// SchedulerConfigPayload is the configuration body stored for a schedule.
type SchedulerConfigPayload struct {
	Schedule ScheduleConfig `json:"schedule"`
	Target   ScheduleTarget `json:"target"`
}

// ScheduleRecord is a live activation record held by the scheduler service.
type ScheduleRecord struct {
	ID                     string                     `json:"id"`
	TokenID                string                     `json:"tokenId"`
	ConfigurationID        string                     `json:"configurationId"`
	ConfigurationVersionID string                     `json:"configurationVersionId"`
	Schedule               ScheduleConfig             `json:"schedule"`
	Target                 ScheduleTarget             `json:"target"`
	Executions             []models.ScheduleExecution `json:"executions"`
}

// SchedulerAPI is the scheduler service client.
type SchedulerAPI interface {
	// ActivateSchedule submits a configuration id to the scheduler service,
	// creating or reconciling the live activation record for it.
	ActivateSchedule(ctx context.Context, configurationID string) (*ScheduleRecord, error)
	GetSchedule(ctx context.Context, scheduleID string) (*ScheduleRecord, error)
	ListSchedulesByConfig(ctx context.Context, configurationID string) ([]*ScheduleRecord, error)
	ListSchedulesByTarget(ctx context.Context, componentID, configurationID string) ([]*ScheduleRecord, error)
	DeactivateSchedule(ctx context.Context, scheduleID string) error
}
