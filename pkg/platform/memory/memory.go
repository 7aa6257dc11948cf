// Package memory provides in-memory implementations of the platform clients.
// It backs the binaries' demo mode and the host-layer tests; production
// deployments inject real HTTP clients instead.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
)

type storedConfig struct {
	component string
	config    platform.ConfigResponse
}

// Backend holds both the configuration store and the scheduler state behind
// one mutex; the two are consistent the way the real services are only
// eventually.
type Backend struct {
	mu             sync.RWMutex
	configs        map[string]*storedConfig
	schedules      map[string]*platform.ScheduleRecord
	nextScheduleID int
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		configs:        make(map[string]*storedConfig),
		schedules:      make(map[string]*platform.ScheduleRecord),
		nextScheduleID: 1,
	}
}

var (
	_ platform.StorageAPI   = (*Backend)(nil)
	_ platform.SchedulerAPI = (*Backend)(nil)
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (b *Backend) CreateConfig(
	_ context.Context,
	component string,
	req platform.CreateConfigRequest,
) (*platform.ConfigResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := platform.ConfigResponse{
		ID:                uuid.New().String(),
		Name:              req.Name,
		Description:       req.Description,
		Version:           1,
		ChangeDescription: "Configuration created",
		Configuration:     append(json.RawMessage(nil), req.Configuration...),
		Created:           timestamp(),
	}
	b.configs[cfg.ID] = &storedConfig{component: component, config: cfg}

	out := cfg

	return &out, nil
}

func (b *Backend) UpdateConfig(
	_ context.Context,
	component, configID string,
	req platform.UpdateConfigRequest,
) (*platform.ConfigResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.lookupConfig(component, configID)
	if err != nil {
		return nil, err
	}

	stored.config.Version++
	stored.config.ChangeDescription = req.ChangeDescription
	stored.config.Updated = timestamp()

	if req.Configuration != nil {
		stored.config.Configuration = append(json.RawMessage(nil), req.Configuration...)
	}

	if req.Name != "" {
		stored.config.Name = req.Name
	}

	if req.Description != nil {
		stored.config.Description = *req.Description
	}

	out := stored.config

	return &out, nil
}

func (b *Backend) GetConfig(_ context.Context, component, configID string) (*platform.ConfigResponse, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, err := b.lookupConfig(component, configID)
	if err != nil {
		return nil, err
	}

	out := stored.config

	return &out, nil
}

func (b *Backend) DeleteConfig(_ context.Context, component, configID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.lookupConfig(component, configID); err != nil {
		return err
	}

	delete(b.configs, configID)

	return nil
}

func (b *Backend) ListConfigs(_ context.Context, component string) ([]*platform.ConfigResponse, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	configs := make([]*platform.ConfigResponse, 0)

	for _, stored := range b.configs {
		if stored.component != component {
			continue
		}

		out := stored.config
		configs = append(configs, &out)
	}

	return configs, nil
}

func (b *Backend) AppendConfigMetadata(
	_ context.Context,
	component, configID string,
	entries []models.MetadataEntry,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.lookupConfig(component, configID)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entry.ID = strconv.Itoa(len(stored.config.Metadata) + 1)
		entry.Timestamp = timestamp()
		stored.config.Metadata = append(stored.config.Metadata, entry)
	}

	return nil
}

// lookupConfig must be called with the mutex held.
func (b *Backend) lookupConfig(component, configID string) (*storedConfig, error) {
	stored, ok := b.configs[configID]
	if !ok || stored.component != component {
		return nil, platform.NewNotFoundError("configuration", configID)
	}

	return stored, nil
}

func (b *Backend) ActivateSchedule(_ context.Context, configurationID string) (*platform.ScheduleRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.lookupConfig(platform.ComponentScheduler, configurationID)
	if err != nil {
		return nil, err
	}

	var payload platform.SchedulerConfigPayload
	if err := json.Unmarshal(stored.config.Configuration, &payload); err != nil {
		return nil, fmt.Errorf("configuration %s is not a scheduler payload: %w", configurationID, err)
	}

	if err := models.ValidateCronTab(payload.Schedule.CronTab); err != nil {
		return nil, err
	}

	// Re-activation reconciles the existing record to the latest
	// configuration version instead of creating a second one.
	for _, record := range b.schedules {
		if record.ConfigurationID == configurationID {
			record.ConfigurationVersionID = strconv.Itoa(stored.config.Version)
			record.Schedule = payload.Schedule
			record.Target = payload.Target

			out := *record

			return &out, nil
		}
	}

	record := &platform.ScheduleRecord{
		ID:                     strconv.Itoa(b.nextScheduleID),
		TokenID:                "1",
		ConfigurationID:        configurationID,
		ConfigurationVersionID: strconv.Itoa(stored.config.Version),
		Schedule:               payload.Schedule,
		Target:                 payload.Target,
		Executions:             []models.ScheduleExecution{},
	}
	b.nextScheduleID++
	b.schedules[record.ID] = record

	out := *record

	return &out, nil
}

func (b *Backend) GetSchedule(_ context.Context, scheduleID string) (*platform.ScheduleRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.schedules[scheduleID]
	if !ok {
		return nil, platform.NewNotFoundError("schedule", scheduleID)
	}

	out := *record

	return &out, nil
}

func (b *Backend) ListSchedulesByConfig(_ context.Context, configurationID string) ([]*platform.ScheduleRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records := make([]*platform.ScheduleRecord, 0)

	for _, record := range b.schedules {
		if record.ConfigurationID == configurationID {
			out := *record
			records = append(records, &out)
		}
	}

	return records, nil
}

func (b *Backend) ListSchedulesByTarget(
	_ context.Context,
	componentID, configurationID string,
) ([]*platform.ScheduleRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records := make([]*platform.ScheduleRecord, 0)

	for _, record := range b.schedules {
		if record.Target.ComponentID == componentID && record.Target.ConfigurationID == configurationID {
			out := *record
			records = append(records, &out)
		}
	}

	return records, nil
}

func (b *Backend) DeactivateSchedule(_ context.Context, scheduleID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.schedules[scheduleID]; !ok {
		return platform.NewNotFoundError("schedule", scheduleID)
	}

	delete(b.schedules, scheduleID)

	return nil
}
