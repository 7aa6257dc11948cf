package schedules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
)

// Service coordinates the two backend services that together hold a
// schedule: a configuration object in the configuration-storage service and
// a paired activation record in the scheduler service.
//
// Lifecycle per schedule: absent -> configured -> active -> deactivated ->
// absent. Steps within one operation run strictly sequentially; once
// compensation starts it runs to completion.
type Service struct {
	storage   platform.StorageAPI
	scheduler platform.SchedulerAPI
	logger    *slog.Logger
}

// NewService creates a new schedule service.
func NewService(storage platform.StorageAPI, scheduler platform.SchedulerAPI, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		scheduler: scheduler,
		logger:    logger,
	}
}

// CreateRequest carries the inputs for a new schedule.
type CreateRequest struct {
	TargetComponentID     string `validate:"required"`
	TargetConfigurationID string `validate:"required"`
	CronTab               string `validate:"required"`
	Timezone              string
	State                 models.ScheduleState
	Name                  string
	Description           string
}

// UpdateRequest replaces the schedule sub-object of an existing schedule
// configuration.
type UpdateRequest struct {
	CronTab           string `validate:"required"`
	Timezone          string
	State             models.ScheduleState
	ChangeDescription string
}

// Create configures and activates a new schedule. The configuration object
// is created first; its id is then submitted to the scheduler service. If
// activation fails, the orphaned configuration is deleted (best effort) and
// the original activation error is returned, so callers never see a
// configured-but-unactivated schedule silently left behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.ScheduleDetail, error) {
	if req.TargetComponentID == "" || req.TargetConfigurationID == "" {
		return nil, ErrMissingTarget
	}

	if req.CronTab == "" {
		return nil, ErrEmptyCronTab
	}

	if err := models.ValidateCronTab(req.CronTab); err != nil {
		return nil, err
	}

	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	if req.State == "" {
		req.State = models.ScheduleStateEnabled
	}

	if err := req.State.Validate(); err != nil {
		return nil, err
	}

	if req.Name == "" {
		req.Name = "Schedule for " + req.TargetConfigurationID
	}

	if req.Description == "" {
		req.Description = "Automated schedule for " + req.TargetConfigurationID
	}

	payload, err := json.Marshal(platform.SchedulerConfigPayload{
		Schedule: platform.ScheduleConfig{
			CronTab:  req.CronTab,
			Timezone: req.Timezone,
			State:    req.State,
		},
		Target: platform.ScheduleTarget{
			ComponentID:     req.TargetComponentID,
			ConfigurationID: req.TargetConfigurationID,
			Mode:            models.TaskModeRun,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize scheduler configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "Creating schedule",
		"name", req.Name,
		"cron_tab", req.CronTab,
		"target_component", req.TargetComponentID,
		"target_configuration", req.TargetConfigurationID)

	created, err := s.storage.CreateConfig(ctx, platform.ComponentScheduler, platform.CreateConfigRequest{
		Name:          req.Name,
		Description:   req.Description,
		Configuration: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule configuration: %w", err)
	}

	record, err := s.scheduler.ActivateSchedule(ctx, created.ID)
	if err != nil {
		s.compensateCreate(ctx, created.ID)

		return nil, &ActivationError{ConfigurationID: created.ID, Err: err}
	}

	s.logger.InfoContext(ctx, "Activated schedule", "schedule_id", record.ID, "configuration_id", created.ID)

	return detailFromRecord(record, created.Name), nil
}

// compensateCreate removes the configuration left behind by a failed
// activation. Secondary failures are logged only; the caller always sees the
// original activation error.
func (s *Service) compensateCreate(ctx context.Context, configurationID string) {
	s.logger.WarnContext(ctx, "Activation failed, deleting orphaned schedule configuration",
		"configuration_id", configurationID)

	if err := s.storage.DeleteConfig(ctx, platform.ComponentScheduler, configurationID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete orphaned schedule configuration",
			"configuration_id", configurationID, "error", err)
	}
}

// ListForTarget returns all active schedules targeting the given component
// configuration. An empty result is not an error.
func (s *Service) ListForTarget(ctx context.Context, componentID, configurationID string) ([]models.ScheduleDetail, error) {
	records, err := s.scheduler.ListSchedulesByTarget(ctx, componentID, configurationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	details := make([]models.ScheduleDetail, 0, len(records))
	for _, record := range records {
		details = append(details, *detailFromRecord(record, ""))
	}

	return details, nil
}

// Update replaces the schedule sub-object of the backing configuration,
// persists a new version, then re-activates the schedule so the scheduler
// service reconciles to the latest configuration version.
func (s *Service) Update(
	ctx context.Context,
	scheduleConfigurationID string,
	req UpdateRequest,
) (*models.ScheduleDetail, error) {
	if req.CronTab == "" {
		return nil, ErrEmptyCronTab
	}

	if err := models.ValidateCronTab(req.CronTab); err != nil {
		return nil, err
	}

	if req.State == "" {
		req.State = models.ScheduleStateEnabled
	}

	if err := req.State.Validate(); err != nil {
		return nil, err
	}

	current, err := s.storage.GetConfig(ctx, platform.ComponentScheduler, scheduleConfigurationID)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleConfigurationID)
		}

		return nil, fmt.Errorf("failed to load schedule configuration: %w", err)
	}

	var payload platform.SchedulerConfigPayload
	if err := json.Unmarshal(current.Configuration, &payload); err != nil {
		return nil, fmt.Errorf("schedule configuration %s has malformed content: %w", scheduleConfigurationID, err)
	}

	payload.Schedule = platform.ScheduleConfig{
		CronTab:  req.CronTab,
		Timezone: timezoneOrPrevious(req.Timezone, payload.Schedule.Timezone),
		State:    req.State,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize scheduler configuration: %w", err)
	}

	changeDescription := req.ChangeDescription
	if changeDescription == "" {
		changeDescription = "Schedule updated"
	}

	s.logger.InfoContext(ctx, "Updating schedule configuration",
		"configuration_id", scheduleConfigurationID, "cron_tab", req.CronTab, "state", req.State)

	updated, err := s.storage.UpdateConfig(ctx, platform.ComponentScheduler, scheduleConfigurationID,
		platform.UpdateConfigRequest{
			Configuration:     body,
			ChangeDescription: changeDescription,
		})
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleConfigurationID)
		}

		return nil, fmt.Errorf("failed to update schedule configuration: %w", err)
	}

	record, err := s.scheduler.ActivateSchedule(ctx, scheduleConfigurationID)
	if err != nil {
		return nil, &ActivationError{ConfigurationID: scheduleConfigurationID, Err: err}
	}

	s.logger.InfoContext(ctx, "Reactivated schedule", "schedule_id", record.ID,
		"configuration_id", scheduleConfigurationID, "version", updated.Version)

	return detailFromRecord(record, updated.Name), nil
}

// SetState enables or disables a schedule without changing its recurrence.
func (s *Service) SetState(
	ctx context.Context,
	scheduleConfigurationID string,
	state models.ScheduleState,
) (*models.ScheduleDetail, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}

	current, err := s.storage.GetConfig(ctx, platform.ComponentScheduler, scheduleConfigurationID)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleConfigurationID)
		}

		return nil, fmt.Errorf("failed to load schedule configuration: %w", err)
	}

	var payload platform.SchedulerConfigPayload
	if err := json.Unmarshal(current.Configuration, &payload); err != nil {
		return nil, fmt.Errorf("schedule configuration %s has malformed content: %w", scheduleConfigurationID, err)
	}

	return s.Update(ctx, scheduleConfigurationID, UpdateRequest{
		CronTab:           payload.Schedule.CronTab,
		Timezone:          payload.Schedule.Timezone,
		State:             state,
		ChangeDescription: "Schedule " + string(state),
	})
}

// Remove deactivates all scheduler records backed by the configuration and
// deletes the configuration itself. The operation is idempotent: not-found
// on either step is treated as successful no-op completion, so removing an
// already-removed schedule never fails.
func (s *Service) Remove(ctx context.Context, scheduleConfigurationID string) error {
	records, err := s.scheduler.ListSchedulesByConfig(ctx, scheduleConfigurationID)
	if err != nil && !platform.IsNotFound(err) {
		return fmt.Errorf("failed to look up schedules for configuration %s: %w", scheduleConfigurationID, err)
	}

	for _, record := range records {
		if err := s.scheduler.DeactivateSchedule(ctx, record.ID); err != nil {
			if platform.IsNotFound(err) {
				s.logger.InfoContext(ctx, "Schedule already deactivated", "schedule_id", record.ID)

				continue
			}

			return fmt.Errorf("failed to deactivate schedule %s: %w", record.ID, err)
		}

		s.logger.InfoContext(ctx, "Deactivated schedule", "schedule_id", record.ID)
	}

	if err := s.storage.DeleteConfig(ctx, platform.ComponentScheduler, scheduleConfigurationID); err != nil {
		if platform.IsNotFound(err) {
			s.logger.InfoContext(ctx, "Schedule configuration already deleted",
				"configuration_id", scheduleConfigurationID)

			return nil
		}

		return fmt.Errorf("failed to delete schedule configuration %s: %w", scheduleConfigurationID, err)
	}

	s.logger.InfoContext(ctx, "Deleted schedule configuration", "configuration_id", scheduleConfigurationID)

	return nil
}

func timezoneOrPrevious(requested, previous string) string {
	if requested != "" {
		return requested
	}

	if previous != "" {
		return previous
	}

	return "UTC"
}

// detailFromRecord maps a scheduler-service record to the domain detail,
// deriving the simplified schedule from the raw cron expression. A cron
// string the simplified model cannot represent leaves Schedule nil rather
// than failing the whole operation.
func detailFromRecord(record *platform.ScheduleRecord, name string) *models.ScheduleDetail {
	detail := &models.ScheduleDetail{
		ID:              record.ID,
		ConfigurationID: record.ConfigurationID,
		Name:            name,
		CronTab:         record.Schedule.CronTab,
		Timezone:        record.Schedule.Timezone,
		State:           record.Schedule.State,
		Executions:      record.Executions,
	}

	if detail.Executions == nil {
		detail.Executions = []models.ScheduleExecution{}
	}

	if simplified, err := models.ParseCronTab(record.Schedule.CronTab); err == nil {
		simplified.Timezone = record.Schedule.Timezone
		detail.Schedule = simplified
	} else {
		slog.Warn("Schedule has a cron expression the simplified model cannot represent",
			"schedule_id", record.ID, "cron_tab", record.Schedule.CronTab, "error", err)
	}

	return detail
}
