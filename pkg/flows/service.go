package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
)

const (
	metadataKeyCreatedBy = "flowkit.createdBy"
	metadataKeyUpdatedBy = "flowkit.updatedBy.version"
	metadataProvider     = "flowkit"
)

// Service implements the flow configuration lifecycle against the
// configuration-storage service.
type Service struct {
	storage platform.StorageAPI
	logger  *slog.Logger
}

// NewService creates a new flow service.
func NewService(storage platform.StorageAPI, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// CreateFlowRequest carries the inputs for a new flow configuration. Phases
// and tasks may omit ids; they are assigned deterministically before
// validation.
type CreateFlowRequest struct {
	FlowType    models.FlowType `validate:"required"`
	Name        string          `validate:"required"`
	Description string
	Phases      []models.Phase
	Tasks       []models.Task
}

// UpdateFlowRequest replaces a flow configuration wholesale.
type UpdateFlowRequest struct {
	FlowType          models.FlowType `validate:"required"`
	Name              string          `validate:"required"`
	Description       string
	Phases            []models.Phase
	Tasks             []models.Task
	ChangeDescription string
}

// normalize assigns ids and validates the phase/task graph, returning the
// configuration ready for persistence.
func normalize(phases []models.Phase, tasks []models.Task) (*models.FlowConfiguration, error) {
	processedPhases, err := EnsurePhaseIDs(phases)
	if err != nil {
		return nil, err
	}

	processedTasks, err := EnsureTaskIDs(tasks)
	if err != nil {
		return nil, err
	}

	if err := ValidateStructure(processedPhases, processedTasks); err != nil {
		return nil, err
	}

	return &models.FlowConfiguration{Phases: processedPhases, Tasks: processedTasks}, nil
}

// Create validates the phase/task graph and persists a new flow
// configuration. Only the orchestrator engine supports structured phase/task
// authoring; conditional flows are read-only in this service.
func (s *Service) Create(ctx context.Context, req CreateFlowRequest) (*models.Flow, error) {
	if req.FlowType != models.FlowTypeOrchestrator {
		return nil, NewValidationError("Create", "UNSUPPORTED_FLOW_TYPE",
			fmt.Sprintf("flow type %q cannot be authored through this service", req.FlowType),
			ErrUnsupportedFlowType)
	}

	configuration, err := normalize(req.Phases, req.Tasks)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize flow configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "Creating flow",
		"name", req.Name,
		"flow_type", req.FlowType,
		"phases", len(configuration.Phases),
		"tasks", len(configuration.Tasks))

	created, err := s.storage.CreateConfig(ctx, req.FlowType.String(), platform.CreateConfigRequest{
		Name:          req.Name,
		Description:   req.Description,
		Configuration: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create flow configuration: %w", err)
	}

	s.tagAuthorship(ctx, req.FlowType, created.ID, []models.MetadataEntry{
		{Key: metadataKeyCreatedBy, Value: "true", Provider: metadataProvider},
	})

	return flowFromConfig(req.FlowType, created)
}

// Update replaces the content of an existing flow configuration, producing a
// new version at the backend.
func (s *Service) Update(ctx context.Context, configurationID string, req UpdateFlowRequest) (*models.Flow, error) {
	if req.FlowType != models.FlowTypeOrchestrator {
		return nil, NewValidationError("Update", "UNSUPPORTED_FLOW_TYPE",
			fmt.Sprintf("flow type %q cannot be authored through this service", req.FlowType),
			ErrUnsupportedFlowType)
	}

	configuration, err := normalize(req.Phases, req.Tasks)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize flow configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "Updating flow", "configuration_id", configurationID, "flow_type", req.FlowType)

	updated, err := s.storage.UpdateConfig(ctx, req.FlowType.String(), configurationID, platform.UpdateConfigRequest{
		Name:              req.Name,
		Description:       &req.Description,
		Configuration:     payload,
		ChangeDescription: req.ChangeDescription,
	})
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, configurationID)
		}

		return nil, fmt.Errorf("failed to update flow configuration: %w", err)
	}

	s.tagAuthorship(ctx, req.FlowType, updated.ID, []models.MetadataEntry{
		{Key: metadataKeyUpdatedBy + "." + strconv.Itoa(updated.Version), Value: "true", Provider: metadataProvider},
	})

	return flowFromConfig(req.FlowType, updated)
}

// Get retrieves a flow by configuration id, probing each supported flow type
// until one of them holds the configuration.
func (s *Service) Get(ctx context.Context, configurationID string) (*models.Flow, error) {
	for _, flowType := range models.FlowTypes() {
		cfg, err := s.storage.GetConfig(ctx, flowType.String(), configurationID)
		if err != nil {
			if platform.IsNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to get flow configuration: %w", err)
		}

		return flowFromConfig(flowType, cfg)
	}

	return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, configurationID)
}

// List returns flow summaries across all supported flow types, optionally
// filtered by configuration ids. Flows that cannot be retrieved when
// filtering by id are skipped with a warning, matching the tolerant listing
// behavior callers rely on.
func (s *Service) List(ctx context.Context, configurationIDs ...string) ([]models.FlowSummary, error) {
	if len(configurationIDs) > 0 {
		summaries := make([]models.FlowSummary, 0, len(configurationIDs))

		for _, id := range configurationIDs {
			flow, err := s.Get(ctx, id)
			if err != nil {
				s.logger.WarnContext(ctx, "Failed to retrieve flow", "configuration_id", id, "error", err)

				continue
			}

			summaries = append(summaries, flow.Summary())
		}

		return summaries, nil
	}

	summaries := make([]models.FlowSummary, 0)

	for _, flowType := range models.FlowTypes() {
		configs, err := s.storage.ListConfigs(ctx, flowType.String())
		if err != nil {
			return nil, fmt.Errorf("failed to list %s configurations: %w", flowType, err)
		}

		for _, cfg := range configs {
			flow, err := flowFromConfig(flowType, cfg)
			if err != nil {
				s.logger.WarnContext(ctx, "Skipping malformed flow configuration",
					"configuration_id", cfg.ID, "flow_type", flowType, "error", err)

				continue
			}

			summaries = append(summaries, flow.Summary())
		}
	}

	return summaries, nil
}

// tagAuthorship marks a configuration as machine-authored. Metadata is
// best-effort: a failure is logged and never fails the flow operation.
func (s *Service) tagAuthorship(
	ctx context.Context,
	flowType models.FlowType,
	configurationID string,
	entries []models.MetadataEntry,
) {
	if err := s.storage.AppendConfigMetadata(ctx, flowType.String(), configurationID, entries); err != nil {
		s.logger.WarnContext(ctx, "Failed to tag flow configuration metadata",
			"configuration_id", configurationID, "error", err)
	}
}

func flowFromConfig(flowType models.FlowType, cfg *platform.ConfigResponse) (*models.Flow, error) {
	var configuration models.FlowConfiguration
	if len(cfg.Configuration) > 0 {
		if err := json.Unmarshal(cfg.Configuration, &configuration); err != nil {
			return nil, fmt.Errorf("flow configuration %s has malformed content: %w", cfg.ID, err)
		}
	}

	if configuration.Phases == nil {
		configuration.Phases = []models.Phase{}
	}

	if configuration.Tasks == nil {
		configuration.Tasks = []models.Task{}
	}

	return &models.Flow{
		FlowType:          flowType,
		ConfigurationID:   cfg.ID,
		Name:              cfg.Name,
		Description:       cfg.Description,
		Version:           cfg.Version,
		IsDisabled:        cfg.IsDisabled,
		IsDeleted:         cfg.IsDeleted,
		Configuration:     configuration,
		ChangeDescription: cfg.ChangeDescription,
		Metadata:          cfg.Metadata,
		Created:           cfg.Created,
		Updated:           cfg.Updated,
	}, nil
}
