package flows

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform/memory"
)

func newTestService() *Service {
	return NewService(memory.NewBackend(), slog.Default())
}

func testCreateRequest() CreateFlowRequest {
	return CreateFlowRequest{
		FlowType:    models.FlowTypeOrchestrator,
		Name:        "Nightly ELT",
		Description: "Extract, transform and load overnight",
		Phases: []models.Phase{
			{ID: models.IntID(1), Name: "Extract"},
			{ID: models.IntID(2), Name: "Load", DependsOn: []models.NodeID{models.IntID(1)}},
		},
		Tasks: []models.Task{
			{
				Name:    "Pull files",
				Phase:   models.IntID(1),
				Enabled: true,
				Task:    models.TaskPayload{ComponentID: "keboola.ex-aws-s3", ConfigID: "c1"},
			},
		},
	}
}

func TestService_Create(t *testing.T) {
	service := newTestService()

	flow, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)
	require.NotNil(t, flow)

	assert.NotEmpty(t, flow.ConfigurationID)
	assert.Equal(t, "Nightly ELT", flow.Name)
	assert.Equal(t, 1, flow.Version)
	assert.Equal(t, models.FlowTypeOrchestrator, flow.FlowType)

	require.Len(t, flow.Configuration.Tasks, 1)
	assert.Equal(t, models.IntID(20001), flow.Configuration.Tasks[0].ID)
	assert.Equal(t, models.TaskModeRun, flow.Configuration.Tasks[0].Task.Mode)
}

func TestService_Create_RejectsConditionalAuthoring(t *testing.T) {
	service := newTestService()

	req := testCreateRequest()
	req.FlowType = models.FlowTypeConditional

	flow, err := service.Create(t.Context(), req)
	assert.Nil(t, flow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFlowType)
	assert.True(t, IsValidationError(err))
}

func TestService_Create_RejectsInvalidGraph(t *testing.T) {
	service := newTestService()

	req := testCreateRequest()
	req.Phases[0].DependsOn = []models.NodeID{models.IntID(2)}

	flow, err := service.Create(t.Context(), req)
	assert.Nil(t, flow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicDependency)
}

func TestService_Get(t *testing.T) {
	service := newTestService()

	created, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	fetched, err := service.Get(t.Context(), created.ConfigurationID)
	require.NoError(t, err)

	assert.Equal(t, created.ConfigurationID, fetched.ConfigurationID)
	assert.Equal(t, "Nightly ELT", fetched.Name)
	assert.Len(t, fetched.Configuration.Phases, 2)
}

func TestService_Get_NotFound(t *testing.T) {
	service := newTestService()

	flow, err := service.Get(t.Context(), "missing")
	assert.Nil(t, flow)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestService_Update(t *testing.T) {
	service := newTestService()

	created, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ConfigurationID, UpdateFlowRequest{
		FlowType: models.FlowTypeOrchestrator,
		Name:     "Nightly ELT v2",
		Phases: []models.Phase{
			{ID: models.IntID(1), Name: "Extract"},
		},
		Tasks: []models.Task{
			{
				Name:  "Pull files",
				Phase: models.IntID(1),
				Task:  models.TaskPayload{ComponentID: "keboola.ex-aws-s3"},
			},
		},
		ChangeDescription: "Dropped the load phase",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nightly ELT v2", updated.Name)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Dropped the load phase", updated.ChangeDescription)
	assert.Len(t, updated.Configuration.Phases, 1)
}

func TestService_Update_NotFound(t *testing.T) {
	service := newTestService()

	req := testCreateRequest()

	flow, err := service.Update(t.Context(), "missing", UpdateFlowRequest{
		FlowType: req.FlowType,
		Name:     req.Name,
		Phases:   req.Phases,
		Tasks:    req.Tasks,
	})
	assert.Nil(t, flow)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestService_List(t *testing.T) {
	service := newTestService()

	first, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	second := testCreateRequest()
	second.Name = "Hourly sync"

	_, err = service.Create(t.Context(), second)
	require.NoError(t, err)

	summaries, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	filtered, err := service.List(t.Context(), first.ConfigurationID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ConfigurationID, filtered[0].ConfigurationID)
	assert.Equal(t, 2, filtered[0].PhasesCount)
	assert.Equal(t, 1, filtered[0].TasksCount)
}

func TestService_List_SkipsUnknownIDs(t *testing.T) {
	service := newTestService()

	created, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	summaries, err := service.List(t.Context(), "missing", created.ConfigurationID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, created.ConfigurationID, summaries[0].ConfigurationID)
}

func TestService_Create_TagsAuthorship(t *testing.T) {
	service := newTestService()

	created, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	fetched, err := service.Get(t.Context(), created.ConfigurationID)
	require.NoError(t, err)

	require.Len(t, fetched.Metadata, 1)
	assert.Equal(t, "flowkit.createdBy", fetched.Metadata[0].Key)
	assert.Equal(t, "true", fetched.Metadata[0].Value)
}

func TestService_Update_TagsVersion(t *testing.T) {
	service := newTestService()

	created, err := service.Create(t.Context(), testCreateRequest())
	require.NoError(t, err)

	req := testCreateRequest()

	_, err = service.Update(t.Context(), created.ConfigurationID, UpdateFlowRequest{
		FlowType: req.FlowType,
		Name:     req.Name,
		Phases:   req.Phases,
		Tasks:    req.Tasks,
	})
	require.NoError(t, err)

	fetched, err := service.Get(t.Context(), created.ConfigurationID)
	require.NoError(t, err)

	require.Len(t, fetched.Metadata, 2)
	assert.Equal(t, "flowkit.updatedBy.version.2", fetched.Metadata[1].Key)
}
