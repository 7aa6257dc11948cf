package memory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
)

func schedulerPayload(t *testing.T, cronTab string) json.RawMessage {
	t.Helper()

	payload, err := json.Marshal(platform.SchedulerConfigPayload{
		Schedule: platform.ScheduleConfig{
			CronTab:  cronTab,
			Timezone: "UTC",
			State:    models.ScheduleStateEnabled,
		},
		Target: platform.ScheduleTarget{
			ComponentID:     "keboola.ex-aws-s3",
			ConfigurationID: "c1",
			Mode:            models.TaskModeRun,
		},
	})
	require.NoError(t, err)

	return payload
}

func TestBackend_ConfigLifecycle(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), "keboola.orchestrator", platform.CreateConfigRequest{
		Name:          "Nightly ELT",
		Configuration: json.RawMessage(`{"phases":[],"tasks":[]}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)

	fetched, err := backend.GetConfig(t.Context(), "keboola.orchestrator", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nightly ELT", fetched.Name)

	// A configuration is scoped to its component.
	_, err = backend.GetConfig(t.Context(), "keboola.flow", created.ID)
	assert.True(t, platform.IsNotFound(err))

	updated, err := backend.UpdateConfig(t.Context(), "keboola.orchestrator", created.ID, platform.UpdateConfigRequest{
		Name:              "Nightly ELT v2",
		ChangeDescription: "Renamed",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Nightly ELT v2", updated.Name)
	assert.Equal(t, "Renamed", updated.ChangeDescription)

	listed, err := backend.ListConfigs(t.Context(), "keboola.orchestrator")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, backend.DeleteConfig(t.Context(), "keboola.orchestrator", created.ID))
	assert.True(t, platform.IsNotFound(backend.DeleteConfig(t.Context(), "keboola.orchestrator", created.ID)))
}

func TestBackend_AppendConfigMetadata(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), "keboola.orchestrator", platform.CreateConfigRequest{
		Name: "Nightly ELT",
	})
	require.NoError(t, err)

	err = backend.AppendConfigMetadata(t.Context(), "keboola.orchestrator", created.ID, []models.MetadataEntry{
		{Key: "flowkit.createdBy", Value: "true", Provider: "flowkit"},
	})
	require.NoError(t, err)

	fetched, err := backend.GetConfig(t.Context(), "keboola.orchestrator", created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Metadata, 1)
	assert.Equal(t, "flowkit.createdBy", fetched.Metadata[0].Key)
	assert.NotEmpty(t, fetched.Metadata[0].Timestamp)
}

func TestBackend_ActivateSchedule(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), platform.ComponentScheduler, platform.CreateConfigRequest{
		Name:          "Schedule for c1",
		Configuration: schedulerPayload(t, "0 8 * * *"),
	})
	require.NoError(t, err)

	record, err := backend.ActivateSchedule(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, record.ConfigurationID)
	assert.Equal(t, "1", record.ConfigurationVersionID)
	assert.Equal(t, "0 8 * * *", record.Schedule.CronTab)
}

func TestBackend_ActivateSchedule_Reconciles(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), platform.ComponentScheduler, platform.CreateConfigRequest{
		Configuration: schedulerPayload(t, "0 8 * * *"),
	})
	require.NoError(t, err)

	first, err := backend.ActivateSchedule(t.Context(), created.ID)
	require.NoError(t, err)

	_, err = backend.UpdateConfig(t.Context(), platform.ComponentScheduler, created.ID, platform.UpdateConfigRequest{
		Configuration: schedulerPayload(t, "0 12 * * *"),
	})
	require.NoError(t, err)

	second, err := backend.ActivateSchedule(t.Context(), created.ID)
	require.NoError(t, err)

	// Re-activation updates the existing record instead of adding one.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2", second.ConfigurationVersionID)
	assert.Equal(t, "0 12 * * *", second.Schedule.CronTab)

	records, err := backend.ListSchedulesByConfig(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestBackend_ActivateSchedule_RejectsBadPayload(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), platform.ComponentScheduler, platform.CreateConfigRequest{
		Configuration: json.RawMessage(`{"schedule":{"cronTab":"not a cron"}}`),
	})
	require.NoError(t, err)

	_, err = backend.ActivateSchedule(t.Context(), created.ID)
	assert.ErrorIs(t, err, models.ErrInvalidCronTab)
}

func TestBackend_ScheduleQueriesAndDeactivation(t *testing.T) {
	backend := NewBackend()

	created, err := backend.CreateConfig(t.Context(), platform.ComponentScheduler, platform.CreateConfigRequest{
		Configuration: schedulerPayload(t, "0 8 * * *"),
	})
	require.NoError(t, err)

	record, err := backend.ActivateSchedule(t.Context(), created.ID)
	require.NoError(t, err)

	byTarget, err := backend.ListSchedulesByTarget(t.Context(), "keboola.ex-aws-s3", "c1")
	require.NoError(t, err)
	assert.Len(t, byTarget, 1)

	fetched, err := backend.GetSchedule(t.Context(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, fetched.ID)

	require.NoError(t, backend.DeactivateSchedule(t.Context(), record.ID))
	assert.True(t, platform.IsNotFound(backend.DeactivateSchedule(t.Context(), record.ID)))
}
