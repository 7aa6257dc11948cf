package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform/memory"
)

func setupTestApp() *fiber.App {
	backend := memory.NewBackend()

	api := NewAPI(slog.Default(), backend, backend)

	return api.App()
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp()

	resp, body := doJSON(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Flowkit API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp()

	resp, _ := doJSON(t, app, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_ListFlows_Empty(t *testing.T) {
	app := setupTestApp()

	resp, body := doJSON(t, app, http.MethodGet, "/flows", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Flows []models.FlowSummary `json:"flows"`
		Count int                  `json:"count"`
	}

	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Empty(t, listing.Flows)
	assert.Zero(t, listing.Count)
}

func TestAPI_CreateFlow_InvalidGraph(t *testing.T) {
	app := setupTestApp()

	resp, body := doJSON(t, app, http.MethodPost, "/flows", map[string]any{
		"name": "Broken",
		"phases": []map[string]any{
			{"id": 1, "name": "A", "dependsOn": []any{2}},
			{"id": 2, "name": "B", "dependsOn": []any{1}},
		},
		"tasks": []map[string]any{},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "circular dependency")
}

func TestAPI_GetFlowSchema(t *testing.T) {
	app := setupTestApp()

	resp, body := doJSON(t, app, http.MethodGet, "/flows/schema/keboola.orchestrator", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "phases")

	resp, _ = doJSON(t, app, http.MethodGet, "/flows/schema/keboola.unknown", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetFlow_NotFound(t *testing.T) {
	app := setupTestApp()

	resp, _ := doJSON(t, app, http.MethodGet, "/flows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListSchedules_RequiresTarget(t *testing.T) {
	app := setupTestApp()

	resp, _ := doJSON(t, app, http.MethodGet, "/schedules", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestAPI_FlowAndScheduleLifecycle drives the whole surface end to end: author
// a flow, schedule its extractor target daily, reschedule it to noon disabled,
// then remove the schedule.
func TestAPI_FlowAndScheduleLifecycle(t *testing.T) {
	app := setupTestApp()

	// Author a two-phase flow; the task id is assigned automatically.
	resp, body := doJSON(t, app, http.MethodPost, "/flows", map[string]any{
		"name":        "Nightly ELT",
		"description": "Pull S3 files every morning",
		"phases": []map[string]any{
			{"id": 1, "name": "A"},
			{"id": 2, "name": "B", "dependsOn": []any{1}},
		},
		"tasks": []map[string]any{
			{
				"name":  "Pull files",
				"phase": 1,
				"task": map[string]any{
					"componentId": "keboola.ex-aws-s3",
					"configId":    "c1",
				},
			},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var flow models.Flow

	require.NoError(t, json.Unmarshal(body, &flow))
	assert.NotEmpty(t, flow.ConfigurationID)
	require.Len(t, flow.Configuration.Tasks, 1)
	assert.Equal(t, models.IntID(20001), flow.Configuration.Tasks[0].ID)
	assert.Equal(t, models.TaskModeRun, flow.Configuration.Tasks[0].Task.Mode)

	// Fetch it back.
	resp, body = doJSON(t, app, http.MethodGet, "/flows/"+flow.ConfigurationID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Flow

	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Nightly ELT", fetched.Name)

	// Schedule the extractor daily at 08:00.
	resp, body = doJSON(t, app, http.MethodPost, "/schedules", map[string]any{
		"targetComponentId":     "keboola.ex-aws-s3",
		"targetConfigurationId": "c1",
		"cronTab":               "0 8 * * *",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var schedule models.ScheduleDetail

	require.NoError(t, json.Unmarshal(body, &schedule))
	assert.Equal(t, models.ScheduleStateEnabled, schedule.State)
	require.NotNil(t, schedule.Schedule)
	assert.Equal(t, models.ScheduleTypeDaily, schedule.Schedule.Type)

	// Move it to noon and disable it.
	resp, body = doJSON(t, app, http.MethodPut, "/schedules/"+schedule.ConfigurationID, map[string]any{
		"cronTab": "0 12 * * *",
		"state":   "disabled",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var updated models.ScheduleDetail

	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "0 12 * * *", updated.CronTab)
	assert.Equal(t, models.ScheduleStateDisabled, updated.State)

	// It is still listed for the target.
	resp, body = doJSON(t, app, http.MethodGet,
		"/schedules?componentId=keboola.ex-aws-s3&configurationId=c1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Schedules []models.ScheduleDetail `json:"schedules"`
		Count     int                     `json:"count"`
	}

	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 1, listing.Count)

	// Remove it; removal is idempotent.
	resp, _ = doJSON(t, app, http.MethodDelete, "/schedules/"+schedule.ConfigurationID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/schedules/"+schedule.ConfigurationID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet,
		"/schedules?componentId=keboola.ex-aws-s3&configurationId=c1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Zero(t, listing.Count)
}

func TestAPI_CreateSchedule_RejectsBadCron(t *testing.T) {
	app := setupTestApp()

	resp, _ := doJSON(t, app, http.MethodPost, "/schedules", map[string]any{
		"targetComponentId":     "keboola.ex-aws-s3",
		"targetConfigurationId": "c1",
		"cronTab":               "not a cron",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_UpdateSchedule_NotFound(t *testing.T) {
	app := setupTestApp()

	resp, _ := doJSON(t, app, http.MethodPut, "/schedules/missing", map[string]any{
		"cronTab": "0 8 * * *",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
