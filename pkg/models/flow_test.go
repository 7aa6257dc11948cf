package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_UnmarshalEnabledDefault(t *testing.T) {
	var task Task

	err := json.Unmarshal([]byte(`{"id":20001,"name":"Extract","phase":1,"task":{"componentId":"keboola.ex-aws-s3","mode":"run"}}`), &task)
	require.NoError(t, err)
	assert.True(t, task.Enabled)

	err = json.Unmarshal([]byte(`{"id":20002,"name":"Load","phase":1,"enabled":false,"task":{"componentId":"keboola.wr-db","mode":"run"}}`), &task)
	require.NoError(t, err)
	assert.False(t, task.Enabled)

	err = json.Unmarshal([]byte(`{"id":20003,"name":"Notify","phase":2,"enabled":true,"task":{"componentId":"keboola.notify","mode":"run"}}`), &task)
	require.NoError(t, err)
	assert.True(t, task.Enabled)
}

func TestFlowType_Validate(t *testing.T) {
	assert.NoError(t, FlowTypeOrchestrator.Validate())
	assert.NoError(t, FlowTypeConditional.Validate())
	assert.ErrorIs(t, FlowType("keboola.unknown").Validate(), ErrInvalidFlowType)
}

func TestFlow_Summary(t *testing.T) {
	flow := Flow{
		FlowType:        FlowTypeOrchestrator,
		ConfigurationID: "123",
		Name:            "Nightly ELT",
		Version:         4,
		Configuration: FlowConfiguration{
			Phases: []Phase{{ID: IntID(1), Name: "Extract"}, {ID: IntID(2), Name: "Load"}},
			Tasks:  []Task{{ID: IntID(20001), Name: "Pull files", Phase: IntID(1)}},
		},
	}

	summary := flow.Summary()

	assert.Equal(t, "123", summary.ConfigurationID)
	assert.Equal(t, "Nightly ELT", summary.Name)
	assert.Equal(t, 4, summary.Version)
	assert.Equal(t, 2, summary.PhasesCount)
	assert.Equal(t, 1, summary.TasksCount)
}
