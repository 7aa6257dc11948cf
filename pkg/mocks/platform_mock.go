// Package mocks provides testify mocks for the platform client interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
)

// MockStorageAPI is a mock implementation of platform.StorageAPI.
type MockStorageAPI struct {
	mock.Mock
}

func (m *MockStorageAPI) CreateConfig(
	ctx context.Context,
	component string,
	req platform.CreateConfigRequest,
) (*platform.ConfigResponse, error) {
	args := m.Called(ctx, component, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*platform.ConfigResponse), args.Error(1)
}

func (m *MockStorageAPI) UpdateConfig(
	ctx context.Context,
	component, configID string,
	req platform.UpdateConfigRequest,
) (*platform.ConfigResponse, error) {
	args := m.Called(ctx, component, configID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*platform.ConfigResponse), args.Error(1)
}

func (m *MockStorageAPI) GetConfig(
	ctx context.Context,
	component, configID string,
) (*platform.ConfigResponse, error) {
	args := m.Called(ctx, component, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*platform.ConfigResponse), args.Error(1)
}

func (m *MockStorageAPI) DeleteConfig(ctx context.Context, component, configID string) error {
	args := m.Called(ctx, component, configID)

	return args.Error(0)
}

func (m *MockStorageAPI) ListConfigs(ctx context.Context, component string) ([]*platform.ConfigResponse, error) {
	args := m.Called(ctx, component)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*platform.ConfigResponse), args.Error(1)
}

func (m *MockStorageAPI) AppendConfigMetadata(
	ctx context.Context,
	component, configID string,
	entries []models.MetadataEntry,
) error {
	args := m.Called(ctx, component, configID, entries)

	return args.Error(0)
}

// MockSchedulerAPI is a mock implementation of platform.SchedulerAPI.
type MockSchedulerAPI struct {
	mock.Mock
}

func (m *MockSchedulerAPI) ActivateSchedule(
	ctx context.Context,
	configurationID string,
) (*platform.ScheduleRecord, error) {
	args := m.Called(ctx, configurationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*platform.ScheduleRecord), args.Error(1)
}

func (m *MockSchedulerAPI) GetSchedule(ctx context.Context, scheduleID string) (*platform.ScheduleRecord, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*platform.ScheduleRecord), args.Error(1)
}

func (m *MockSchedulerAPI) ListSchedulesByConfig(
	ctx context.Context,
	configurationID string,
) ([]*platform.ScheduleRecord, error) {
	args := m.Called(ctx, configurationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*platform.ScheduleRecord), args.Error(1)
}

func (m *MockSchedulerAPI) ListSchedulesByTarget(
	ctx context.Context,
	componentID, configurationID string,
) ([]*platform.ScheduleRecord, error) {
	args := m.Called(ctx, componentID, configurationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*platform.ScheduleRecord), args.Error(1)
}

func (m *MockSchedulerAPI) DeactivateSchedule(ctx context.Context, scheduleID string) error {
	args := m.Called(ctx, scheduleID)

	return args.Error(0)
}
