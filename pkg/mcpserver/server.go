// Package mcpserver exposes the flow and schedule services as agent tools
// over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/schedules"
	"github.com/keboola/flowkit/pkg/schema"
)

type Server struct {
	mcpServer       *server.MCPServer
	flowService     *flows.Service
	scheduleService *schedules.Service
	logger          *slog.Logger
}

func NewServer(flowService *flows.Service, scheduleService *schedules.Service, logger *slog.Logger) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"flowkit",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		flowService:     flowService,
		scheduleService: scheduleService,
		logger:          logger,
	}

	s.registerTools()

	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_flow",
			mcp.WithDescription("Create a new flow configuration from phases and tasks. "+
				"Phases group tasks that run in parallel; dependsOn orders phases. "+
				"Missing phase/task ids are assigned automatically."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Short, descriptive flow name")),
			mcp.WithString("description", mcp.Description("Detailed description of the flow purpose")),
			mcp.WithArray("phases", mcp.Description("Phase definitions: {id?, name, description?, dependsOn?}")),
			mcp.WithArray("tasks", mcp.Description("Task definitions: {id?, name, phase, task:{componentId, configId, mode}}")),
		),
		s.handleCreateFlow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"update_flow",
			mcp.WithDescription("Replace an existing flow's phases and tasks wholesale."),
			mcp.WithString("configuration_id", mcp.Required(), mcp.Description("ID of the flow configuration to update")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Updated flow name")),
			mcp.WithString("description", mcp.Description("Updated flow description")),
			mcp.WithArray("phases", mcp.Description("Updated phase definitions")),
			mcp.WithArray("tasks", mcp.Description("Updated task definitions")),
			mcp.WithString("change_description", mcp.Description("Description of the changes made")),
		),
		s.handleUpdateFlow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_flow",
			mcp.WithDescription("Get detailed information about a flow configuration."),
			mcp.WithString("configuration_id", mcp.Required(), mcp.Description("ID of the flow to retrieve")),
		),
		s.handleGetFlow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_flows",
			mcp.WithDescription("List flow configurations, optionally filtered by ids."),
			mcp.WithArray("flow_ids", mcp.Description("IDs of the flows to retrieve; omit for all flows")),
		),
		s.handleListFlows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_flow_schema",
			mcp.WithDescription("Return the JSON schema for a flow type as markdown. "+
				"Use it to inspect the required phase/task structure before create_flow or update_flow."),
			mcp.WithString("flow_type", mcp.Required(),
				mcp.Description("keboola.orchestrator for legacy flows, keboola.flow for conditional flows")),
		),
		s.handleGetFlowSchema,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_schedule",
			mcp.WithDescription("Create and activate a cron schedule for a component configuration."),
			mcp.WithString("target_component_id", mcp.Required(), mcp.Description("Component to execute")),
			mcp.WithString("target_configuration_id", mcp.Required(), mcp.Description("Configuration to execute")),
			mcp.WithString("cron_tab", mcp.Required(), mcp.Description("Five-field cron expression")),
			mcp.WithString("timezone", mcp.Description("IANA timezone, defaults to UTC")),
			mcp.WithString("state", mcp.Description("enabled or disabled, defaults to enabled")),
			mcp.WithString("name", mcp.Description("Schedule name")),
			mcp.WithString("description", mcp.Description("Schedule description")),
		),
		s.handleCreateSchedule,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_schedules",
			mcp.WithDescription("List schedules targeting a component configuration."),
			mcp.WithString("component_id", mcp.Required(), mcp.Description("Target component ID")),
			mcp.WithString("configuration_id", mcp.Required(), mcp.Description("Target configuration ID")),
		),
		s.handleListSchedules,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"update_schedule",
			mcp.WithDescription("Update a schedule's cron expression, timezone or state."),
			mcp.WithString("schedule_configuration_id", mcp.Required(), mcp.Description("Schedule configuration ID")),
			mcp.WithString("cron_tab", mcp.Required(), mcp.Description("Five-field cron expression")),
			mcp.WithString("timezone", mcp.Description("IANA timezone")),
			mcp.WithString("state", mcp.Description("enabled or disabled")),
			mcp.WithString("change_description", mcp.Description("Description of the change")),
		),
		s.handleUpdateSchedule,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"delete_schedule",
			mcp.WithDescription("Deactivate and delete a schedule. Safe to call on an already-removed schedule."),
			mcp.WithString("schedule_configuration_id", mcp.Required(), mcp.Description("Schedule configuration ID")),
		),
		s.handleDeleteSchedule,
	)
}

func toolArguments(request mcp.CallToolRequest) (map[string]any, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid arguments type")
	}

	return args, nil
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)

	return value
}

// decodeArg re-marshals a loosely typed argument into a typed model.
func decodeArg(args map[string]any, key string, out any) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("argument %q is not serializable: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("argument %q has invalid shape: %w", key, err)
	}

	return nil
}

func toolResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleCreateFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := stringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("Missing required parameter: name"), nil
	}

	var (
		phases []models.Phase
		tasks  []models.Task
	)

	if err := decodeArg(args, "phases", &phases); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := decodeArg(args, "tasks", &tasks); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	flow, err := s.flowService.Create(ctx, flows.CreateFlowRequest{
		FlowType:    models.FlowTypeOrchestrator,
		Name:        name,
		Description: stringArg(args, "description"),
		Phases:      phases,
		Tasks:       tasks,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create flow: %v", err)), nil
	}

	return toolResult(flow)
}

func (s *Server) handleUpdateFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	configurationID := stringArg(args, "configuration_id")
	if configurationID == "" {
		return mcp.NewToolResultError("Missing required parameter: configuration_id"), nil
	}

	name := stringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("Missing required parameter: name"), nil
	}

	var (
		phases []models.Phase
		tasks  []models.Task
	)

	if err := decodeArg(args, "phases", &phases); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := decodeArg(args, "tasks", &tasks); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	flow, err := s.flowService.Update(ctx, configurationID, flows.UpdateFlowRequest{
		FlowType:          models.FlowTypeOrchestrator,
		Name:              name,
		Description:       stringArg(args, "description"),
		Phases:            phases,
		Tasks:             tasks,
		ChangeDescription: stringArg(args, "change_description"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update flow: %v", err)), nil
	}

	return toolResult(flow)
}

func (s *Server) handleGetFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	configurationID := stringArg(args, "configuration_id")
	if configurationID == "" {
		return mcp.NewToolResultError("Missing required parameter: configuration_id"), nil
	}

	flow, err := s.flowService.Get(ctx, configurationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get flow: %v", err)), nil
	}

	return toolResult(flow)
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var flowIDs []string
	if err := decodeArg(args, "flow_ids", &flowIDs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries, err := s.flowService.List(ctx, flowIDs...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list flows: %v", err)), nil
	}

	return toolResult(map[string]any{"flows": summaries, "count": len(summaries)})
}

func (s *Server) handleGetFlowSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	flowType := models.FlowType(stringArg(args, "flow_type"))
	if err := flowType.Validate(); err != nil {
		return mcp.NewToolResultError("Unknown flow type: " + flowType.String()), nil
	}

	markdown, err := schema.AsMarkdown(flowType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load schema: %v", err)), nil
	}

	return mcp.NewToolResultText(markdown), nil
}

func (s *Server) handleCreateSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail, err := s.scheduleService.Create(ctx, schedules.CreateRequest{
		TargetComponentID:     stringArg(args, "target_component_id"),
		TargetConfigurationID: stringArg(args, "target_configuration_id"),
		CronTab:               stringArg(args, "cron_tab"),
		Timezone:              stringArg(args, "timezone"),
		State:                 models.ScheduleState(stringArg(args, "state")),
		Name:                  stringArg(args, "name"),
		Description:           stringArg(args, "description"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create schedule: %v", err)), nil
	}

	return toolResult(detail)
}

func (s *Server) handleListSchedules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	componentID := stringArg(args, "component_id")
	configurationID := stringArg(args, "configuration_id")

	if componentID == "" || configurationID == "" {
		return mcp.NewToolResultError("Missing required parameters: component_id, configuration_id"), nil
	}

	details, err := s.scheduleService.ListForTarget(ctx, componentID, configurationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list schedules: %v", err)), nil
	}

	return toolResult(map[string]any{"schedules": details, "count": len(details)})
}

func (s *Server) handleUpdateSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	configurationID := stringArg(args, "schedule_configuration_id")
	if configurationID == "" {
		return mcp.NewToolResultError("Missing required parameter: schedule_configuration_id"), nil
	}

	detail, err := s.scheduleService.Update(ctx, configurationID, schedules.UpdateRequest{
		CronTab:           stringArg(args, "cron_tab"),
		Timezone:          stringArg(args, "timezone"),
		State:             models.ScheduleState(stringArg(args, "state")),
		ChangeDescription: stringArg(args, "change_description"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update schedule: %v", err)), nil
	}

	return toolResult(detail)
}

func (s *Server) handleDeleteSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := toolArguments(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	configurationID := stringArg(args, "schedule_configuration_id")
	if configurationID == "" {
		return mcp.NewToolResultError("Missing required parameter: schedule_configuration_id"), nil
	}

	if err := s.scheduleService.Remove(ctx, configurationID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete schedule: %v", err)), nil
	}

	return toolResult(map[string]any{"deleted": true, "configurationId": configurationID})
}
