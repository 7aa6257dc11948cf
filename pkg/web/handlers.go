package web

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/schedules"
	"github.com/keboola/flowkit/pkg/schema"
)

type APIHandlers struct {
	flowService     *flows.Service
	scheduleService *schedules.Service
	validator       *validator.Validate
}

func NewAPIHandlers(
	flowService *flows.Service,
	scheduleService *schedules.Service,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowService:     flowService,
		scheduleService: scheduleService,
		validator:       validator,
	}
}

// Register mounts all flow and schedule routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	flowGroup := app.Group("/flows")
	flowGroup.Get("/", h.ListFlows)
	flowGroup.Post("/", h.CreateFlow)
	flowGroup.Get("/schema/:type", h.GetFlowSchema)
	flowGroup.Get("/:id", h.GetFlow)
	flowGroup.Put("/:id", h.UpdateFlow)

	scheduleGroup := app.Group("/schedules")
	scheduleGroup.Get("/", h.ListSchedules)
	scheduleGroup.Post("/", h.CreateSchedule)
	scheduleGroup.Put("/:id", h.UpdateSchedule)
	scheduleGroup.Delete("/:id", h.DeleteSchedule)
	scheduleGroup.Post("/:id/enable", h.EnableSchedule)
	scheduleGroup.Post("/:id/disable", h.DisableSchedule)
}

func (h *APIHandlers) ListFlows(c fiber.Ctx) error {
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	summaries, err := h.flowService.List(c.Context(), ids...)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ListFlowsResponse{Flows: summaries, Count: len(summaries)})
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.FlowType == "" {
		req.FlowType = models.FlowTypeOrchestrator
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.flowService.Create(c.Context(), flows.CreateFlowRequest{
		FlowType:    req.FlowType,
		Name:        req.Name,
		Description: req.Description,
		Phases:      req.Phases,
		Tasks:       req.Tasks,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(flow)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow configuration ID is required")
	}

	flow, err := h.flowService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow configuration ID is required")
	}

	var req UpdateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.FlowType == "" {
		req.FlowType = models.FlowTypeOrchestrator
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.flowService.Update(c.Context(), id, flows.UpdateFlowRequest{
		FlowType:          req.FlowType,
		Name:              req.Name,
		Description:       req.Description,
		Phases:            req.Phases,
		Tasks:             req.Tasks,
		ChangeDescription: req.ChangeDescription,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) GetFlowSchema(c fiber.Ctx) error {
	flowType := models.FlowType(c.Params("type"))
	if err := flowType.Validate(); err != nil {
		return badRequest(c, "Unknown flow type: "+c.Params("type"))
	}

	markdown, err := schema.AsMarkdown(flowType)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"flowType": flowType, "schema": markdown})
}

func (h *APIHandlers) ListSchedules(c fiber.Ctx) error {
	componentID := c.Query("componentId")
	configurationID := c.Query("configurationId")

	if componentID == "" || configurationID == "" {
		return badRequest(c, "componentId and configurationId query parameters are required")
	}

	details, err := h.scheduleService.ListForTarget(c.Context(), componentID, configurationID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ListSchedulesResponse{Schedules: details, Count: len(details)})
}

func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	detail, err := h.scheduleService.Create(c.Context(), schedules.CreateRequest{
		TargetComponentID:     req.TargetComponentID,
		TargetConfigurationID: req.TargetConfigurationID,
		CronTab:               req.CronTab,
		Timezone:              req.Timezone,
		State:                 req.State,
		Name:                  req.Name,
		Description:           req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(detail)
}

func (h *APIHandlers) UpdateSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule configuration ID is required")
	}

	var req UpdateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	detail, err := h.scheduleService.Update(c.Context(), id, schedules.UpdateRequest{
		CronTab:           req.CronTab,
		Timezone:          req.Timezone,
		State:             req.State,
		ChangeDescription: req.ChangeDescription,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(detail)
}

func (h *APIHandlers) EnableSchedule(c fiber.Ctx) error {
	return h.setScheduleState(c, models.ScheduleStateEnabled)
}

func (h *APIHandlers) DisableSchedule(c fiber.Ctx) error {
	return h.setScheduleState(c, models.ScheduleStateDisabled)
}

func (h *APIHandlers) setScheduleState(c fiber.Ctx, state models.ScheduleState) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule configuration ID is required")
	}

	detail, err := h.scheduleService.SetState(c.Context(), id, state)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(detail)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule configuration ID is required")
	}

	if err := h.scheduleService.Remove(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
