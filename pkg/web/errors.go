package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/models"
	"github.com/keboola/flowkit/pkg/platform"
	"github.com/keboola/flowkit/pkg/schedules"
	"github.com/keboola/flowkit/pkg/schema"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps core errors onto HTTP problem responses: structural
// validation failures become 400s with the full diagnostic detail (cycle
// path, offending id, schema path) so callers can self-correct, missing
// resources become 404s, everything else a 500.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case flows.IsValidationError(err),
		schedules.IsValidationError(err),
		errors.Is(err, schema.ErrSchemaViolation),
		errors.Is(err, models.ErrInvalidCronTab),
		errors.Is(err, models.ErrInvalidWeekday),
		errors.Is(err, models.ErrInvalidScheduleState),
		errors.Is(err, models.ErrInvalidFlowType):
		return badRequest(c, err.Error())

	case errors.Is(err, flows.ErrFlowNotFound),
		errors.Is(err, schedules.ErrScheduleNotFound),
		platform.IsNotFound(err):
		return notFound(c, err.Error())

	default:
		return internalError(c, err)
	}
}
