// Package main provides the Flowkit API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/keboola/flowkit/pkg/flows"
	"github.com/keboola/flowkit/pkg/platform"
	"github.com/keboola/flowkit/pkg/schedules"
	"github.com/keboola/flowkit/pkg/web"
)

type API struct {
	logger    *slog.Logger
	storage   platform.StorageAPI
	scheduler platform.SchedulerAPI
	validate  *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	storage platform.StorageAPI,
	scheduler platform.SchedulerAPI,
) *API {
	return &API{
		logger:    logger,
		storage:   storage,
		scheduler: scheduler,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	flowService := flows.NewService(a.storage, a.logger)
	scheduleService := schedules.NewService(a.storage, a.scheduler, a.logger)

	handlers := web.NewAPIHandlers(flowService, scheduleService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowkit API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
