// Package main provides the Journey API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/journeyhq/journey/pkg/eventbus"
	"github.com/journeyhq/journey/pkg/persistence"
	"github.com/journeyhq/journey/pkg/protocol"
	"github.com/journeyhq/journey/pkg/web"
	"github.com/journeyhq/journey/pkg/workflow"
)

type API struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	collaborators protocol.Collaborators
	eventBus      eventbus.EventBus
	validate      *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	collaborators protocol.Collaborators,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:        logger,
		persistence:   persistence,
		collaborators: collaborators,
		eventBus:      eventBus,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	executor := workflow.NewNodeExecutor(a.collaborators, a.logger)
	runner := workflow.NewRunner(a.persistence, executor, a.eventBus, nil, a.logger)
	launcher := workflow.NewLauncher(a.persistence, runner, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(a.persistence, launcher, runner, a.collaborators.Recency, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Journey API")
	})

	e := app.Group("/events")
	e.Post("/stage-entered", handlers.StageEntered)
	e.Post("/appointment-booked", handlers.AppointmentBooked)
	e.Post("/inbound-message", handlers.InboundMessage)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:id", handlers.GetWorkflow)

	x := app.Group("/executions")
	x.Get("/:id", handlers.GetExecution)
	x.Post("/:id/resume", handlers.ResumeExecution)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
