// Package web provides the HTTP boundary of the engine: business-event
// intake, execution reads and manual resumption.
package web

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/journeyhq/journey/pkg/models"
	"github.com/journeyhq/journey/pkg/persistence"
	"github.com/journeyhq/journey/pkg/protocol"
	"github.com/journeyhq/journey/pkg/workflow"
)

// APIHandlers holds the dependencies of the HTTP handlers.
type APIHandlers struct {
	persistence persistence.Persistence
	launcher    *workflow.Launcher
	runner      *workflow.Runner
	recency     protocol.Recency
	validate    *validator.Validate
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(
	p persistence.Persistence,
	launcher *workflow.Launcher,
	runner *workflow.Runner,
	recency protocol.Recency,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		launcher:    launcher,
		runner:      runner,
		recency:     recency,
		validate:    validate,
	}
}

// StageEntered launches all published workflows watching the stage.
func (h *APIHandlers) StageEntered(c fiber.Ctx) error {
	var req StageEnteredRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	executionIDs, err := h.launcher.LaunchForStageEntered(c.Context(), req.SubjectID, req.ChannelID, req.StageID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(LaunchResponse{ExecutionIDs: executionIDs})
}

// AppointmentBooked launches all published appointment-triggered workflows.
func (h *APIHandlers) AppointmentBooked(c fiber.Ctx) error {
	var req AppointmentBookedRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	executionIDs, err := h.launcher.LaunchForAppointmentBooked(c.Context(), req.SubjectID, req.ChannelID, appointmentRef(req))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(LaunchResponse{ExecutionIDs: executionIDs})
}

// InboundMessage records subject activity for the has_replied condition.
func (h *APIHandlers) InboundMessage(c fiber.Ctx) error {
	var req InboundMessageRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	err := h.recency.Touch(c.Context(), req.SubjectID, at)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetWorkflows returns all workflow definitions.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

// GetWorkflow returns one workflow definition.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.persistence.WorkflowByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(wf)
}

// GetExecution returns one execution.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.persistence.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(toExecutionResponse(execution))
}

// ResumeExecution manually re-enters an execution. Safe on any id: a
// non-pending execution is a no-op.
func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.runner.Resume(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	execution, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(toExecutionResponse(execution))
}

// HealthCheck reports persistence health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

func appointmentRef(req AppointmentBookedRequest) models.AppointmentRef {
	return models.AppointmentRef{
		ID: req.AppointmentID,
		At: req.At.UTC(),
	}
}
