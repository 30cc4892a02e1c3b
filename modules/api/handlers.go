package api

import (
	"context"
	"errors"
	"strconv"

	domain "github.com/example/task-crud-demo/domain/task"
	taskmod "github.com/example/task-crud-demo/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// TaskService is the task capability the handlers call into.
// *taskmod.Service implements it.
type TaskService interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, body []byte) (*domain.Task, error)
	Update(ctx context.Context, id uint, body []byte) (*domain.Task, error)
	Delete(ctx context.Context, id uint) error
}

// HealthChecker reports the health of a dependency.
type HealthChecker interface {
	Health(ctx context.Context) mono.HealthStatus
}

// Handlers contains the HTTP request handlers for tasks.
type Handlers struct {
	tasks  TaskService
	health HealthChecker
	logger types.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(tasks TaskService, health HealthChecker, logger types.Logger) *Handlers {
	return &Handlers{
		tasks:  tasks,
		health: health,
		logger: logger,
	}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	status := h.health.Health(c.UserContext())
	if !status.Healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:  "unhealthy",
			Message: status.Message,
		})
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: status.Details,
	})
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.UserContext())
	if err != nil {
		return h.respondError(c, taskmod.OpList, err)
	}
	return c.JSON(taskmod.ToTaskResponses(tasks))
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	task, err := h.tasks.Create(c.UserContext(), c.Body())
	if err != nil {
		return h.respondError(c, taskmod.OpCreate, err)
	}
	return c.Status(fiber.StatusCreated).JSON(taskmod.ToTaskResponse(task))
}

// UpdateTask handles PUT and PATCH /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, ok := parseTaskID(c)
	if !ok {
		return h.respondError(c, taskmod.OpUpdate, taskmod.ErrTaskNotFound)
	}

	task, err := h.tasks.Update(c.UserContext(), id, c.Body())
	if err != nil {
		return h.respondError(c, taskmod.OpUpdate, err)
	}
	return c.JSON(taskmod.ToTaskResponse(task))
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, ok := parseTaskID(c)
	if !ok {
		return h.respondError(c, taskmod.OpDelete, taskmod.ErrTaskNotFound)
	}

	if err := h.tasks.Delete(c.UserContext(), id); err != nil {
		return h.respondError(c, taskmod.OpDelete, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseTaskID reads the :id route parameter. IDs start at 1, so anything
// that is not a positive integer cannot name a task.
func parseTaskID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// respondError maps a service error to its status code and body.
// Anything other than a validation or not-found error is reported with the
// generic message for op; the cause is only logged.
func (h *Handlers) respondError(c *fiber.Ctx, op taskmod.Op, err error) error {
	var verr *taskmod.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Errors: verr.Fields,
		})
	case errors.Is(err, taskmod.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Task not found",
		})
	}

	h.logger.Error("Task request failed",
		"op", string(op),
		"method", c.Method(),
		"path", c.Path(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", err)

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: op.FailureMessage(),
	})
}
