package api

import (
	"context"
	"fmt"
	"time"

	taskmod "github.com/example/task-crud-demo/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Config holds the HTTP module configuration.
type Config struct {
	Port        int
	CORSOrigins string
	AccessLog   bool
}

// Module exposes the task service over HTTP using Fiber.
type Module struct {
	app        *fiber.App
	handlers   *Handlers
	taskModule *taskmod.Module
	config     Config
	logger     types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new HTTP module.
func NewModule(config Config, logger types.Logger) *Module {
	if config.CORSOrigins == "" {
		config.CORSOrigins = "http://localhost:3000,http://localhost:8080"
	}
	return &Module{
		config: config,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetTaskModule sets the task module dependency.
// The task module must be registered before this one so it is started first.
func (m *Module) SetTaskModule(tm *taskmod.Module) {
	m.taskModule = tm
}

// Start builds the Fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return fmt.Errorf("task module not set")
	}

	service := m.taskModule.Service()
	if service == nil {
		return fmt.Errorf("task service not available")
	}

	m.handlers = NewHandlers(service, m.taskModule, m.logger)
	m.app = newApp(m.handlers, m.config, m.errorHandler)

	addr := fmt.Sprintf(":%d", m.config.Port)

	// Catch immediate listen failures such as a port already in use.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "server not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"port": m.config.Port,
		},
	}
}

// newApp creates the Fiber app with its middleware stack and routes.
func newApp(h *Handlers, config Config, errorHandler fiber.ErrorHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Task CRUD Demo",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if config.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency} ${respHeader:X-Request-ID}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	registerRoutes(app, h)
	return app
}

// registerRoutes configures all HTTP routes.
func registerRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.HealthCheck)

	tasks := app.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Post("/", h.CreateTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
}

// errorHandler handles errors that escape the route handlers, such as
// unknown routes and recovered panics.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		m.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error: message,
	})
}
