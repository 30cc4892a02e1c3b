package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/task-crud-demo/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the task module configuration.
type Config struct {
	DBPath  string
	DBDebug bool
}

// Module provides task management backed by GORM + SQLite.
type Module struct {
	db       *gorm.DB
	repo     *domain.Repository
	service  *Service
	eventBus mono.EventBus
	config   Config
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates a new task module.
func NewModule(config Config, logger types.Logger) *Module {
	if config.DBPath == "" {
		config.DBPath = "tasks.db"
	}
	return &Module{
		config: config,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		TaskCreatedV1.ToBase(),
		TaskUpdatedV1.ToBase(),
		TaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
// Names are prefixed by the framework, so "list" is served on "services.task.list".
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.task.{list,create,update,delete}")
	return nil
}

// Start opens the database, runs migrations and creates the service.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Connecting to SQLite database", "path", m.config.DBPath)

	logLevel := logger.Warn
	if m.config.DBDebug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.config.DBPath), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: domain.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db
	m.repo = domain.NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, task events will not be published")
	}
	m.service = NewService(m.repo, m.eventBus, m.logger)

	m.logger.Info("Module started")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Info("Database connection closed")
	return nil
}

// Health performs a health check on the task module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.config.DBPath,
		},
	}
}

// Service returns the task service. It is nil until the module has started.
func (m *Module) Service() *Service {
	return m.service
}

// listTasks handles the task.list service request.
func (m *Module) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.List(ctx)
	if err != nil {
		return ListTasksResponse{}, m.serviceError(OpList, err)
	}
	return ListTasksResponse{
		Tasks: ToTaskResponses(tasks),
		Total: len(tasks),
	}, nil
}

// createTask handles the task.create service request.
func (m *Module) createTask(ctx context.Context, req json.RawMessage, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskResponse{}, m.serviceError(OpCreate, err)
	}
	return ToTaskResponse(task), nil
}

// updateTask handles the task.update service request.
func (m *Module) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Update(ctx, req.ID, req.Fields)
	if err != nil {
		return TaskResponse{}, m.serviceError(OpUpdate, err)
	}
	return ToTaskResponse(task), nil
}

// deleteTask handles the task.delete service request.
func (m *Module) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.ID); err != nil {
		return DeleteTaskResponse{Deleted: false, ID: req.ID}, m.serviceError(OpDelete, err)
	}
	return DeleteTaskResponse{Deleted: true, ID: req.ID}, nil
}

// serviceError flattens persistence failures to the generic message for op.
// Validation and not-found errors pass through unchanged.
func (m *Module) serviceError(op Op, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrTaskNotFound) {
		return err
	}
	m.logger.Error("Task service request failed", "op", string(op), "error", err)
	return errors.New(op.FailureMessage())
}
