package task

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/task-crud-demo/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Store is the persistence capability the service needs.
// *domain.Repository implements it.
type Store interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id uint) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uint) error
}

// Service implements the task operations. Every error it returns is a
// *ValidationError, ErrTaskNotFound or a *PersistenceError.
type Service struct {
	store    Store
	eventBus mono.EventBus
	logger   types.Logger
	now      func() time.Time
}

// NewService creates a task service. eventBus may be nil, in which case no
// events are published.
func NewService(store Store, eventBus mono.EventBus, logger types.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		now:      domain.Now,
	}
}

// List returns all tasks, most recently created first.
func (s *Service) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: OpList, Err: err}
	}
	return tasks, nil
}

// Create validates body and stores a new, not yet completed task.
func (s *Service) Create(ctx context.Context, body []byte) (*domain.Task, error) {
	input, err := ValidateCreate(body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, &PersistenceError{Op: OpCreate, Err: err}
	}

	s.publishCreated(task)

	return task, nil
}

// Update applies the fields present in body to the task with the given id.
// The task is looked up before the body is validated, so an unknown id is
// reported as not found even when the body is invalid.
func (s *Service) Update(ctx context.Context, id uint, body []byte) (*domain.Task, error) {
	task, err := s.find(ctx, OpUpdate, id)
	if err != nil {
		return nil, err
	}

	input, err := ValidateUpdate(body)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.HasDescription {
		task.Description = input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}

	// updated_at must move forward even within one clock tick.
	now := s.now()
	if !now.After(task.UpdatedAt) {
		now = task.UpdatedAt.Add(time.Microsecond)
	}
	task.UpdatedAt = now

	if err := s.store.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, &PersistenceError{Op: OpUpdate, Err: err}
	}

	s.publishUpdated(task)

	return task, nil
}

// Delete permanently removes the task with the given id.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if _, err := s.find(ctx, OpDelete, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrTaskNotFound
		}
		return &PersistenceError{Op: OpDelete, Err: err}
	}

	s.publishDeleted(id)

	return nil
}

// find resolves id to a stored task on behalf of op.
func (s *Service) find(ctx context.Context, op Op, id uint) (*domain.Task, error) {
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return task, nil
}

// Event publishing is best-effort; failures are logged and never fail the operation.

func (s *Service) publishCreated(task *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := TaskCreatedEvent{
		TaskID:    task.ID,
		Title:     task.Title,
		CreatedAt: task.CreatedAt,
	}
	if err := TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
		s.logger.Warn("Failed to publish TaskCreated event", "task_id", task.ID, "error", err)
	}
}

func (s *Service) publishUpdated(task *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := TaskUpdatedEvent{
		TaskID:    task.ID,
		Title:     task.Title,
		Completed: task.Completed,
		UpdatedAt: task.UpdatedAt,
	}
	if err := TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
		s.logger.Warn("Failed to publish TaskUpdated event", "task_id", task.ID, "error", err)
	}
}

func (s *Service) publishDeleted(id uint) {
	if s.eventBus == nil {
		return
	}
	event := TaskDeletedEvent{
		TaskID:    id,
		DeletedAt: s.now(),
	}
	if err := TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
		s.logger.Warn("Failed to publish TaskDeleted event", "task_id", id, "error", err)
	}
}
