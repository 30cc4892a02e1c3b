package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a task is not found.
var ErrNotFound = errors.New("task not found")

// Repository provides database operations for tasks.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the tasks table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Task{})
}

// Create inserts a new task. GORM assigns the ID and fills zero timestamps.
func (r *Repository) Create(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*Task, error) {
	var task Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List retrieves all tasks, most recently created first.
// Tasks sharing a created_at are ordered by descending ID.
func (r *Repository) List(ctx context.Context) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the mutable columns of task back to its row.
// It never inserts: a row deleted since it was loaded yields ErrNotFound.
func (r *Repository) Update(ctx context.Context, task *Task) error {
	result := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", task.ID).Updates(map[string]any{
		"title":       task.Title,
		"description": task.Description,
		"completed":   task.Completed,
		"updated_at":  task.UpdatedAt,
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a task by ID.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Task{}, id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
