package task

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted after a task is stored.
type TaskCreatedEvent struct {
	TaskID    uint      `json:"task_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskUpdatedEvent is emitted after a task update is stored.
type TaskUpdatedEvent struct {
	TaskID    uint      `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskDeletedEvent is emitted after a task is removed.
type TaskDeletedEvent struct {
	TaskID    uint      `json:"task_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// Event definitions for the task module.
var (
	// TaskCreatedV1 is published on subject events.task.v1.task-created.
	TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
		"task",
		"TaskCreated",
		"v1",
	)

	// TaskUpdatedV1 is published on subject events.task.v1.task-updated.
	TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
		"task",
		"TaskUpdated",
		"v1",
	)

	// TaskDeletedV1 is published on subject events.task.v1.task-deleted.
	TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
		"task",
		"TaskDeleted",
		"v1",
	)
)
