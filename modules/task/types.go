package task

import (
	"encoding/json"
	"time"

	domain "github.com/example/task-crud-demo/domain/task"
)

// TimestampFormat is the wire format of created_at and updated_at.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// TaskResponse is the JSON representation of a task.
type TaskResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ListTasksRequest is the request for the list service.
type ListTasksRequest struct{}

// ListTasksResponse is the response of the list service.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// UpdateTaskRequest is the request for the update service.
// Fields carries the same JSON object accepted by PATCH /tasks/:id.
type UpdateTaskRequest struct {
	ID     uint            `json:"id"`
	Fields json.RawMessage `json:"fields"`
}

// DeleteTaskRequest is the request for the delete service.
type DeleteTaskRequest struct {
	ID uint `json:"id"`
}

// DeleteTaskResponse is the response of the delete service.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
	ID      uint `json:"id"`
}

// ToTaskResponse converts a Task entity to its JSON representation.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   formatTimestamp(task.CreatedAt),
		UpdatedAt:   formatTimestamp(task.UpdatedAt),
	}
}

// ToTaskResponses converts a slice of Task entities, never returning nil.
func ToTaskResponses(tasks []domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, ToTaskResponse(&tasks[i]))
	}
	return responses
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
