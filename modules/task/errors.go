package task

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/example/task-crud-demo/domain/task"
)

// Op identifies a task operation for error reporting.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// FailureMessage is the generic message reported to callers when op fails
// for any reason other than validation or a missing task.
func (op Op) FailureMessage() string {
	switch op {
	case OpList:
		return "Failed to retrieve tasks"
	case OpCreate:
		return "Failed to create task"
	case OpUpdate:
		return "Failed to update task"
	case OpDelete:
		return "Failed to delete task"
	default:
		return "Internal Server Error"
	}
}

// ErrTaskNotFound is returned when the referenced task does not exist.
// It wraps domain.ErrNotFound.
var ErrTaskNotFound = fmt.Errorf("%w", domain.ErrNotFound)

// ValidationError reports client input that failed field constraints.
// Fields maps a field name to its failure messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// PersistenceError wraps a datastore failure during op.
type PersistenceError struct {
	Op  Op
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s task: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
