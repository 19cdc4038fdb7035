package model

import (
	"errors"
	"fmt"
	"time"
)

// Priority levels for a task.
const (
	PriorityLow    = Priority("Low")
	PriorityMedium = Priority("Medium")
	PriorityHigh   = Priority("High")
)

type Priority string

// ParsePriority validates a priority string. The empty string maps to Medium
// so that drafts built from sparse input still produce a usable task.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	case "":
		return PriorityMedium, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// Task status values.
const (
	StatusOpen     = Status("Open")
	StatusComplete = Status("Complete")
)

type Status string

// ErrValidation is the sentinel for rejected drafts. Callers match it with
// errors.Is and surface the wrapped detail however they like.
var ErrValidation = errors.New("validation failed")

// Task is a single tracked item. ID and CreatedAt are assigned once at
// creation and never change; CompletedAt is non-nil exactly when Status is
// Complete.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     Date       `json:"dueDate"`
	DueTime     *Clock     `json:"dueTime,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Draft carries the caller-editable fields of a task. It is the input to both
// add and update; the store owns ID, CreatedAt and CompletedAt.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     Date     `json:"dueDate"`
	DueTime     *Clock   `json:"dueTime,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
}

// Validate rejects drafts that would produce an unusable task.
func (d *Draft) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if d.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	switch d.Status {
	case StatusOpen, StatusComplete, "":
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, d.Status)
	}
	if _, err := ParsePriority(string(d.Priority)); err != nil {
		return err
	}
	return nil
}
