// Package store owns the in-memory task collection. It is the only writer of
// task state; completion transitions are reported to a single registered
// listener (the achievement tracker).
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jward/taskmedal/pkg/model"
)

// ErrNotFound is returned when an operation names a task id that is not in
// the collection.
var ErrNotFound = errors.New("task not found")

// Transition describes a completion status change produced by Toggle.
type Transition int

const (
	// Completed: the task went Open -> Complete.
	Completed Transition = iota
	// Reopened: the task went Complete -> Open.
	Reopened
)

// Listener consumes completion transitions. Toggle is the only operation
// that fires it; Update reconciles status silently.
type Listener func(t model.Task, tr Transition)

// TaskStore keeps tasks in an explicit insertion-ordered slice. New tasks go
// to the front so the most recently added task is surfaced first.
type TaskStore struct {
	tasks    []model.Task
	listener Listener
	now      func() time.Time
	newID    func() string
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Subscribe registers the completion-transition listener. At most one
// listener is supported; a second call replaces the first.
func (s *TaskStore) Subscribe(l Listener) {
	s.listener = l
}

// List returns a snapshot of the collection, front (newest) first.
func (s *TaskStore) List() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (model.Task, error) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i], nil
}

// Len reports the number of tasks held.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// Add validates the draft, assigns identity and creation time, and inserts
// the new task at the front of the collection. A draft arriving with status
// Complete gets a CompletedAt stamp so the invariant holds from birth.
func (s *TaskStore) Add(d model.Draft) (model.Task, error) {
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}

	status := d.Status
	if status == "" {
		status = model.StatusOpen
	}
	priority, _ := model.ParsePriority(string(d.Priority))

	t := model.Task{
		ID:          s.newID(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		DueTime:     d.DueTime,
		Priority:    priority,
		Status:      status,
		CreatedAt:   s.now(),
	}
	if t.Status == model.StatusComplete {
		now := s.now()
		t.CompletedAt = &now
	}

	s.tasks = append([]model.Task{t}, s.tasks...)
	return t, nil
}

// Update replaces every mutable field of the identified task with the
// draft's values, preserving ID and CreatedAt. A status change through this
// path reconciles CompletedAt but does not count toward achievements.
func (s *TaskStore) Update(id string, d model.Draft) (model.Task, error) {
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	i := s.index(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := s.tasks[i]
	status := d.Status
	if status == "" {
		status = prev.Status
	}
	priority, _ := model.ParsePriority(string(d.Priority))

	next := model.Task{
		ID:          prev.ID,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		DueTime:     d.DueTime,
		Priority:    priority,
		Status:      status,
		CreatedAt:   prev.CreatedAt,
		CompletedAt: prev.CompletedAt,
	}
	if next.Status != prev.Status {
		if next.Status == model.StatusComplete {
			now := s.now()
			next.CompletedAt = &now
		} else {
			next.CompletedAt = nil
		}
	}

	s.tasks[i] = next
	return next, nil
}

// Remove excises the task. Removing a completed task never rolls back the
// lifetime completion counter; the counter records historical events, not
// the current completed-task census.
func (s *TaskStore) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// Toggle flips the task between Open and Complete, stamps or clears
// CompletedAt, and notifies the listener. This is the only path with
// achievement side effects.
func (s *TaskStore) Toggle(id string) (model.Task, error) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	t := s.tasks[i]
	var tr Transition
	if t.Status == model.StatusOpen {
		now := s.now()
		t.Status = model.StatusComplete
		t.CompletedAt = &now
		tr = Completed
	} else {
		t.Status = model.StatusOpen
		t.CompletedAt = nil
		tr = Reopened
	}
	s.tasks[i] = t

	if s.listener != nil {
		s.listener(t, tr)
	}
	return t, nil
}

// Replace swaps in a whole new collection. Used by the engine's seeding path.
func (s *TaskStore) Replace(tasks []model.Task) {
	s.tasks = make([]model.Task, len(tasks))
	copy(s.tasks, tasks)
}

func (s *TaskStore) index(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
