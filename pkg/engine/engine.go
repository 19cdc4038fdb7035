// Package engine assembles the task store, achievement tracker, session
// machine and persistence coordinator into one explicit context object. The
// entry point owns a single Engine and passes it around; there are no
// package-level singletons.
package engine

import (
	"context"
	"time"

	"github.com/jward/taskmedal/pkg/achievement"
	"github.com/jward/taskmedal/pkg/auth"
	"github.com/jward/taskmedal/pkg/kv"
	"github.com/jward/taskmedal/pkg/model"
	"github.com/jward/taskmedal/pkg/persist"
	"github.com/jward/taskmedal/pkg/session"
	"github.com/jward/taskmedal/pkg/store"
)

// Engine is the running core. Construct with New; all operations are meant
// to be invoked sequentially from a single logical thread of intents.
type Engine struct {
	Tasks        *store.TaskStore
	Achievements *achievement.Tracker
	Session      *session.Machine

	coordinator *persist.Coordinator
}

// New wires the components together and restores persisted state: counter
// and medals always, the session only when the previous run was still
// logged in.
func New(bridge auth.Bridge, durable kv.Store) *Engine {
	e := &Engine{
		Tasks:        store.NewTaskStore(),
		Achievements: achievement.NewTracker(),
		Session:      session.NewMachine(bridge),
		coordinator:  persist.NewCoordinator(durable),
	}

	e.Tasks.Subscribe(e.Achievements.HandleTransition)
	e.Achievements.OnChange = e.coordinator.SaveAchievements
	e.Session.OnAuthenticated = func(p model.UserProfile) {
		e.coordinator.SaveProfile(p)
		e.seedIfEmpty()
	}
	e.Session.OnLoggedOut = e.coordinator.MarkLoggedOut

	st := e.coordinator.Load()
	e.Achievements.Restore(st.CompletedCount, st.Medals)
	if st.LoggedIn {
		e.Session.Restore(st.Profile)
	}
	return e
}

// Login runs the full authentication exchange. A call while an exchange is
// already in flight is a no-op.
func (e *Engine) Login(ctx context.Context) error {
	return e.Session.Login(ctx)
}

// Logout drops the session. Counter and medals survive: they are lifetime
// achievement, not session data.
func (e *Engine) Logout() {
	e.Session.Logout()
}

// UpdateProfile stores an edited profile on the authenticated session and
// persists it.
func (e *Engine) UpdateProfile(p model.UserProfile) {
	if e.Session.State() != session.Authenticated {
		return
	}
	e.Session.Restore(p)
	e.coordinator.SaveProfile(p)
}

// ResetProgress zeroes the completion counter and medal set, persisting
// immediately. The task collection is untouched.
func (e *Engine) ResetProgress() {
	e.Achievements.Reset()
}

// seedIfEmpty installs the onboarding task set on first login. A session
// that already holds tasks is never clobbered.
func (e *Engine) seedIfEmpty() {
	if e.Tasks.Len() > 0 {
		return
	}
	e.Tasks.Replace(sampleTasks())
}

func sampleTasks() []model.Task {
	date := func(s string) model.Date {
		d, _ := model.ParseDate(s)
		return d
	}
	clock := func(s string) *model.Clock {
		c, _ := model.ParseClock(s)
		return &c
	}
	completedAt, _ := time.Parse(time.RFC3339, "2024-01-12T09:30:00Z")

	return []model.Task{
		{
			ID:          "1",
			Title:       "Complete project proposal",
			Description: "Finish the Q4 project proposal for the client meeting",
			DueDate:     date("2024-01-15"),
			DueTime:     clock("14:30"),
			Priority:    model.PriorityHigh,
			Status:      model.StatusOpen,
			CreatedAt:   date("2024-01-10").Time,
		},
		{
			ID:          "2",
			Title:       "Buy groceries",
			Description: "Milk, bread, eggs, and vegetables",
			DueDate:     date("2024-01-12"),
			DueTime:     clock("10:00"),
			Priority:    model.PriorityMedium,
			Status:      model.StatusComplete,
			CreatedAt:   date("2024-01-11").Time,
			CompletedAt: &completedAt,
		},
		{
			ID:          "3",
			Title:       "Call dentist",
			Description: "Schedule annual checkup appointment",
			DueDate:     date("2024-01-20"),
			Priority:    model.PriorityLow,
			Status:      model.StatusOpen,
			CreatedAt:   date("2024-01-09").Time,
		},
	}
}
