// Package achievement derives the lifetime completion counter and medal set
// from task completion transitions.
package achievement

import (
	"sync"
	"time"

	"github.com/jward/taskmedal/pkg/model"
	"github.com/jward/taskmedal/pkg/store"
)

// Thresholds: completing this many tasks over the lifetime of the profile
// unlocks the medal. Cumulative, so 100 completions carry bronze and silver.
var thresholds = map[model.Medal]int{
	model.MedalBronze: 50,
	model.MedalSilver: 100,
	model.MedalGold:   200,
}

// DefaultNotificationWindow is how long a "just unlocked" medal stays
// visible before it auto-clears.
const DefaultNotificationWindow = 3 * time.Second

// Tracker owns AchievementState. All mutation goes through HandleTransition
// and Reset; reads return copies. The mutex exists because the notification
// auto-clear timer fires on its own goroutine.
type Tracker struct {
	mu             sync.Mutex
	completedCount int
	unlocked       map[model.Medal]bool
	showing        model.Medal
	clearTimer     *time.Timer

	// NotificationWindow is the display window for a fresh unlock.
	NotificationWindow time.Duration

	// RevokeOnRecount, when set, makes the decrement path recompute (and so
	// potentially shrink) the medal set. The shipped behavior leaves medals
	// as a one-way ratchet; the flag exists so the policy is named rather
	// than buried.
	RevokeOnRecount bool

	// OnChange is called after every state mutation with the new values.
	// The persistence coordinator hangs off this.
	OnChange func(count int, medals []model.Medal)

	// OnUnlock is called with the single newly unlocked medal surfaced for
	// display (the lowest tier among the new ones).
	OnUnlock func(m model.Medal)
}

func NewTracker() *Tracker {
	return &Tracker{
		unlocked:           make(map[model.Medal]bool),
		NotificationWindow: DefaultNotificationWindow,
	}
}

// Restore installs previously persisted state. Called once at startup,
// before any transitions flow.
func (tr *Tracker) Restore(count int, medals []model.Medal) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if count < 0 {
		count = 0
	}
	tr.completedCount = count
	tr.unlocked = make(map[model.Medal]bool, len(medals))
	for _, m := range medals {
		tr.unlocked[m] = true
	}
}

// CompletedCount returns the lifetime completion counter.
func (tr *Tracker) CompletedCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.completedCount
}

// UnlockedMedals returns the medal set in ascending tier order.
func (tr *Tracker) UnlockedMedals() []model.Medal {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.medalsLocked()
}

// Notification returns the medal currently surfaced as "just unlocked", or
// "" when none is showing. The value is transient and never persisted.
func (tr *Tracker) Notification() model.Medal {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.showing
}

// HandleTransition is the store.Listener. A completed event bumps the
// counter and recomputes medals; a reopened event decrements the counter,
// floored at zero, and leaves medals alone.
func (tr *Tracker) HandleTransition(_ model.Task, t store.Transition) {
	tr.mu.Lock()

	var unlocked model.Medal
	switch t {
	case store.Completed:
		tr.completedCount++
		unlocked = tr.recomputeLocked()
	case store.Reopened:
		if tr.completedCount > 0 {
			tr.completedCount--
		}
		if tr.RevokeOnRecount {
			unlocked = tr.recomputeLocked()
		}
	}

	count, medals := tr.completedCount, tr.medalsLocked()
	onChange, onUnlock := tr.OnChange, tr.OnUnlock
	tr.mu.Unlock()

	if onChange != nil {
		onChange(count, medals)
	}
	if unlocked != "" && onUnlock != nil {
		onUnlock(unlocked)
	}
}

// Reset zeroes the counter and empties the medal set, for the profile
// surface's "start over" action.
func (tr *Tracker) Reset() {
	tr.mu.Lock()
	tr.completedCount = 0
	tr.unlocked = make(map[model.Medal]bool)
	onChange := tr.OnChange
	tr.mu.Unlock()

	if onChange != nil {
		onChange(0, nil)
	}
}

// recomputeLocked rebuilds the medal set from the counter. The set is only
// replaced when the fresh set contains a medal not yet unlocked; the lowest
// new tier becomes the notification and is returned for the caller to
// surface once the lock is dropped.
func (tr *Tracker) recomputeLocked() model.Medal {
	fresh := make(map[model.Medal]bool)
	var newly []model.Medal
	for _, m := range model.Medals {
		if tr.completedCount >= thresholds[m] {
			fresh[m] = true
			if !tr.unlocked[m] {
				newly = append(newly, m)
			}
		}
	}
	if len(newly) == 0 {
		return ""
	}

	tr.unlocked = fresh
	tr.showing = newly[0]
	if tr.clearTimer != nil {
		tr.clearTimer.Stop()
	}
	tr.clearTimer = time.AfterFunc(tr.NotificationWindow, func() {
		tr.mu.Lock()
		tr.showing = ""
		tr.mu.Unlock()
	})
	return newly[0]
}

func (tr *Tracker) medalsLocked() []model.Medal {
	var out []model.Medal
	for _, m := range model.Medals {
		if tr.unlocked[m] {
			out = append(out, m)
		}
	}
	return out
}
