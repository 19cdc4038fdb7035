// Package persist mirrors achievement and profile state into the durable
// key-value store and restores it at startup. Write failures degrade to
// in-memory-only operation for the running session; they are logged and
// never propagated to the mutation that triggered them.
package persist

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/jward/taskmedal/pkg/kv"
	"github.com/jward/taskmedal/pkg/model"
)

// Well-known keys. Changing any of these is a breaking format change; there
// is deliberately no versioning or migration layer.
const (
	KeyCompletedCount = "completedTasksCount"
	KeyMedals         = "unlockedMedals"
	KeyProfile        = "userData"
	KeyLoggedIn       = "loggedIn"
)

// State is everything the coordinator restores at startup. Profile is only
// meaningful when LoggedIn is set.
type State struct {
	CompletedCount int
	Medals         []model.Medal
	LoggedIn       bool
	Profile        model.UserProfile
}

// Coordinator is the single writer to the durable store.
type Coordinator struct {
	store kv.Store
}

func NewCoordinator(store kv.Store) *Coordinator {
	return &Coordinator{store: store}
}

// Load reads the persisted engine state. Absent keys fall back to defaults;
// a malformed value is treated the same way, with a warning, so a corrupt
// store never blocks startup.
func (c *Coordinator) Load() State {
	var st State

	if raw, ok := c.get(KeyCompletedCount); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Printf("Warning: ignoring malformed completed count %q", raw)
		} else {
			st.CompletedCount = n
		}
	}

	if raw, ok := c.get(KeyMedals); ok {
		var medals []model.Medal
		if err := json.Unmarshal([]byte(raw), &medals); err != nil {
			log.Printf("Warning: ignoring malformed medal set: %v", err)
		} else {
			st.Medals = medals
		}
	}

	if raw, ok := c.get(KeyLoggedIn); ok {
		st.LoggedIn = raw == "true"
	}

	// The profile blob is only consulted when the previous session was still
	// logged in; otherwise it is stale by definition.
	if st.LoggedIn {
		if raw, ok := c.get(KeyProfile); ok {
			var p model.UserProfile
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				log.Printf("Warning: ignoring malformed profile: %v", err)
				st.LoggedIn = false
			} else {
				st.Profile = p
			}
		} else {
			st.LoggedIn = false
		}
	}

	return st
}

// SaveAchievements writes the counter and medal set.
func (c *Coordinator) SaveAchievements(count int, medals []model.Medal) {
	c.set(KeyCompletedCount, strconv.Itoa(count))
	if medals == nil {
		medals = []model.Medal{}
	}
	b, err := json.Marshal(medals)
	if err != nil {
		log.Printf("Warning: could not encode medal set: %v", err)
		return
	}
	c.set(KeyMedals, string(b))
}

// SaveProfile writes the profile blob and marks the session logged in.
func (c *Coordinator) SaveProfile(p model.UserProfile) {
	b, err := json.Marshal(p)
	if err != nil {
		log.Printf("Warning: could not encode profile: %v", err)
		return
	}
	c.set(KeyProfile, string(b))
	c.set(KeyLoggedIn, "true")
}

// MarkLoggedOut clears the logged-in flag. The profile blob is left behind
// as stale data; it is never consulted while the flag is off.
func (c *Coordinator) MarkLoggedOut() {
	c.set(KeyLoggedIn, "false")
}

func (c *Coordinator) get(key string) (string, bool) {
	v, ok, err := c.store.Get(key)
	if err != nil {
		log.Printf("Warning: could not read %s from durable store: %v", key, err)
		return "", false
	}
	return v, ok
}

func (c *Coordinator) set(key, value string) {
	if err := c.store.Set(key, value); err != nil {
		log.Printf("Warning: could not persist %s: %v", key, err)
	}
}
