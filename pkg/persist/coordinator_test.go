package persist

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jward/taskmedal/pkg/kv"
	"github.com/jward/taskmedal/pkg/model"
)

func TestLoadDefaultsOnEmptyStore(t *testing.T) {
	c := NewCoordinator(kv.NewMemStore())

	st := c.Load()
	if st.CompletedCount != 0 || st.Medals != nil || st.LoggedIn {
		t.Errorf("Expected zero state from empty store, got %+v", st)
	}
}

func TestAchievementRoundTrip(t *testing.T) {
	mem := kv.NewMemStore()
	c := NewCoordinator(mem)

	medals := []model.Medal{model.MedalBronze, model.MedalSilver}
	c.SaveAchievements(123, medals)

	st := NewCoordinator(mem).Load()
	if st.CompletedCount != 123 {
		t.Errorf("Expected count 123, got %d", st.CompletedCount)
	}
	if !reflect.DeepEqual(st.Medals, medals) {
		t.Errorf("Expected medals %v, got %v", medals, st.Medals)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	mem := kv.NewMemStore()
	c := NewCoordinator(mem)

	profile := model.UserProfile{
		Name:   "Ada Lovelace",
		Avatar: "https://example.com/ada.png",
		Email:  "ada@example.com",
		Phone:  "+44 20 7946 0000",
	}
	c.SaveProfile(profile)

	st := NewCoordinator(mem).Load()
	if !st.LoggedIn {
		t.Fatal("Expected LoggedIn after SaveProfile")
	}
	if st.Profile != profile {
		t.Errorf("Profile did not round-trip: got %+v", st.Profile)
	}
}

func TestProfileIgnoredWhenLoggedOut(t *testing.T) {
	mem := kv.NewMemStore()
	c := NewCoordinator(mem)

	c.SaveProfile(model.UserProfile{Name: "Stale"})
	c.MarkLoggedOut()

	st := NewCoordinator(mem).Load()
	if st.LoggedIn {
		t.Error("Expected LoggedIn false after MarkLoggedOut")
	}
	if st.Profile != (model.UserProfile{}) {
		t.Errorf("Stale profile must not be restored, got %+v", st.Profile)
	}
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	mem := kv.NewMemStore()
	mem.Set(KeyCompletedCount, "not-a-number")
	mem.Set(KeyMedals, "{broken")
	mem.Set(KeyLoggedIn, "true")
	mem.Set(KeyProfile, "{broken")

	st := NewCoordinator(mem).Load()
	if st.CompletedCount != 0 || st.Medals != nil {
		t.Errorf("Malformed values must fall back, got %+v", st)
	}
	if st.LoggedIn {
		t.Error("A session with an unreadable profile must not restore as logged in")
	}
}

// failStore errors on every operation, standing in for an unavailable
// durable store.
type failStore struct{}

func (failStore) Get(string) (string, bool, error) { return "", false, errors.New("store offline") }
func (failStore) Set(string, string) error         { return errors.New("store offline") }

func TestStoreFailuresAreSwallowed(t *testing.T) {
	c := NewCoordinator(failStore{})

	// None of these may panic or propagate; in-memory state stays
	// authoritative for the running session.
	c.SaveAchievements(10, []model.Medal{model.MedalBronze})
	c.SaveProfile(model.UserProfile{Name: "Offline"})
	c.MarkLoggedOut()

	st := c.Load()
	if st.CompletedCount != 0 || st.LoggedIn {
		t.Errorf("Expected defaults from failing store, got %+v", st)
	}
}
