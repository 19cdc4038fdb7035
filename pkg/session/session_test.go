package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jward/taskmedal/pkg/auth"
	"github.com/jward/taskmedal/pkg/model"
)

// fakeBridge counts invocations and returns scripted results.
type fakeBridge struct {
	beginCalls    int
	exchangeCalls int
	beginErr      error
	exchangeErr   error
	profile       model.UserProfile
}

func (f *fakeBridge) BeginAuthorization(context.Context) (auth.Credential, error) {
	f.beginCalls++
	if f.beginErr != nil {
		return auth.Credential{}, f.beginErr
	}
	return auth.Credential{AuthCode: "code-123"}, nil
}

func (f *fakeBridge) ExchangeCredential(context.Context, auth.Credential) (model.UserProfile, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return model.UserProfile{}, f.exchangeErr
	}
	return f.profile, nil
}

func TestSuccessfulLogin(t *testing.T) {
	bridge := &fakeBridge{profile: model.UserProfile{Name: "Ada", Email: "ada@example.com"}}
	m := NewMachine(bridge)

	var seen model.UserProfile
	m.OnAuthenticated = func(p model.UserProfile) { seen = p }

	if err := m.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if m.State() != Authenticated {
		t.Fatalf("Expected Authenticated, got %s", m.State())
	}
	if m.Profile().Name != "Ada" {
		t.Errorf("Expected profile Ada, got %+v", m.Profile())
	}
	if seen.Email != "ada@example.com" {
		t.Errorf("OnAuthenticated saw %+v", seen)
	}
	if bridge.beginCalls != 1 || bridge.exchangeCalls != 1 {
		t.Errorf("Expected one begin and one exchange, got %d/%d", bridge.beginCalls, bridge.exchangeCalls)
	}
}

func TestBeginLoginWhileAuthenticatingIsNoOp(t *testing.T) {
	bridge := &fakeBridge{}
	m := NewMachine(bridge)

	if err := m.BeginLogin(context.Background()); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	if m.State() != Authenticating {
		t.Fatalf("Expected Authenticating, got %s", m.State())
	}

	// A second begin (and a convenience Login) while the exchange is in
	// flight must not reach the bridge again.
	m.BeginLogin(context.Background())
	m.Login(context.Background())
	if bridge.beginCalls != 1 {
		t.Errorf("Expected a single bridge authorization, got %d", bridge.beginCalls)
	}
	if bridge.exchangeCalls != 0 {
		t.Errorf("No exchange should have run yet, got %d", bridge.exchangeCalls)
	}
}

func TestExchangeFailureLandsInAuthError(t *testing.T) {
	bridge := &fakeBridge{exchangeErr: errors.New("invalid_grant")}
	m := NewMachine(bridge)

	m.Login(context.Background())
	if m.State() != AuthError {
		t.Fatalf("Expected AuthError, got %s", m.State())
	}
	if m.ErrMessage() != "invalid_grant" {
		t.Errorf("Expected provider failure text, got %q", m.ErrMessage())
	}
}

func TestCancelFromAuthenticating(t *testing.T) {
	bridge := &fakeBridge{}
	m := NewMachine(bridge)

	m.BeginLogin(context.Background())
	m.Cancel()

	if m.State() != AuthError {
		t.Fatalf("Expected AuthError after cancel, got %s", m.State())
	}
	if m.ErrMessage() != "Login failed" {
		t.Errorf("Expected generic fallback message, got %q", m.ErrMessage())
	}
}

func TestRetryAfterError(t *testing.T) {
	bridge := &fakeBridge{exchangeErr: errors.New("transient")}
	m := NewMachine(bridge)

	m.Login(context.Background())
	if m.State() != AuthError {
		t.Fatalf("Expected AuthError, got %s", m.State())
	}

	bridge.exchangeErr = nil
	bridge.profile = model.UserProfile{Name: "Second Try"}
	if err := m.Retry(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if err := m.CredentialReceived(context.Background()); err != nil {
		t.Fatalf("CredentialReceived failed: %v", err)
	}
	if m.State() != Authenticated || m.Profile().Name != "Second Try" {
		t.Errorf("Expected authenticated retry, state=%s profile=%+v", m.State(), m.Profile())
	}
}

func TestLogoutClearsProfile(t *testing.T) {
	bridge := &fakeBridge{profile: model.UserProfile{Name: "Ada"}}
	m := NewMachine(bridge)
	loggedOut := false
	m.OnLoggedOut = func() { loggedOut = true }

	m.Login(context.Background())
	m.Logout()

	if m.State() != LoggedOut {
		t.Fatalf("Expected LoggedOut, got %s", m.State())
	}
	if m.Profile() != (model.UserProfile{}) {
		t.Errorf("Profile must be cleared on logout, got %+v", m.Profile())
	}
	if !loggedOut {
		t.Error("OnLoggedOut did not fire")
	}
}

func TestRestoreSkipsBridge(t *testing.T) {
	bridge := &fakeBridge{}
	m := NewMachine(bridge)

	m.Restore(model.UserProfile{Name: "Persisted"})

	if m.State() != Authenticated || m.Profile().Name != "Persisted" {
		t.Errorf("Restore did not authenticate: state=%s profile=%+v", m.State(), m.Profile())
	}
	if bridge.beginCalls != 0 || bridge.exchangeCalls != 0 {
		t.Errorf("Restore must not touch the bridge, got %d/%d calls", bridge.beginCalls, bridge.exchangeCalls)
	}
}
