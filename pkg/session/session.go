// Package session holds the engine's single authentication state machine.
// The machine only moves on external events; it never times out or retries
// on its own.
package session

import (
	"context"

	"github.com/jward/taskmedal/pkg/auth"
	"github.com/jward/taskmedal/pkg/model"
)

type State int

const (
	LoggedOut State = iota
	Authenticating
	Authenticated
	AuthError
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "LoggedOut"
	case Authenticating:
		return "Authenticating"
	case Authenticated:
		return "Authenticated"
	case AuthError:
		return "AuthError"
	}
	return "Unknown"
}

// loginFailedFallback is used when a provider failure carries no text.
const loginFailedFallback = "Login failed"

// Machine is the process-wide session. Exactly one exists per engine; it is
// created at startup and cycles through its states until the process ends.
type Machine struct {
	bridge auth.Bridge

	state   State
	profile model.UserProfile
	errMsg  string
	pending auth.Credential

	// OnAuthenticated fires on every transition into Authenticated with the
	// resolved profile. The engine uses it to persist the profile and run
	// first-login seeding.
	OnAuthenticated func(model.UserProfile)

	// OnLoggedOut fires when the session returns to LoggedOut so the
	// persisted logged-in marker can be cleared.
	OnLoggedOut func()
}

func NewMachine(bridge auth.Bridge) *Machine {
	return &Machine{bridge: bridge, state: LoggedOut}
}

func (m *Machine) State() State { return m.state }

// Profile returns the authenticated profile. Zero value outside
// Authenticated.
func (m *Machine) Profile() model.UserProfile {
	if m.state != Authenticated {
		return model.UserProfile{}
	}
	return m.profile
}

// ErrMessage returns the failure text carried by the AuthError state.
func (m *Machine) ErrMessage() string {
	if m.state != AuthError {
		return ""
	}
	return m.errMsg
}

// BeginLogin starts the authorization step with the provider. Calling it
// while an exchange is already in flight is a no-op: a second concurrent
// bridge invocation is never spawned. From Authenticated it is also a no-op.
func (m *Machine) BeginLogin(ctx context.Context) error {
	switch m.state {
	case Authenticating, Authenticated:
		return nil
	}

	m.state = Authenticating
	m.errMsg = ""

	cred, err := m.bridge.BeginAuthorization(ctx)
	if err != nil {
		m.fail(err)
		return nil
	}
	m.pending = cred
	return nil
}

// CredentialReceived exchanges the pending credential for a profile. Success
// lands in Authenticated; any bridge failure lands in AuthError with the
// provider's text, never in a panic past the caller.
func (m *Machine) CredentialReceived(ctx context.Context) error {
	if m.state != Authenticating {
		return nil
	}

	profile, err := m.bridge.ExchangeCredential(ctx, m.pending)
	if err != nil {
		m.fail(err)
		return nil
	}

	m.state = Authenticated
	m.profile = profile
	m.errMsg = ""
	if m.OnAuthenticated != nil {
		m.OnAuthenticated(profile)
	}
	return nil
}

// Login runs the full authorize-and-exchange sequence as one awaited call.
// While already Authenticating it is a no-op, same as BeginLogin.
func (m *Machine) Login(ctx context.Context) error {
	if m.state == Authenticating {
		return nil
	}
	if err := m.BeginLogin(ctx); err != nil {
		return err
	}
	if m.state != Authenticating {
		// Authorization already failed (or we were logged in all along).
		return nil
	}
	return m.CredentialReceived(ctx)
}

// Cancel abandons an in-flight authentication attempt.
func (m *Machine) Cancel() {
	if m.state != Authenticating {
		return
	}
	m.state = AuthError
	m.errMsg = loginFailedFallback
}

// Retry leaves AuthError and starts a fresh authorization.
func (m *Machine) Retry(ctx context.Context) error {
	if m.state != AuthError {
		return nil
	}
	m.state = LoggedOut
	return m.BeginLogin(ctx)
}

// Logout clears the in-memory profile and returns to LoggedOut. Persisted
// achievement state is untouched: counter and medals outlive sessions.
func (m *Machine) Logout() {
	if m.state != Authenticated {
		return
	}
	m.state = LoggedOut
	m.profile = model.UserProfile{}
	if m.OnLoggedOut != nil {
		m.OnLoggedOut()
	}
}

// Restore re-enters Authenticated from a persisted profile without touching
// the bridge. Used at startup when the previous session was still logged in.
func (m *Machine) Restore(profile model.UserProfile) {
	m.state = Authenticated
	m.profile = profile
	m.errMsg = ""
}

func (m *Machine) fail(err error) {
	m.state = AuthError
	m.errMsg = err.Error()
	if m.errMsg == "" {
		m.errMsg = loginFailedFallback
	}
}
