package auth

import "time"

// DefaultTimeout is the inactivity budget used when none is configured.
const DefaultTimeout = 30 * time.Minute

// State is the lifecycle state of a session.
type State int

const (
	Active State = iota
	Expired
)

func (s State) String() string {
	if s == Expired {
		return "expired"
	}
	return "active"
}

// Guard enforces a sliding inactivity window. There is no absolute lifetime.
type Guard struct {
	Timeout time.Duration
}

// NewGuard returns a guard with the given timeout, falling back to DefaultTimeout.
func NewGuard(timeout time.Duration) Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Guard{Timeout: timeout}
}

// Check reports Expired once more than Timeout has passed since the last activity.
func (g Guard) Check(s Session, now time.Time) State {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if now.Sub(s.LastActivity) > timeout {
		return Expired
	}
	return Active
}
