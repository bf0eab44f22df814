// ABOUTME: Session gate that every journal command passes through first.
// ABOUTME: Resolves the current identity or refuses with ErrUnauthenticated.
package journal

import (
	"context"

	"github.com/2389-research/jot/internal/session"
)

// SessionGate requires an identity before any data operation.
type SessionGate struct {
	provider session.Provider
}

// NewSessionGate creates a gate backed by provider.
func NewSessionGate(provider session.Provider) *SessionGate {
	return &SessionGate{provider: provider}
}

// Require returns the current identity, or ErrUnauthenticated when there is none.
func (g *SessionGate) Require(ctx context.Context) (string, error) {
	identity, err := g.provider.CurrentIdentity(ctx)
	if err != nil {
		return "", &RemoteError{Op: "session", Err: err}
	}
	if identity == "" {
		return "", ErrUnauthenticated
	}
	return identity, nil
}
