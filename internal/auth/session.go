// Package auth resolves who is acting on a request. Privileged operations take
// an explicit Session instead of consulting any global admin flag.
package auth

import "context"

// Session identifies the caller of an operation.
type Session struct {
	ActorID     string `json:"actor_id"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// Anonymous is the session of an unauthenticated visitor.
func Anonymous() Session {
	return Session{ActorID: "anonymous"}
}

// Admin returns an administrator session.
func Admin(actorID, displayName string) Session {
	return Session{ActorID: actorID, DisplayName: displayName, IsAdmin: true}
}

// Privileged reports whether the session carries a verified administrator identity.
func (s Session) Privileged() bool {
	return s.IsAdmin && s.ActorID != ""
}

// Name is the human-readable actor name, falling back to the actor id.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ActorID
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return Anonymous()
}
