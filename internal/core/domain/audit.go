package domain

import "time"

// AuthEventKind labels an entry of the authentication audit trail.
type AuthEventKind string

const (
	EventSignup           AuthEventKind = "signup"
	EventLoginSucceeded   AuthEventKind = "login_succeeded"
	EventLoginFailed      AuthEventKind = "login_failed"
	EventRefreshSucceeded AuthEventKind = "refresh_succeeded"
	EventRefreshFailed    AuthEventKind = "refresh_failed"
	EventLogout           AuthEventKind = "logout"
)

// AuthEvent is an append-only audit record. Tokens are never stored here.
type AuthEvent struct {
	ID       string        `json:"id" bson:"_id"`
	Kind     AuthEventKind `json:"kind" bson:"kind"`
	UserID   string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Username string        `json:"username,omitempty" bson:"username,omitempty"`
	Reason   string        `json:"reason,omitempty" bson:"reason,omitempty"`
	At       time.Time     `json:"at" bson:"at"`
}
