package entity

import "time"

// Visitor is an anonymous widget user, keyed by the id the widget generated.
type Visitor struct {
	ID          string     `json:"id"`
	Blocked     bool       `json:"blocked"`
	BlockedAt   *time.Time `json:"blocked_at,omitempty"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
}
