package common

import "time"

const (
	SubjectUserRegistered     = "user.registered"
	SubjectUserProfileUpdated = "user.profile_updated"
)

type UserEvent struct {
	EventId    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserId     uint      `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
