package eventsync

import (
	"context"
	"time"
)

// Status mirrors the lifecycle of a scheduled event on the chat platform.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ExternalEvent is a scheduled event as the platform reports it.
type ExternalEvent struct {
	ID          string     `json:"id"`
	GuildID     string     `json:"guildId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Status      Status     `json:"status"`
	Location    string     `json:"location,omitempty"`
}

// EventDraft carries the fields we write to the platform when creating or
// editing an event.
type EventDraft struct {
	Name        string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
}

type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Provider is the scheduled-event surface of the chat platform.
type Provider interface {
	// MissingPermissions returns the human-readable names of permissions the
	// integration lacks in the guild. An empty slice means all required
	// permissions are granted.
	MissingPermissions(ctx context.Context, guildID string) ([]string, error)
	CreateEvent(ctx context.Context, guildID string, draft EventDraft) (*ExternalEvent, error)
	UpdateEvent(ctx context.Context, guildID, eventID string, draft EventDraft) (*ExternalEvent, error)
	DeleteEvent(ctx context.Context, guildID, eventID string) error
	Event(ctx context.Context, guildID, eventID string) (*ExternalEvent, error)
	EventParticipants(ctx context.Context, guildID, eventID string) ([]Participant, error)
}
