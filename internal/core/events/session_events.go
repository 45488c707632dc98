package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSessionAuthenticated = "session.authenticated"
	EventTypeSessionCleared       = "session.cleared"
)

type SessionAuthenticatedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func NewSessionAuthenticatedEvent(userID int64, email string) *SessionAuthenticatedEvent {
	return &SessionAuthenticatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSessionAuthenticated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID: userID,
		Email:  email,
	}
}

type SessionClearedEvent struct {
	BaseEvent
	// Reason distinguishes an explicit logout from a 401 forced clear.
	Reason string `json:"reason"`
}

func NewSessionClearedEvent(reason string) *SessionClearedEvent {
	return &SessionClearedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSessionCleared,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reason": reason,
			},
		},
		Reason: reason,
	}
}
