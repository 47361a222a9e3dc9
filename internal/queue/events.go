// Package queue carries account events over RabbitMQ. The publisher is used
// by the API after a signup commits; the consumer runs in cmd/worker.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const DefaultUserCreatedQueue = "user.created"

// UserCreatedEvent is published once per successful signup
type UserCreatedEvent struct {
	EventID   string    `json:"event_id"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func decodeUserCreated(body []byte) (UserCreatedEvent, error) {
	var ev UserCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.UserID == 0 || ev.Email == "" {
		return ev, errors.New("event is missing user_id or email")
	}
	return ev, nil
}
