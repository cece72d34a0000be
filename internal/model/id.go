package model

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Salon{},
		&SalonParticipant{},
		&AgentMessage{},
		&UserMessage{},
	}
}
