// Package realtime fans persisted transcript rows out to connected viewers.
package realtime

import (
	"fmt"

	"coffee-salon/internal/model"
)

const (
	TableAgentMessages = "agent_messages"
	TableUserMessages  = "user_messages"
)

// Event announces one inserted message row.
type Event struct {
	Table   string                `json:"table"`
	SalonID string                `json:"salon_id"`
	Entry   model.TranscriptEntry `json:"entry"`
}

func AgentMessageInserted(m model.AgentMessage) Event {
	return Event{Table: TableAgentMessages, SalonID: m.SalonID, Entry: model.EntryFromAgent(m)}
}

func UserMessageInserted(m model.UserMessage) Event {
	return Event{Table: TableUserMessages, SalonID: m.SalonID, Entry: model.EntryFromUser(m)}
}

// RoutingKey is the broker topic an event is published under.
func (e Event) RoutingKey() string {
	return fmt.Sprintf("salon.%s.%s", e.SalonID, e.Table)
}
