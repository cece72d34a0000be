package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type EntryKind string

const (
	EntryUser  EntryKind = "user"
	EntryAgent EntryKind = "agent"
)

// rank orders the two kinds when timestamps tie: a user message sorts before
// the agent replies written in the same instant.
func (k EntryKind) rank() int {
	if k == EntryUser {
		return 0
	}
	return 1
}

// TranscriptEntry is the unified read shape for both message relations.
type TranscriptEntry struct {
	ID          string      `json:"id"`
	Type        EntryKind   `json:"type"`
	SalonID     string      `json:"salon_id"`
	Role        AgentRole   `json:"role,omitempty"`
	MessageType MessageType `json:"message_type,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	Content     string      `json:"content"`
	Metadata    string      `json:"metadata,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Cursor      string      `json:"cursor"`
}

func EntryFromAgent(m AgentMessage) TranscriptEntry {
	e := TranscriptEntry{
		ID:          m.ID,
		Type:        EntryAgent,
		SalonID:     m.SalonID,
		Role:        m.AgentRole,
		MessageType: m.MessageType,
		Content:     m.Content,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
	}
	e.Cursor = e.Position().String()
	return e
}

func EntryFromUser(m UserMessage) TranscriptEntry {
	e := TranscriptEntry{
		ID:        m.ID,
		Type:      EntryUser,
		SalonID:   m.SalonID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	e.Cursor = e.Position().String()
	return e
}

func (e TranscriptEntry) Position() Cursor {
	return Cursor{At: e.CreatedAt, Kind: e.Type, ID: e.ID}
}

// MergeTranscript interleaves both message kinds into one sequence ordered by
// creation time, then kind, then id.
func MergeTranscript(agents []AgentMessage, users []UserMessage) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(agents)+len(users))
	for _, m := range agents {
		entries = append(entries, EntryFromAgent(m))
	}
	for _, m := range users {
		entries = append(entries, EntryFromUser(m))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position().Compare(entries[j].Position()) < 0
	})
	return entries
}

// Cursor is a total-order position in a salon transcript. The zero Cursor
// precedes every entry.
type Cursor struct {
	At   time.Time
	Kind EntryKind
	ID   string
}

var ErrInvalidCursor = errors.New("invalid cursor")

func (c Cursor) IsZero() bool {
	return c.ID == "" && c.At.IsZero()
}

func (c Cursor) String() string {
	if c.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d.%s.%s", c.At.UnixNano(), c.Kind, c.ID)
}

func (c Cursor) Compare(other Cursor) int {
	switch {
	case c.IsZero() && other.IsZero():
		return 0
	case c.IsZero():
		return -1
	case other.IsZero():
		return 1
	}
	if !c.At.Equal(other.At) {
		if c.At.Before(other.At) {
			return -1
		}
		return 1
	}
	if c.Kind.rank() != other.Kind.rank() {
		return c.Kind.rank() - other.Kind.rank()
	}
	return strings.Compare(c.ID, other.ID)
}

func ParseCursor(raw string) (Cursor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Cursor{}, nil
	}
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 || parts[2] == "" {
		return Cursor{}, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	kind := EntryKind(parts[1])
	if kind != EntryUser && kind != EntryAgent {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{At: time.Unix(0, nanos), Kind: kind, ID: parts[2]}, nil
}

// Timestamp truncates t to the precision the store keeps, so that values held
// in memory compare equal to values read back.
func Timestamp(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}
