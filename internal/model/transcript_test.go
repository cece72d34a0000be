package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTranscriptOrdersByTimeThenKindThenID(t *testing.T) {
	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	agents := []AgentMessage{
		{ID: "b", SalonID: "s", AgentRole: RoleExpert, Content: "expert", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", SalonID: "s", AgentRole: RoleHost, Content: "host", CreatedAt: base.Add(2 * time.Second)},
		{ID: "w", SalonID: "s", AgentRole: RoleHost, Content: "welcome", CreatedAt: base},
	}
	users := []UserMessage{
		{ID: "z", SalonID: "s", UserID: "u", Content: "question", CreatedAt: base.Add(2 * time.Second)},
	}

	entries := MergeTranscript(agents, users)
	require.Len(t, entries, 4)

	var got []string
	for _, e := range entries {
		got = append(got, e.Content)
	}
	assert.Equal(t, []string{"welcome", "question", "host", "expert"}, got)
	assert.Equal(t, EntryUser, entries[1].Type)
	assert.Equal(t, RoleHost, entries[2].Role)
}

func TestCursorRoundTripAndOrder(t *testing.T) {
	at := time.Date(2025, 10, 1, 9, 0, 0, 123456000, time.UTC)
	c := Cursor{At: at, Kind: EntryAgent, ID: "0b7c6a8e-1111-4e2a-9d51-3c2d8f0e9a10"}

	parsed, err := ParseCursor(c.String())
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Compare(c))

	later := Cursor{At: at, Kind: EntryAgent, ID: "ffff"}
	userSameInstant := Cursor{At: at, Kind: EntryUser, ID: "ffff"}
	assert.Negative(t, c.Compare(later))
	assert.Negative(t, userSameInstant.Compare(c))
	assert.Negative(t, Cursor{}.Compare(userSameInstant))
}

func TestParseCursor(t *testing.T) {
	zero, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	for _, raw := range []string{"abc.agent.x", "12.robot.x", "12.agent.", "12"} {
		_, err := ParseCursor(raw)
		assert.ErrorIs(t, err, ErrInvalidCursor, raw)
	}
}

func TestProtocolLabels(t *testing.T) {
	assert.Equal(t, "咖啡协议（创新探索）", ProtocolCoffee.Label())
	assert.Equal(t, "茶协议（深度传承）", ProtocolTea.Label())
	assert.Equal(t, "小笼包协议（结构化装配）", ProtocolXiaolongbao.Label())
	assert.False(t, ProtocolType("espresso").Valid())
	assert.False(t, SalonStatus("paused").Valid())
}
