// Package agent writes the canned replies attributed to salon agent roles.
// Nothing here reasons or schedules: each role maps to a fixed template.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coffee-salon/internal/model"
)

// Sink persists one agent message. The generator stops at the first error.
type Sink interface {
	WriteAgentMessage(ctx context.Context, msg *model.AgentMessage) error
}

type Generator struct {
	sink      Sink
	templates map[model.AgentRole]Template
	order     []model.AgentRole
	now       func() time.Time
}

func NewGenerator(sink Sink) *Generator {
	return &Generator{
		sink:      sink,
		templates: Templates,
		order:     DefaultRoles,
		now:       time.Now,
	}
}

// Generate writes one message per enabled role, in the fixed speaking order.
// A nil enabled list means every default role; an empty one means none.
// Roles without a template are skipped. Rows written before a failure stay.
func (g *Generator) Generate(ctx context.Context, salonID, userText string, enabled []model.AgentRole) ([]model.AgentMessage, error) {
	if enabled == nil {
		enabled = g.order
	}
	wanted := make(map[model.AgentRole]bool, len(enabled))
	for _, role := range enabled {
		wanted[role] = true
	}

	hasUserText := userText != ""
	out := make([]model.AgentMessage, 0, len(g.order))
	var last time.Time
	for _, role := range g.order {
		if !wanted[role] {
			continue
		}
		tmpl, ok := g.templates[role]
		if !ok {
			continue
		}

		// keep speaking order visible in created_at even on a fast store
		now := model.Timestamp(g.now())
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
		last = now
		msg, err := BuildMessage(salonID, role, tmpl(hasUserText, now), now)
		if err != nil {
			return out, err
		}
		if err := g.sink.WriteAgentMessage(ctx, msg); err != nil {
			return out, fmt.Errorf("write %s reply failed: %w", role, err)
		}
		out = append(out, *msg)
	}
	return out, nil
}

// BuildMessage turns a reply into an unsaved AgentMessage row.
func BuildMessage(salonID string, role model.AgentRole, reply Reply, now time.Time) (*model.AgentMessage, error) {
	metadata, err := json.Marshal(reply.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal %s metadata failed: %w", role, err)
	}
	return &model.AgentMessage{
		SalonID:     salonID,
		AgentRole:   role,
		MessageType: reply.MessageType,
		Content:     reply.Content,
		Metadata:    string(metadata),
		CreatedAt:   now,
	}, nil
}
