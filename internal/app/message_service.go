package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-salon/internal/agent"
	"coffee-salon/internal/model"
	"coffee-salon/internal/repository"
)

type MessageService struct {
	agentRepo *repository.AgentMessageRepository
	userRepo  *repository.UserMessageRepository
	recorder  *MessageRecorder
	cache     TranscriptCache
	generator *agent.Generator
	now       func() time.Time
}

type SendMessageResult struct {
	UserMessage model.UserMessage    `json:"user_message"`
	Responses   []model.AgentMessage `json:"responses"`
}

type TriggerInput struct {
	SalonID     string
	UserMessage string
	// ProtocolType is accepted for compatibility; replies do not depend on it.
	ProtocolType string
	// AgentRoles nil means the default roles; an empty slice means none.
	AgentRoles []string
}

type TriggerResult struct {
	SalonID     string               `json:"salon_id"`
	UserMessage *model.UserMessage   `json:"user_message,omitempty"`
	Responses   []model.AgentMessage `json:"responses"`
}

func NewMessageService(
	agentRepo *repository.AgentMessageRepository,
	userRepo *repository.UserMessageRepository,
	recorder *MessageRecorder,
	cache TranscriptCache,
) *MessageService {
	return &MessageService{
		agentRepo: agentRepo,
		userRepo:  userRepo,
		recorder:  recorder,
		cache:     cache,
		generator: agent.NewGenerator(recorder),
		now:       time.Now,
	}
}

// SendUserMessage stores the content verbatim and then runs the default roles
// against it.
func (s *MessageService) SendUserMessage(ctx context.Context, ident *Identity, salonID, content string) (*SendMessageResult, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	salonID = strings.TrimSpace(salonID)
	if salonID == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: salon_id and content are required", ErrInvalidInput)
	}

	userMessage, err := s.writeUserMessage(ctx, ident, salonID, content)
	if err != nil {
		return nil, err
	}
	responses, err := s.generator.Generate(ctx, salonID, content, nil)
	if err != nil {
		return nil, err
	}
	return &SendMessageResult{UserMessage: *userMessage, Responses: responses}, nil
}

// TriggerDiscussion runs the enabled roles for a salon. A credential is only
// required when the call carries user text, which is stored first.
func (s *MessageService) TriggerDiscussion(ctx context.Context, ident *Identity, input TriggerInput) (*TriggerResult, error) {
	salonID := strings.TrimSpace(input.SalonID)
	if salonID == "" {
		return nil, fmt.Errorf("%w: salon_id is required", ErrInvalidInput)
	}
	roles, err := parseRoles(input.AgentRoles)
	if err != nil {
		return nil, err
	}

	result := &TriggerResult{SalonID: salonID}
	if input.UserMessage != "" {
		if err := requireIdentity(ident); err != nil {
			return nil, err
		}
		userMessage, err := s.writeUserMessage(ctx, ident, salonID, input.UserMessage)
		if err != nil {
			return nil, err
		}
		result.UserMessage = userMessage
	}

	responses, err := s.generator.Generate(ctx, salonID, input.UserMessage, roles)
	if err != nil {
		return nil, err
	}
	result.Responses = responses
	return result, nil
}

// ListMessages returns the merged transcript of a salon, oldest first.
func (s *MessageService) ListMessages(ctx context.Context, salonID string) ([]model.TranscriptEntry, error) {
	salonID = strings.TrimSpace(salonID)
	if salonID == "" {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, salonID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetTranscript(ctx, salonID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	agents, err := s.agentRepo.ListBySalonID(ctx, salonID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListBySalonID(ctx, salonID)
	if err != nil {
		return nil, err
	}
	entries := model.MergeTranscript(agents, users)

	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, salonID); dirtyErr == nil && !dirty {
			_ = s.cache.SetTranscript(ctx, salonID, entries)
		}
	}
	return entries, nil
}

func (s *MessageService) writeUserMessage(ctx context.Context, ident *Identity, salonID, content string) (*model.UserMessage, error) {
	msg := &model.UserMessage{
		SalonID:   salonID,
		UserID:    ident.UserID,
		Content:   content,
		CreatedAt: model.Timestamp(s.now()),
	}
	if err := s.recorder.WriteUserMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func parseRoles(raw []string) ([]model.AgentRole, error) {
	if raw == nil {
		return nil, nil
	}
	roles := make([]model.AgentRole, 0, len(raw))
	for _, r := range raw {
		role := model.AgentRole(strings.TrimSpace(r))
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown agent role %q", ErrInvalidInput, r)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
