package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-salon/internal/agent"
	"coffee-salon/internal/metrics"
	"coffee-salon/internal/model"
	"coffee-salon/internal/repository"
)

type SalonService struct {
	salonRepo       *repository.SalonRepository
	participantRepo *repository.ParticipantRepository
	recorder        *MessageRecorder
	listLimit       int
	maxParticipants int
	now             func() time.Time
}

type CreateSalonInput struct {
	Title          string
	Description    *string
	ProtocolType   string
	Topic          *string
	TargetAudience *string
}

func NewSalonService(
	salonRepo *repository.SalonRepository,
	participantRepo *repository.ParticipantRepository,
	recorder *MessageRecorder,
	listLimit int,
	maxParticipants int,
) *SalonService {
	if listLimit <= 0 {
		listLimit = 20
	}
	if maxParticipants <= 0 {
		maxParticipants = 50
	}
	return &SalonService{
		salonRepo:       salonRepo,
		participantRepo: participantRepo,
		recorder:        recorder,
		listLimit:       listLimit,
		maxParticipants: maxParticipants,
		now:             time.Now,
	}
}

// CreateSalon stores an active salon, enrolls the caller as its creator and
// posts the host's welcome line. The three writes are not atomic.
func (s *SalonService) CreateSalon(ctx context.Context, ident *Identity, input CreateSalonInput) (*model.Salon, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	protocol := model.ProtocolType(strings.TrimSpace(input.ProtocolType))
	if title == "" || protocol == "" {
		return nil, fmt.Errorf("%w: title and protocol_type are required", ErrInvalidInput)
	}
	if !protocol.Valid() {
		return nil, fmt.Errorf("%w: protocol_type must be one of tea, xiaolongbao, coffee", ErrInvalidInput)
	}

	now := model.Timestamp(s.now())
	salon := &model.Salon{
		Title:           title,
		Description:     input.Description,
		CreatorID:       ident.UserID,
		ProtocolType:    protocol,
		Status:          model.SalonActive,
		Topic:           input.Topic,
		TargetAudience:  input.TargetAudience,
		StartTime:       &now,
		MaxParticipants: s.maxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.salonRepo.Create(ctx, salon); err != nil {
		return nil, err
	}
	metrics.SalonsCreated.WithLabelValues(string(protocol)).Inc()

	if err := s.participantRepo.Create(ctx, &model.SalonParticipant{
		SalonID:  salon.ID,
		UserID:   ident.UserID,
		Role:     model.ParticipantCreator,
		JoinedAt: now,
	}); err != nil {
		return nil, err
	}

	welcome, err := agent.BuildMessage(salon.ID, model.RoleHost, agent.WelcomeReply(title, protocol, now), now)
	if err != nil {
		return nil, err
	}
	if err := s.recorder.WriteAgentMessage(ctx, welcome); err != nil {
		return nil, err
	}
	return salon, nil
}

// ListSalons returns the newest salons in a status, "active" when empty.
func (s *SalonService) ListSalons(ctx context.Context, status string) ([]model.Salon, error) {
	st := model.SalonStatus(strings.TrimSpace(status))
	if st == "" {
		st = model.SalonActive
	}
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.salonRepo.ListByStatus(ctx, st, s.listLimit)
}

func (s *SalonService) GetSalon(ctx context.Context, salonID string) (*model.Salon, error) {
	salonID = strings.TrimSpace(salonID)
	if salonID == "" {
		return nil, ErrInvalidInput
	}
	salon, err := s.salonRepo.GetByID(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if salon == nil {
		return nil, ErrSalonNotFound
	}
	return salon, nil
}
