package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"coffee-salon/internal/metrics"
	"coffee-salon/internal/model"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/repository"
)

type ChangePublisher interface {
	Publish(ctx context.Context, evt realtime.Event) error
}

type TranscriptCache interface {
	GetTranscript(ctx context.Context, salonID string) ([]model.TranscriptEntry, bool, error)
	SetTranscript(ctx context.Context, salonID string, entries []model.TranscriptEntry) error
	Invalidate(ctx context.Context, salonID string) error
	IsDirty(ctx context.Context, salonID string) (bool, error)
}

// MessageRecorder is the single write path for transcript rows. After a row is
// stored it drops the cached transcript and announces the row on the change
// stream; neither follow-up can fail the write.
type MessageRecorder struct {
	agentRepo *repository.AgentMessageRepository
	userRepo  *repository.UserMessageRepository
	publisher ChangePublisher
	cache     TranscriptCache
}

func NewMessageRecorder(
	agentRepo *repository.AgentMessageRepository,
	userRepo *repository.UserMessageRepository,
	publisher ChangePublisher,
	cache TranscriptCache,
) *MessageRecorder {
	return &MessageRecorder{
		agentRepo: agentRepo,
		userRepo:  userRepo,
		publisher: publisher,
		cache:     cache,
	}
}

func (r *MessageRecorder) WriteAgentMessage(ctx context.Context, msg *model.AgentMessage) error {
	if err := r.agentRepo.Create(ctx, msg); err != nil {
		return err
	}
	metrics.AgentMessagesTotal.WithLabelValues(string(msg.AgentRole)).Inc()
	r.afterWrite(ctx, realtime.AgentMessageInserted(*msg))
	return nil
}

func (r *MessageRecorder) WriteUserMessage(ctx context.Context, msg *model.UserMessage) error {
	if err := r.userRepo.Create(ctx, msg); err != nil {
		return err
	}
	metrics.UserMessagesTotal.Inc()
	r.afterWrite(ctx, realtime.UserMessageInserted(*msg))
	return nil
}

func (r *MessageRecorder) afterWrite(ctx context.Context, evt realtime.Event) {
	logger := log.Ctx(ctx).With().Str("salon_id", evt.SalonID).Str("entry_id", evt.Entry.ID).Logger()
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, evt.SalonID); err != nil {
			logger.Warn().Err(err).Msg("invalidate transcript cache failed")
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, evt); err != nil {
			metrics.ChangePublishErrors.Inc()
			logger.Warn().Err(err).Msg("publish change event failed")
		}
	}
}
