package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"coffee-salon/internal/model"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/repository"
	"coffee-salon/internal/testutil"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Events() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

type fakeCache struct {
	mu          sync.Mutex
	transcripts map[string][]model.TranscriptEntry
	dirty       map[string]bool
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		transcripts: make(map[string][]model.TranscriptEntry),
		dirty:       make(map[string]bool),
	}
}

func (c *fakeCache) GetTranscript(_ context.Context, salonID string) ([]model.TranscriptEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.transcripts[salonID]
	return entries, ok, nil
}

func (c *fakeCache) SetTranscript(_ context.Context, salonID string, entries []model.TranscriptEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcripts[salonID] = entries
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, salonID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[salonID] = true
	delete(c.transcripts, salonID)
	return nil
}

func (c *fakeCache) IsDirty(_ context.Context, salonID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[salonID], nil
}

// clear expires the dirty marker the way its TTL would.
func (c *fakeCache) clear(salonID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dirty, salonID)
}

type fixture struct {
	db        *gorm.DB
	publisher *fakePublisher
	cache     *fakeCache
	auth      *AuthService
	salons    *SalonService
	messages  *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	publisher := &fakePublisher{}
	cache := newFakeCache()

	agentRepo := repository.NewAgentMessageRepository(db)
	userRepo := repository.NewUserMessageRepository(db)
	recorder := NewMessageRecorder(agentRepo, userRepo, publisher, cache)

	return &fixture{
		db:        db,
		publisher: publisher,
		cache:     cache,
		auth: NewAuthService(
			repository.NewUserRepository(db),
			repository.NewProfileRepository(db),
			"test-secret",
			time.Hour,
		),
		salons: NewSalonService(
			repository.NewSalonRepository(db),
			repository.NewParticipantRepository(db),
			recorder,
			20,
			50,
		),
		messages: NewMessageService(agentRepo, userRepo, recorder, cache),
	}
}

func (f *fixture) register(t *testing.T, username string) *Identity {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}
	return &Identity{UserID: res.User.ID, Username: res.User.Username}
}

var errBroker = errors.New("broker unavailable")
