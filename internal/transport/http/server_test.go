package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsvc "coffee-salon/internal/app"
	"coffee-salon/internal/config"
	"coffee-salon/internal/model"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/repository"
	"coffee-salon/internal/testutil"
	"coffee-salon/internal/transport/http/handler"
)

// hubPublisher delivers change events straight to the hub, standing in for
// the broker round trip.
type hubPublisher struct {
	hub *realtime.Hub
}

func (p hubPublisher) Publish(_ context.Context, evt realtime.Event) error {
	p.hub.Dispatch(evt)
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) nethttp.Handler {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg := &config.Config{
		App:      config.AppConfig{Name: "coffee-salon", Env: "test", GinMode: "test"},
		Realtime: config.RealtimeConfig{PingIntervalSecond: 30, ReadLimitBytes: 4096},
	}

	hub := realtime.NewHub(64)
	agentRepo := repository.NewAgentMessageRepository(db)
	userMessageRepo := repository.NewUserMessageRepository(db)
	recorder := appsvc.NewMessageRecorder(agentRepo, userMessageRepo, hubPublisher{hub: hub}, nil)

	return NewEngine(cfg, zerolog.Nop(), Services{
		Auth: appsvc.NewAuthService(
			repository.NewUserRepository(db),
			repository.NewProfileRepository(db),
			"test-secret",
			time.Hour,
		),
		Salons: appsvc.NewSalonService(
			repository.NewSalonRepository(db),
			repository.NewParticipantRepository(db),
			recorder,
			20,
			50,
		),
		Messages: appsvc.NewMessageService(agentRepo, userMessageRepo, recorder, nil),
		Hub:      hub,
		Health:   handler.NewHealthHandler("coffee-salon", "test", time.Now()),
	})
}

func do(t *testing.T, router nethttp.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func register(t *testing.T, router nethttp.Handler, username string) string {
	t.Helper()
	rec, env := do(t, router, nethttp.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func createSalon(t *testing.T, router nethttp.Handler, token, title, protocol string) model.Salon {
	t.Helper()
	rec, env := do(t, router, nethttp.MethodPost, "/functions/v1/salon-manager", token, map[string]any{
		"action":     "create",
		"salon_data": map[string]any{"title": title, "protocol_type": protocol},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Success bool        `json:"success"`
		Salon   model.Salon `json:"salon"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.Success)
	return data.Salon
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(nethttp.MethodOptions, "/functions/v1/salon-manager", nil)
	req.Header.Set("Origin", "https://salon.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestSalonManagerCreateAndList(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "lin")

	salon := createSalon(t, router, token, "AI与咖啡", "coffee")
	assert.Equal(t, model.SalonActive, salon.Status)
	assert.Equal(t, model.ProtocolCoffee, salon.ProtocolType)

	rec, env := do(t, router, nethttp.MethodPost, "/functions/v1/salon-manager", "", map[string]any{"action": "list"})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var listed struct {
		Salons []model.Salon `json:"salons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Salons, 1)
	assert.Equal(t, salon.ID, listed.Salons[0].ID)

	rec, _ = do(t, router, nethttp.MethodPost, "/functions/v1/salon-manager", "", map[string]any{
		"action":     "list",
		"salon_data": map[string]any{"status": "completed"},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"salons":[]}}`, rec.Body.String())

	rec, env = do(t, router, nethttp.MethodGet, "/api/v1/salons/"+salon.ID+"/messages", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var transcript struct {
		Messages []model.TranscriptEntry `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &transcript))
	require.Len(t, transcript.Messages, 1)
	assert.Contains(t, transcript.Messages[0].Content, "咖啡协议（创新探索）")
}

func TestFailuresUseUniformEnvelope(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "lin")

	tests := []struct {
		name     string
		path     string
		token    string
		body     any
		wantCode string
		wantMsg  string
	}{
		{
			name:     "create without credential",
			path:     "/functions/v1/salon-manager",
			body:     map[string]any{"action": "create", "salon_data": map[string]any{"title": "t", "protocol_type": "tea"}},
			wantCode: "SALON_MANAGEMENT_FAILED",
		},
		{
			name:     "create with bad token",
			path:     "/functions/v1/salon-manager",
			token:    "garbage",
			body:     map[string]any{"action": "create", "salon_data": map[string]any{"title": "t", "protocol_type": "tea"}},
			wantCode: "SALON_MANAGEMENT_FAILED",
		},
		{
			name:     "create without title",
			path:     "/functions/v1/salon-manager",
			token:    token,
			body:     map[string]any{"action": "create", "salon_data": map[string]any{"protocol_type": "tea"}},
			wantCode: "SALON_MANAGEMENT_FAILED",
		},
		{
			name:     "unknown action",
			path:     "/functions/v1/salon-manager",
			body:     map[string]any{"action": "delete"},
			wantCode: "SALON_MANAGEMENT_FAILED",
			wantMsg:  `Invalid action. Use "create" or "list"`,
		},
		{
			name:     "trigger with text but no credential",
			path:     "/functions/v1/agent-scheduler",
			body:     map[string]any{"salon_id": "s1", "user_message": "hi"},
			wantCode: "AGENT_SCHEDULING_FAILED",
		},
		{
			name:     "trigger without salon id",
			path:     "/functions/v1/agent-scheduler",
			body:     map[string]any{},
			wantCode: "AGENT_SCHEDULING_FAILED",
		},
		{
			name:     "send message anonymously",
			path:     "/api/v1/salons/s1/messages",
			body:     map[string]any{"content": "hi"},
			wantCode: "MESSAGE_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, nethttp.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
			require.NotNil(t, env.Error, rec.Body.String())
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, env.Error.Message)
			}
		})
	}

	rec, env := do(t, router, nethttp.MethodGet, "/api/v1/salons/missing", "", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SALON_FAILED", env.Error.Code)
}

func TestAgentScheduler(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "lin")
	salon := createSalon(t, router, token, "AI与咖啡", "coffee")

	rec, env := do(t, router, nethttp.MethodPost, "/functions/v1/agent-scheduler", token, map[string]any{
		"salon_id":      salon.ID,
		"user_message":  "什么是知识沙龙",
		"protocol_type": "coffee",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Success   bool                 `json:"success"`
		SalonID   string               `json:"salon_id"`
		Responses []model.AgentMessage `json:"responses"`
		Message   string               `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Success)
	assert.Equal(t, salon.ID, data.SalonID)
	assert.Equal(t, "智能体协作响应成功", data.Message)
	require.Len(t, data.Responses, 4)
	assert.Equal(t, "感谢您的提问。我将协调专家团队为您提供全面的见解。", data.Responses[0].Content)

	rec, env = do(t, router, nethttp.MethodPost, "/functions/v1/agent-scheduler", "", map[string]any{
		"salon_id":    salon.ID,
		"agent_roles": []string{},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Empty(t, data.Responses)
}

func TestAuthMeAndProfile(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "lin")

	rec, env := do(t, router, nethttp.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "lin", me.Username)

	rec, env = do(t, router, nethttp.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var profile model.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	require.NotNil(t, profile.Username)
	assert.Equal(t, "lin", *profile.Username)

	rec, env = do(t, router, nethttp.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_FAILED", env.Error.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec, _ := do(t, router, nethttp.MethodGet, "/healthz", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"app":"coffee-salon"`)
}

func TestStreamReplaysThenDeliversLive(t *testing.T) {
	router := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	token := register(t, router, "lin")
	salon := createSalon(t, router, token, "AI与咖啡", "tea")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/salons/" + salon.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEntry := func() model.TranscriptEntry {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame handler.StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		require.Equal(t, "entry", frame.Type, frame.Error)
		require.NotNil(t, frame.Entry)
		return *frame.Entry
	}

	welcome := readEntry()
	assert.Equal(t, model.RoleHost, welcome.Role)
	assert.Contains(t, welcome.Content, "茶协议（深度传承）")

	rec, _ := do(t, router, nethttp.MethodPost, "/api/v1/salons/"+salon.ID+"/messages", token, map[string]any{
		"content": "你好",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	userEntry := readEntry()
	assert.Equal(t, model.EntryUser, userEntry.Type)
	assert.Equal(t, "你好", userEntry.Content)
	for _, role := range []model.AgentRole{model.RoleHost, model.RoleExpert, model.RoleResearcher, model.RoleAnalyst} {
		assert.Equal(t, role, readEntry().Role)
	}

	// a reconnect with the last cursor gets nothing it has already seen
	resumed, _, err := websocket.DefaultDialer.Dial(wsURL+"?after="+welcome.Cursor, nil)
	require.NoError(t, err)
	defer resumed.Close()
	require.NoError(t, resumed.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame handler.StreamFrame
	require.NoError(t, resumed.ReadJSON(&frame))
	require.NotNil(t, frame.Entry)
	assert.Equal(t, userEntry.ID, frame.Entry.ID)
}

func TestSalonManagerListIsPublic(t *testing.T) {
	router := newTestRouter(t)
	token := register(t, router, "lin")
	createSalon(t, router, token, "AI与咖啡", "coffee")

	for _, caller := range []string{"", "not-a-token"} {
		rec, env := do(t, router, nethttp.MethodPost, "/functions/v1/salon-manager", caller, map[string]any{"action": "list"})
		require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
		var listed struct {
			Salons []model.Salon `json:"salons"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &listed))
		assert.Len(t, listed.Salons, 1)
	}
}
