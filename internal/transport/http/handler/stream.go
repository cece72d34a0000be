package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"coffee-salon/internal/app"
	"coffee-salon/internal/model"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/transport/http/response"
)

const writeWait = 10 * time.Second

// StreamHandler pushes a salon transcript over a websocket: everything after
// the client's cursor first, then new entries as they are written.
type StreamHandler struct {
	hub            *realtime.Hub
	messageService *app.MessageService
	upgrader       websocket.Upgrader
	pingInterval   time.Duration
	readLimit      int64
}

// StreamFrame is one server-to-client websocket message.
//
//	<- {type: "entry", entry: TranscriptEntry}
//	<- {type: "error", error: string}
type StreamFrame struct {
	Type  string                 `json:"type"`
	Entry *model.TranscriptEntry `json:"entry,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func NewStreamHandler(hub *realtime.Hub, messageService *app.MessageService, pingInterval time.Duration, readLimit int64) *StreamHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if readLimit <= 0 {
		readLimit = 4096
	}
	return &StreamHandler{
		hub:            hub,
		messageService: messageService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS is handled at the HTTP layer
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		readLimit:    readLimit,
	}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	salonID := c.Param("id")
	after, err := model.ParseCursor(c.Query("after"))
	if err != nil {
		fail(c, response.CodeMessageFailed, errors.Join(app.ErrInvalidInput, err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	logger := log.Ctx(ctx).With().Str("salon_id", salonID).Logger()

	conn.SetReadLimit(h.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	// clients only send control frames; a read error means they are gone
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	err = h.hub.Stream(ctx, salonID, after, h.messageService.ListMessages, func(entry model.TranscriptEntry) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(StreamFrame{Type: "entry", Entry: &entry})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("transcript stream ended")
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(StreamFrame{Type: "error", Error: err.Error()})
	}
}
