package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"coffee-salon/internal/app"
	"coffee-salon/internal/transport/http/middleware"
	"coffee-salon/internal/transport/http/response"
)

type SalonHandler struct {
	salonService   *app.SalonService
	messageService *app.MessageService
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

func NewSalonHandler(salonService *app.SalonService, messageService *app.MessageService) *SalonHandler {
	return &SalonHandler{salonService: salonService, messageService: messageService}
}

func (h *SalonHandler) Get(c *gin.Context) {
	salon, err := h.salonService.GetSalon(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, response.CodeSalonFailed, err)
		return
	}
	response.OK(c, gin.H{"salon": salon})
}

func (h *SalonHandler) ListMessages(c *gin.Context) {
	entries, err := h.messageService.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, response.CodeMessageFailed, err)
		return
	}
	response.OK(c, gin.H{"messages": entries})
}

func (h *SalonHandler) SendMessage(c *gin.Context) {
	ident, err := middleware.Identity(c)
	if err != nil {
		fail(c, response.CodeMessageFailed, err)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, response.CodeMessageFailed, errors.Join(app.ErrInvalidInput, err))
		return
	}

	result, err := h.messageService.SendUserMessage(c.Request.Context(), ident, c.Param("id"), req.Content)
	if err != nil {
		fail(c, response.CodeMessageFailed, err)
		return
	}
	response.OK(c, result)
}
