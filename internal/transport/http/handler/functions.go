package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"coffee-salon/internal/app"
	"coffee-salon/internal/transport/http/middleware"
	"coffee-salon/internal/transport/http/response"
)

const schedulingSucceeded = "智能体协作响应成功"

var errInvalidAction = errors.New(`Invalid action. Use "create" or "list"`)

// FunctionsHandler serves the two function-style RPC endpoints browser
// clients call.
type FunctionsHandler struct {
	salonService   *app.SalonService
	messageService *app.MessageService
}

type SalonManagerRequest struct {
	Action    string    `json:"action"`
	SalonData SalonData `json:"salon_data"`
}

type SalonData struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	ProtocolType   string  `json:"protocol_type"`
	Topic          *string `json:"topic"`
	TargetAudience *string `json:"target_audience"`
	Status         string  `json:"status"`
}

type AgentSchedulerRequest struct {
	SalonID      string   `json:"salon_id"`
	UserMessage  string   `json:"user_message"`
	ProtocolType string   `json:"protocol_type"`
	AgentRoles   []string `json:"agent_roles"`
}

func NewFunctionsHandler(salonService *app.SalonService, messageService *app.MessageService) *FunctionsHandler {
	return &FunctionsHandler{salonService: salonService, messageService: messageService}
}

func (h *FunctionsHandler) SalonManager(c *gin.Context) {
	const code = response.CodeSalonManagementFailed

	var req SalonManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, code, errors.Join(app.ErrInvalidInput, err))
		return
	}

	switch req.Action {
	case "create":
		ident, err := middleware.Identity(c)
		if err != nil {
			fail(c, code, err)
			return
		}
		salon, err := h.salonService.CreateSalon(c.Request.Context(), ident, app.CreateSalonInput{
			Title:          req.SalonData.Title,
			Description:    req.SalonData.Description,
			ProtocolType:   req.SalonData.ProtocolType,
			Topic:          req.SalonData.Topic,
			TargetAudience: req.SalonData.TargetAudience,
		})
		if err != nil {
			fail(c, code, err)
			return
		}
		response.OK(c, gin.H{"success": true, "salon": salon})
	case "list":
		salons, err := h.salonService.ListSalons(c.Request.Context(), req.SalonData.Status)
		if err != nil {
			fail(c, code, err)
			return
		}
		response.OK(c, gin.H{"salons": salons})
	default:
		fail(c, code, errInvalidAction)
	}
}

func (h *FunctionsHandler) AgentScheduler(c *gin.Context) {
	const code = response.CodeAgentSchedulingFailed

	var req AgentSchedulerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, code, errors.Join(app.ErrInvalidInput, err))
		return
	}

	ident, authErr := middleware.Identity(c)
	if authErr != nil && req.UserMessage != "" {
		fail(c, code, authErr)
		return
	}

	result, err := h.messageService.TriggerDiscussion(c.Request.Context(), ident, app.TriggerInput{
		SalonID:      req.SalonID,
		UserMessage:  req.UserMessage,
		ProtocolType: req.ProtocolType,
		AgentRoles:   req.AgentRoles,
	})
	if err != nil {
		fail(c, code, err)
		return
	}

	response.OK(c, gin.H{
		"success":      true,
		"salon_id":     result.SalonID,
		"user_message": result.UserMessage,
		"responses":    result.Responses,
		"message":      schedulingSucceeded,
	})
}
