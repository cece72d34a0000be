package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSalonManagementFailed = "SALON_MANAGEMENT_FAILED"
	CodeAgentSchedulingFailed = "AGENT_SCHEDULING_FAILED"
	CodeAuthFailed            = "AUTH_FAILED"
	CodeSalonFailed           = "SALON_FAILED"
	CodeMessageFailed         = "MESSAGE_FAILED"
	CodeInternalServer        = "INTERNAL_SERVER_ERROR"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type APIResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Data: data})
}

// Error writes the failure envelope. Every failure kind is reported as 500.
func Error(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse{
		Error: &ErrorBody{Code: code, Message: message},
	})
}
