package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"coffee-salon/internal/app"
	"coffee-salon/internal/transport/http/middleware"
	"coffee-salon/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Username string `json:"username" binding:"omitempty,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, response.CodeAuthFailed, errors.Join(app.ErrInvalidInput, err))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, response.CodeAuthFailed, errors.Join(app.ErrInvalidInput, err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ident, err := middleware.Identity(c)
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), ident)
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	response.OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	ident, err := middleware.Identity(c)
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	profile, err := h.authService.GetProfile(c.Request.Context(), ident)
	if err != nil {
		fail(c, response.CodeAuthFailed, err)
		return
	}
	response.OK(c, profile)
}

func authPayload(result *app.AuthResult) gin.H {
	return gin.H{
		"token": result.Token,
		"user": gin.H{
			"id":       result.User.ID,
			"username": result.User.Username,
			"email":    result.User.Email,
		},
	}
}
