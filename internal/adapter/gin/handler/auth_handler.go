package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/internal/adapter/gin/httperr"
	authuc "user-reputation-service/internal/usecase/auth"
	useruc "user-reputation-service/internal/usecase/user"
)

// AuthService is the registration and login usecase.
type AuthService interface {
	Register(ctx context.Context, in authuc.RegisterRequest) (*useruc.User, error)
	Login(ctx context.Context, in authuc.LoginRequest) (*authuc.Session, error)
}

// AuthHandler handles HTTP requests for registration and login
type AuthHandler struct {
	uc  AuthService
	log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// RegisterRequest represents the HTTP request body for registering
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Name        string `json:"name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// LoginRequest represents the HTTP request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token and where the client should land.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Landing   string       `json:"landing"`
	User      UserResponse `json:"user"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid register request", zap.Error(err))
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	u, err := h.uc.Register(c.Request.Context(), authuc.RegisterRequest{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*u))
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	s, err := h.uc.Login(c.Request.Context(), authuc.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Landing:   s.Landing,
		User:      toUserResponse(s.User),
	})
}
