package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/internal/adapter/gin/httperr"
	"user-reputation-service/internal/adapter/gin/middleware"
	useruc "user-reputation-service/internal/usecase/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

// UserHandler handles HTTP requests for account management and listings
type UserHandler struct {
	uc  useruc.Service
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc useruc.Service, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Email       string   `json:"email" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	PhoneNumber string   `json:"phone_number" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Roles       []string `json:"roles"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	Email       *string  `json:"email"`
	Name        *string  `json:"name"`
	PhoneNumber *string  `json:"phone_number"`
	Password    *string  `json:"password"`
	Image       *string  `json:"image"`
	Roles       []string `json:"roles"`
}

// UpdateProfileRequest represents the HTTP request body for editing one's own account
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
	Image       *string `json:"image"`
}

// DeleteUserRequest carries the confirmation token, "delete-<id>".
type DeleteUserRequest struct {
	ConfirmationToken string `json:"confirmation_token"`
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create user request", zap.Error(err))
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), middleware.Requester(c), useruc.CreateUserRequest{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Roles:       req.Roles,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*u))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), middleware.Requester(c), useruc.GetUserRequest{ID: id})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*u))
}

// UpdateUser handles PUT /v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid update user request", zap.Error(err))
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	u, err := h.uc.UpdateUser(c.Request.Context(), middleware.Requester(c), useruc.UpdateUserRequest{
		ID:          id,
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Image:       req.Image,
		Roles:       req.Roles,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*u))
}

// DeleteUser handles DELETE /v1/users/:id. The token comes from the JSON body
// or the "confirm" query parameter.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req DeleteUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "validation_error", err.Error())
			return
		}
	}
	if req.ConfirmationToken == "" {
		req.ConfirmationToken = c.Query("confirm")
	}

	err := h.uc.DeleteUser(c.Request.Context(), middleware.Requester(c), useruc.DeleteUserRequest{
		ID:                id,
		ConfirmationToken: req.ConfirmationToken,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BlockUser handles POST /v1/users/:id/block
func (h *UserHandler) BlockUser(c *gin.Context) {
	h.setBlocked(c, true)
}

// UnblockUser handles POST /v1/users/:id/unblock
func (h *UserHandler) UnblockUser(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *UserHandler) setBlocked(c *gin.Context, blocked bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	u, err := h.uc.SetBlocked(c.Request.Context(), middleware.Requester(c), useruc.BlockUserRequest{ID: id, Blocked: blocked})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*u))
}

// ListUsers handles GET /v1/users?search=&role=&only_role=&order=&page=&limit=
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListVisibleUsers(c.Request.Context(), middleware.Requester(c), useruc.ListUsersRequest{
		Search:         c.Query("search"),
		Role:           c.Query("role"),
		RestrictToRole: c.Query("only_role"),
		OrderBy:        c.Query("order"),
		Page:           queryInt(c, "page"),
		Limit:          queryInt(c, "limit"),
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(resp))
}

// RateableUsers handles GET /v1/users/rateable?search=&only_unrated=&exclude_admins=&page=&limit=
func (h *UserHandler) RateableUsers(c *gin.Context) {
	resp, err := h.uc.FindRateableUsers(c.Request.Context(), middleware.Requester(c), useruc.RateableUsersRequest{
		Search:        c.Query("search"),
		OnlyUnrated:   queryBool(c, "only_unrated"),
		ExcludeAdmins: queryBool(c, "exclude_admins"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(resp))
}

// RatedUserIDs handles GET /v1/users/rated
func (h *UserHandler) RatedUserIDs(c *gin.Context) {
	ids, err := h.uc.RatedUserIDs(c.Request.Context(), middleware.Requester(c))
	if err != nil {
		httperr.Write(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

// Me handles GET /v1/me
func (h *UserHandler) Me(c *gin.Context) {
	requester := middleware.Requester(c)
	if requester == nil {
		httperr.Write(c, pkgerrors.ErrUnauthenticated)
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), requester, useruc.GetUserRequest{ID: requester.ID})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*u))
}

// UpdateProfile handles PUT /v1/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	u, err := h.uc.UpdateProfile(c.Request.Context(), middleware.Requester(c), useruc.UpdateProfileRequest{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Image:       req.Image,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*u))
}
