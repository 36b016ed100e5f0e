package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/internal/adapter/gin/httperr"
	"user-reputation-service/internal/adapter/gin/middleware"
	domainrating "user-reputation-service/internal/domain/rating"
	ratinguc "user-reputation-service/internal/usecase/rating"
	pkgerrors "user-reputation-service/pkg/errors"
)

// RatingService is the reputation ledger.
type RatingService interface {
	SubmitRating(ctx context.Context, raterID, rateeID int64, stars int, comment string) (*domainrating.Rating, error)
	DeleteRating(ctx context.Context, ratingID, requesterID int64) error
	Summary(ctx context.Context, userID int64) (domainrating.Summary, error)
	RatingsGiven(ctx context.Context, userID int64) ([]domainrating.Rating, error)
	RatingsReceived(ctx context.Context, userID int64) ([]domainrating.Rating, error)
	Dashboard(ctx context.Context, userID int64, window int) (*ratinguc.Dashboard, error)
}

// RatingHandler handles HTTP requests for ratings and the client dashboard
type RatingHandler struct {
	uc  RatingService
	log *zap.Logger
}

// NewRatingHandler creates a new RatingHandler instance
func NewRatingHandler(uc RatingService, log *zap.Logger) *RatingHandler {
	return &RatingHandler{uc: uc, log: log}
}

// SubmitRatingRequest represents the HTTP request body for rating a user
type SubmitRatingRequest struct {
	RatedID int64  `json:"rated_id" binding:"required"`
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// SubmitRating handles POST /v1/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	requester := middleware.Requester(c)
	if requester == nil {
		httperr.Write(c, pkgerrors.ErrUnauthenticated)
		return
	}

	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid rating request", zap.Error(err))
		httperr.BadRequest(c, "validation_error", err.Error())
		return
	}

	r, err := h.uc.SubmitRating(c.Request.Context(), requester.ID, req.RatedID, req.Stars, req.Comment)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRatingResponse(*r))
}

// DeleteRating handles DELETE /v1/ratings/:id
func (h *RatingHandler) DeleteRating(c *gin.Context) {
	requester := middleware.Requester(c)
	if requester == nil {
		httperr.Write(c, pkgerrors.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteRating(c.Request.Context(), id, requester.ID); err != nil {
		httperr.Write(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Given handles GET /v1/ratings/given
func (h *RatingHandler) Given(c *gin.Context) {
	h.list(c, h.uc.RatingsGiven)
}

// Received handles GET /v1/ratings/received
func (h *RatingHandler) Received(c *gin.Context) {
	h.list(c, h.uc.RatingsReceived)
}

func (h *RatingHandler) list(c *gin.Context, fetch func(context.Context, int64) ([]domainrating.Rating, error)) {
	requester := middleware.Requester(c)
	if requester == nil {
		httperr.Write(c, pkgerrors.ErrUnauthenticated)
		return
	}

	rs, err := fetch(c.Request.Context(), requester.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": toRatingResponses(rs)})
}

// Reputation handles GET /v1/users/:id/reputation
func (h *RatingHandler) Reputation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s, err := h.uc.Summary(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{UserID: id, Average: s.Average, Count: s.Count})
}

// Dashboard handles GET /v1/me/dashboard
func (h *RatingHandler) Dashboard(c *gin.Context) {
	requester := middleware.Requester(c)
	if requester == nil {
		httperr.Write(c, pkgerrors.ErrUnauthenticated)
		return
	}

	d, err := h.uc.Dashboard(c.Request.Context(), requester.ID, ratinguc.DashboardWindow)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toClientDashboard(d))
}
