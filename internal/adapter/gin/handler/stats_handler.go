package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/internal/adapter/gin/httperr"
	"user-reputation-service/internal/adapter/gin/middleware"
	domainstats "user-reputation-service/internal/domain/stats"
	domainuser "user-reputation-service/internal/domain/user"
	statsuc "user-reputation-service/internal/usecase/stats"
)

// StatsService is the monthly statistics aggregator.
type StatsService interface {
	MonthlyStats(ctx context.Context, year int) (*domainstats.Monthly, error)
	GeneralStats(ctx context.Context) (*domainstats.General, error)
	NextMonthEstimate(ctx context.Context) (*domainstats.Estimate, error)
	Dashboard(ctx context.Context, requester *domainuser.User, year int) (*statsuc.AdminDashboard, error)
}

// StatsHandler handles HTTP requests for the administrator statistics
type StatsHandler struct {
	uc  StatsService
	log *zap.Logger
	now func() time.Time
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(uc StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{uc: uc, log: log, now: time.Now}
}

// year reads ?year=. Missing or zero means the current year; anything that is not a
// whole number writes a 400 and returns false.
func (h *StatsHandler) year(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return h.now().Year(), true
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		httperr.BadRequest(c, "invalid_year", "year must be a whole number")
		return 0, false
	}
	if y == 0 {
		return h.now().Year(), true
	}
	return y, true
}

// Monthly handles GET /v1/admin/stats/monthly?year=
func (h *StatsHandler) Monthly(c *gin.Context) {
	year, ok := h.year(c)
	if !ok {
		return
	}
	m, err := h.uc.MonthlyStats(c.Request.Context(), year)
	if err != nil {
		httperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, toMonthly(m))
}

// General handles GET /v1/admin/stats/general
func (h *StatsHandler) General(c *gin.Context) {
	g, err := h.uc.GeneralStats(c.Request.Context())
	if err != nil {
		httperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, toGeneral(g))
}

// Estimate handles GET /v1/admin/stats/estimate
func (h *StatsHandler) Estimate(c *gin.Context) {
	e, err := h.uc.NextMonthEstimate(c.Request.Context())
	if err != nil {
		httperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, toEstimate(e))
}

// Dashboard handles GET /v1/admin/dashboard?year=
func (h *StatsHandler) Dashboard(c *gin.Context) {
	year, ok := h.year(c)
	if !ok {
		return
	}
	d, err := h.uc.Dashboard(c.Request.Context(), middleware.Requester(c), year)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, AdminDashboardResponse{
		Monthly:  toMonthly(d.Monthly),
		General:  toGeneral(d.General),
		Estimate: toEstimate(d.Estimate),
	})
}
