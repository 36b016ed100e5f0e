package handler

import (
	"time"

	domainrating "user-reputation-service/internal/domain/rating"
	domainstats "user-reputation-service/internal/domain/stats"
	domainuser "user-reputation-service/internal/domain/user"
	ratinguc "user-reputation-service/internal/usecase/rating"
	useruc "user-reputation-service/internal/usecase/user"
)

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	Roles       []string   `json:"roles"`
	Level       int        `json:"level"`
	IsBlocked   bool       `json:"is_blocked"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Image       *string    `json:"image,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total       int64 `json:"total"`
	Page        int64 `json:"page"`
	Limit       int64 `json:"limit"`
	TotalPages  int64 `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// ListUsersResponse represents the HTTP response for listing users
type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// RatingResponse is one rating with the display names of both parties.
type RatingResponse struct {
	ID        int64     `json:"id"`
	RaterID   int64     `json:"rater_id"`
	RaterName string    `json:"rater_name,omitempty"`
	RatedID   int64     `json:"rated_id"`
	RatedName string    `json:"rated_name,omitempty"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryResponse is the reputation of one user.
type SummaryResponse struct {
	UserID  int64   `json:"user_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ClientDashboardResponse is the landing page of a client.
type ClientDashboardResponse struct {
	Average        float64          `json:"average"`
	ReceivedCount  int64            `json:"received_count"`
	GivenCount     int              `json:"given_count"`
	RecentGiven    []RatingResponse `json:"recent_given"`
	RecentReceived []RatingResponse `json:"recent_received"`
}

// MonthResponse is one month of the monthly series.
type MonthResponse struct {
	Month         int   `json:"month"`
	Registrations int64 `json:"registrations"`
	Actives       int64 `json:"actives"`
}

// MonthlyResponse is the twelve-month series of one year.
type MonthlyResponse struct {
	Year   int             `json:"year"`
	Months []MonthResponse `json:"months"`
}

// GeneralResponse summarises the user population.
type GeneralResponse struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Blocked int64 `json:"blocked"`
	Admins  int64 `json:"admins"`
	Clients int64 `json:"clients"`
}

// EstimateResponse is the projected registrations of the next month.
type EstimateResponse struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Basis []int64 `json:"basis"`
	Value int64   `json:"value"`
}

// AdminDashboardResponse is the landing page of an administrator.
type AdminDashboardResponse struct {
	Monthly  MonthlyResponse  `json:"monthly"`
	General  GeneralResponse  `json:"general"`
	Estimate EstimateResponse `json:"estimate"`
}

func toUserResponse(u useruc.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Roles:       u.Roles,
		Level:       u.Level,
		IsBlocked:   u.IsBlocked,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		Image:       u.Image,
	}
}

func toListResponse(resp *useruc.ListUsersResponse) ListUsersResponse {
	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toUserResponse(u)
	}
	return ListUsersResponse{Users: users, Pagination: toPagination(resp.Pagination)}
}

func toPagination(p *domainuser.Pagination) *Pagination {
	if p == nil {
		return nil
	}
	return &Pagination{
		Total:       p.Total,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  p.TotalPages,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}

func toRatingResponse(r domainrating.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		RaterID:   r.RaterID,
		RaterName: r.RaterName,
		RatedID:   r.RateeID,
		RatedName: r.RateeName,
		Stars:     r.Stars,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toRatingResponses(rs []domainrating.Rating) []RatingResponse {
	out := make([]RatingResponse, len(rs))
	for i, r := range rs {
		out[i] = toRatingResponse(r)
	}
	return out
}

func toClientDashboard(d *ratinguc.Dashboard) ClientDashboardResponse {
	return ClientDashboardResponse{
		Average:        d.Summary.Average,
		ReceivedCount:  d.Summary.Count,
		GivenCount:     d.GivenCount,
		RecentGiven:    toRatingResponses(d.RecentGiven),
		RecentReceived: toRatingResponses(d.RecentReceived),
	}
}

func toMonthly(m *domainstats.Monthly) MonthlyResponse {
	months := make([]MonthResponse, 12)
	for i := range months {
		months[i] = MonthResponse{Month: i + 1, Registrations: m.Registrations[i], Actives: m.Actives[i]}
	}
	return MonthlyResponse{Year: m.Year, Months: months}
}

func toGeneral(g *domainstats.General) GeneralResponse {
	return GeneralResponse{Total: g.Total, Active: g.Active, Blocked: g.Blocked, Admins: g.Admins, Clients: g.Clients}
}

func toEstimate(e *domainstats.Estimate) EstimateResponse {
	return EstimateResponse{Year: e.Year, Month: int(e.Month), Basis: e.Basis, Value: e.Value}
}
