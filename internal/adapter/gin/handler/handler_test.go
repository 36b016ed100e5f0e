package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	grpcmiddleware "user-reputation-service/internal/adapter/grpc/middleware"
	domainrating "user-reputation-service/internal/domain/rating"
	"user-reputation-service/internal/domain/role"
	domainstats "user-reputation-service/internal/domain/stats"
	domainuser "user-reputation-service/internal/domain/user"
	authuc "user-reputation-service/internal/usecase/auth"
	ratinguc "user-reputation-service/internal/usecase/rating"
	statsuc "user-reputation-service/internal/usecase/stats"
	useruc "user-reputation-service/internal/usecase/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

var (
	admin  = &domainuser.User{ID: 1, Name: "Ada", Roles: role.NewSet(role.Admin)}
	client = &domainuser.User{ID: 2, Name: "Bob", Roles: role.NewSet(role.Client)}
)

// setupEngine returns a test engine whose requests are authenticated as requester.
func setupEngine(requester *domainuser.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if requester != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(grpcmiddleware.WithRequester(c.Request.Context(), requester))
			c.Next()
		})
	}
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		m := new(MockAuthService)
		h := NewAuthHandler(m, zaptest.NewLogger(t))
		r := setupEngine(nil)
		r.POST("/register", h.Register)

		m.On("Register", mock.Anything, authuc.RegisterRequest{
			Email: "bob@example.com", Name: "Bob", PhoneNumber: "12345678", Password: "secret123",
		}).Return(&useruc.User{ID: 9, Email: "bob@example.com", Roles: []string{"CLIENT"}}, nil)

		w := do(r, http.MethodPost, "/register", RegisterRequest{
			Email: "bob@example.com", Name: "Bob", PhoneNumber: "12345678", Password: "secret123",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(9), resp.ID)
		assert.Equal(t, []string{"CLIENT"}, resp.Roles)
	})

	t.Run("Register Email Taken", func(t *testing.T) {
		m := new(MockAuthService)
		h := NewAuthHandler(m, zaptest.NewLogger(t))
		r := setupEngine(nil)
		r.POST("/register", h.Register)

		m.On("Register", mock.Anything, mock.Anything).Return(nil, pkgerrors.ErrEmailTaken)

		w := do(r, http.MethodPost, "/register", RegisterRequest{
			Email: "bob@example.com", Name: "Bob", PhoneNumber: "12345678", Password: "secret123",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Login Blocked", func(t *testing.T) {
		m := new(MockAuthService)
		h := NewAuthHandler(m, zaptest.NewLogger(t))
		r := setupEngine(nil)
		r.POST("/login", h.Login)

		m.On("Login", mock.Anything, mock.Anything).Return(nil, pkgerrors.ErrAccountBlocked)

		w := do(r, http.MethodPost, "/login", LoginRequest{Email: "bob@example.com", Password: "secret123"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Login Landing", func(t *testing.T) {
		m := new(MockAuthService)
		h := NewAuthHandler(m, zaptest.NewLogger(t))
		r := setupEngine(nil)
		r.POST("/login", h.Login)

		m.On("Login", mock.Anything, authuc.LoginRequest{Email: "ada@example.com", Password: "secret123"}).
			Return(&authuc.Session{Token: "tok", Landing: authuc.LandingAdmin, User: useruc.User{ID: 1}}, nil)

		w := do(r, http.MethodPost, "/login", LoginRequest{Email: "ada@example.com", Password: "secret123"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp.Token)
		assert.Equal(t, "admin", resp.Landing)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		h := NewAuthHandler(new(MockAuthService), zaptest.NewLogger(t))
		r := setupEngine(nil)
		r.POST("/login", h.Login)

		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("invalid json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_List(t *testing.T) {
	m := new(MockUserUsecase)
	h := NewUserHandler(m, zaptest.NewLogger(t))
	r := setupEngine(admin)
	r.GET("/users", h.ListUsers)

	m.On("ListVisibleUsers", mock.Anything, admin, useruc.ListUsersRequest{
		Search: "bo", Role: "CLIENT", OrderBy: "name", Page: 2, Limit: 5,
	}).Return(&useruc.ListUsersResponse{
		Users:      []useruc.User{{ID: 2, Name: "Bob", Roles: []string{"CLIENT"}}},
		Pagination: domainuser.NewPagination(6, 2, 5),
	}, nil)

	w := do(r, http.MethodGet, "/users?search=bo&role=CLIENT&order=name&page=2&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListUsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "Bob", resp.Users[0].Name)
	assert.Equal(t, int64(2), resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasPrevious)
	assert.False(t, resp.Pagination.HasNext)
}

func TestUserHandler_ListDenied(t *testing.T) {
	m := new(MockUserUsecase)
	h := NewUserHandler(m, zaptest.NewLogger(t))
	r := setupEngine(client)
	r.GET("/users", h.ListUsers)

	m.On("ListVisibleUsers", mock.Anything, client, mock.Anything).
		Return(nil, pkgerrors.NewPermissionDeniedError("administrator role required"))

	w := do(r, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_Manage(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		m := new(MockUserUsecase)
		h := NewUserHandler(m, zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.POST("/users", h.CreateUser)

		m.On("CreateUser", mock.Anything, admin, mock.MatchedBy(func(in useruc.CreateUserRequest) bool {
			return in.Email == "c@example.com" && len(in.Roles) == 1 && in.Roles[0] == "CLIENT"
		})).Return(&useruc.User{ID: 5}, nil)

		w := do(r, http.MethodPost, "/users", CreateUserRequest{
			Email: "c@example.com", Name: "Cy", PhoneNumber: "12345678", Password: "secret123", Roles: []string{"CLIENT"},
		})
		assert.Equal(t, http.StatusCreated, w.Code)
		m.AssertExpectations(t)
	})

	t.Run("Update Invalid ID", func(t *testing.T) {
		h := NewUserHandler(new(MockUserUsecase), zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.PUT("/users/:id", h.UpdateUser)

		w := do(r, http.MethodPut, "/users/abc", UpdateUserRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update Partial", func(t *testing.T) {
		m := new(MockUserUsecase)
		h := NewUserHandler(m, zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.PUT("/users/:id", h.UpdateUser)

		m.On("UpdateUser", mock.Anything, admin, mock.MatchedBy(func(in useruc.UpdateUserRequest) bool {
			return in.ID == 2 && in.Name != nil && *in.Name == "Robert" && in.Email == nil && in.Roles == nil
		})).Return(&useruc.User{ID: 2, Name: "Robert"}, nil)

		w := do(r, http.MethodPut, "/users/2", map[string]any{"name": "Robert"})
		assert.Equal(t, http.StatusOK, w.Code)
		m.AssertExpectations(t)
	})

	t.Run("Delete With Token", func(t *testing.T) {
		m := new(MockUserUsecase)
		h := NewUserHandler(m, zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.DELETE("/users/:id", h.DeleteUser)

		m.On("DeleteUser", mock.Anything, admin, useruc.DeleteUserRequest{ID: 2, ConfirmationToken: "delete-2"}).Return(nil)

		w := do(r, http.MethodDelete, "/users/2?confirm=delete-2", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(r, http.MethodDelete, "/users/2", DeleteUserRequest{ConfirmationToken: "delete-2"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Block Not Found", func(t *testing.T) {
		m := new(MockUserUsecase)
		h := NewUserHandler(m, zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.POST("/users/:id/block", h.BlockUser)

		m.On("SetBlocked", mock.Anything, admin, useruc.BlockUserRequest{ID: 99, Blocked: true}).
			Return(nil, pkgerrors.NewNotFoundError("user", "user not found: id=99"))

		w := do(r, http.MethodPost, "/users/99/block", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Internal Error Is Hidden", func(t *testing.T) {
		m := new(MockUserUsecase)
		h := NewUserHandler(m, zaptest.NewLogger(t))
		r := setupEngine(admin)
		r.GET("/users/:id", h.GetUser)

		m.On("GetUser", mock.Anything, admin, useruc.GetUserRequest{ID: 2}).
			Return(nil, pkgerrors.NewStorageError("get user", errors.New("connection reset")))

		w := do(r, http.MethodGet, "/users/2", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestUserHandler_Rateable(t *testing.T) {
	m := new(MockUserUsecase)
	h := NewUserHandler(m, zaptest.NewLogger(t))
	r := setupEngine(client)
	r.GET("/users/rateable", h.RateableUsers)
	r.GET("/users/rated", h.RatedUserIDs)

	m.On("FindRateableUsers", mock.Anything, client, useruc.RateableUsersRequest{OnlyUnrated: true}).
		Return(&useruc.ListUsersResponse{Users: []useruc.User{}}, nil)
	m.On("RatedUserIDs", mock.Anything, client).Return(nil, nil)

	w := do(r, http.MethodGet, "/users/rateable?only_unrated=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users/rated", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ids":[]}`, w.Body.String())
}

func TestRatingHandler_Submit(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", pkgerrors.ErrDuplicateRating, http.StatusConflict},
		{"self", pkgerrors.ErrSelfRating, http.StatusBadRequest},
		{"stars", pkgerrors.ErrInvalidRatingValue, http.StatusBadRequest},
		{"unknown ratee", pkgerrors.NewNotFoundError("user", "user not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockRatingService)
			h := NewRatingHandler(m, zaptest.NewLogger(t))
			r := setupEngine(client)
			r.POST("/ratings", h.SubmitRating)

			if tt.err != nil {
				m.On("SubmitRating", mock.Anything, int64(2), int64(3), 4, "solid").Return(nil, tt.err)
			} else {
				m.On("SubmitRating", mock.Anything, int64(2), int64(3), 4, "solid").
					Return(&domainrating.Rating{ID: 1, RaterID: 2, RateeID: 3, Stars: 4, Comment: "solid"}, nil)
			}

			w := do(r, http.MethodPost, "/ratings", SubmitRatingRequest{RatedID: 3, Stars: 4, Comment: "solid"})
			assert.Equal(t, tt.status, w.Code)
			m.AssertExpectations(t)
		})
	}
}

func TestRatingHandler_Unauthenticated(t *testing.T) {
	h := NewRatingHandler(new(MockRatingService), zaptest.NewLogger(t))
	r := setupEngine(nil)
	r.POST("/ratings", h.SubmitRating)

	w := do(r, http.MethodPost, "/ratings", SubmitRatingRequest{RatedID: 3, Stars: 4})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRatingHandler_Reads(t *testing.T) {
	m := new(MockRatingService)
	h := NewRatingHandler(m, zaptest.NewLogger(t))
	r := setupEngine(client)
	r.GET("/users/:id/reputation", h.Reputation)
	r.GET("/ratings/received", h.Received)
	r.GET("/me/dashboard", h.Dashboard)
	r.DELETE("/ratings/:id", h.DeleteRating)

	m.On("Summary", mock.Anything, int64(3)).Return(domainrating.Summary{}, nil)
	m.On("RatingsReceived", mock.Anything, int64(2)).Return([]domainrating.Rating{
		{ID: 8, RaterID: 3, RaterName: "Cy", RateeID: 2, Stars: 5},
	}, nil)
	m.On("Dashboard", mock.Anything, int64(2), ratinguc.DashboardWindow).Return(&ratinguc.Dashboard{
		Summary:    domainrating.Summary{Average: 4.5, Count: 2},
		GivenCount: 1,
	}, nil)
	m.On("DeleteRating", mock.Anything, int64(8), int64(2)).
		Return(pkgerrors.NewPermissionDeniedError("only the author of a rating may delete it"))

	w := do(r, http.MethodGet, "/users/3/reputation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3,"average":0,"count":0}`, w.Body.String())

	w = do(r, http.MethodGet, "/ratings/received", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rater_name":"Cy"`)

	w = do(r, http.MethodGet, "/me/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var d ClientDashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, 4.5, d.Average)
	assert.Equal(t, int64(2), d.ReceivedCount)

	w = do(r, http.MethodDelete, "/ratings/8", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatsHandler(t *testing.T) {
	m := new(MockStatsService)
	h := NewStatsHandler(m, zaptest.NewLogger(t))
	h.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	r := setupEngine(admin)
	r.GET("/monthly", h.Monthly)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/estimate", h.Estimate)

	monthly := &domainstats.Monthly{Year: 2024}
	monthly.Registrations[0] = 3
	m.On("MonthlyStats", mock.Anything, 2024).Return(monthly, nil)
	m.On("NextMonthEstimate", mock.Anything).Return(&domainstats.Estimate{Year: 2024, Month: time.April, Basis: []int64{3, 0, 4}, Value: 2}, nil)
	m.On("Dashboard", mock.Anything, admin, 2023).Return(&statsuc.AdminDashboard{
		Monthly:  &domainstats.Monthly{Year: 2023},
		General:  &domainstats.General{Total: 4, Clients: 3, Admins: 1},
		Estimate: &domainstats.Estimate{Year: 2024, Month: time.April},
	}, nil)

	w := do(r, http.MethodGet, "/monthly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp MonthlyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2024, resp.Year)
	require.Len(t, resp.Months, 12)
	assert.Equal(t, int64(3), resp.Months[0].Registrations)

	w = do(r, http.MethodGet, "/estimate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"year":2024,"month":4,"basis":[3,0,4],"value":2}`, w.Body.String())

	w = do(r, http.MethodGet, "/dashboard?year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var d AdminDashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, int64(3), d.General.Clients)
	assert.Equal(t, 4, d.Estimate.Month)
}

func TestStatsHandler_InvalidYear(t *testing.T) {
	m := new(MockStatsService)
	h := NewStatsHandler(m, zaptest.NewLogger(t))
	r := setupEngine(admin)
	r.GET("/monthly", h.Monthly)
	r.GET("/dashboard", h.Dashboard)

	for _, path := range []string{"/monthly?year=2024.7", "/dashboard?year=2024.7", "/monthly?year=soon"} {
		w := do(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "invalid_year", path)
	}
	m.AssertNotCalled(t, "MonthlyStats", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Dashboard", mock.Anything, mock.Anything, mock.Anything)
}
