package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	domainrating "user-reputation-service/internal/domain/rating"
	domainstats "user-reputation-service/internal/domain/stats"
	domainuser "user-reputation-service/internal/domain/user"
	authuc "user-reputation-service/internal/usecase/auth"
	ratinguc "user-reputation-service/internal/usecase/rating"
	statsuc "user-reputation-service/internal/usecase/stats"
	useruc "user-reputation-service/internal/usecase/user"
)

// MockUserUsecase is a mock implementation of user.Service
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) user(args mock.Arguments) (*useruc.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useruc.User), args.Error(1)
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, requester *domainuser.User, in useruc.CreateUserRequest) (*useruc.User, error) {
	return m.user(m.Called(ctx, requester, in))
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, requester *domainuser.User, in useruc.UpdateUserRequest) (*useruc.User, error) {
	return m.user(m.Called(ctx, requester, in))
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, requester *domainuser.User, in useruc.DeleteUserRequest) error {
	return m.Called(ctx, requester, in).Error(0)
}

func (m *MockUserUsecase) SetBlocked(ctx context.Context, requester *domainuser.User, in useruc.BlockUserRequest) (*useruc.User, error) {
	return m.user(m.Called(ctx, requester, in))
}

func (m *MockUserUsecase) GetUser(ctx context.Context, requester *domainuser.User, in useruc.GetUserRequest) (*useruc.User, error) {
	return m.user(m.Called(ctx, requester, in))
}

func (m *MockUserUsecase) UpdateProfile(ctx context.Context, requester *domainuser.User, in useruc.UpdateProfileRequest) (*useruc.User, error) {
	return m.user(m.Called(ctx, requester, in))
}

func (m *MockUserUsecase) ListVisibleUsers(ctx context.Context, requester *domainuser.User, in useruc.ListUsersRequest) (*useruc.ListUsersResponse, error) {
	args := m.Called(ctx, requester, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useruc.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) FindRateableUsers(ctx context.Context, requester *domainuser.User, in useruc.RateableUsersRequest) (*useruc.ListUsersResponse, error) {
	args := m.Called(ctx, requester, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useruc.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) RatedUserIDs(ctx context.Context, requester *domainuser.User) ([]int64, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in authuc.RegisterRequest) (*useruc.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useruc.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in authuc.LoginRequest) (*authuc.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authuc.Session), args.Error(1)
}

// MockRatingService is a mock implementation of RatingService
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) SubmitRating(ctx context.Context, raterID, rateeID int64, stars int, comment string) (*domainrating.Rating, error) {
	args := m.Called(ctx, raterID, rateeID, stars, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainrating.Rating), args.Error(1)
}

func (m *MockRatingService) DeleteRating(ctx context.Context, ratingID, requesterID int64) error {
	return m.Called(ctx, ratingID, requesterID).Error(0)
}

func (m *MockRatingService) Summary(ctx context.Context, userID int64) (domainrating.Summary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domainrating.Summary), args.Error(1)
}

func (m *MockRatingService) RatingsGiven(ctx context.Context, userID int64) ([]domainrating.Rating, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domainrating.Rating), args.Error(1)
}

func (m *MockRatingService) RatingsReceived(ctx context.Context, userID int64) ([]domainrating.Rating, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domainrating.Rating), args.Error(1)
}

func (m *MockRatingService) Dashboard(ctx context.Context, userID int64, window int) (*ratinguc.Dashboard, error) {
	args := m.Called(ctx, userID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratinguc.Dashboard), args.Error(1)
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) MonthlyStats(ctx context.Context, year int) (*domainstats.Monthly, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainstats.Monthly), args.Error(1)
}

func (m *MockStatsService) GeneralStats(ctx context.Context) (*domainstats.General, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainstats.General), args.Error(1)
}

func (m *MockStatsService) NextMonthEstimate(ctx context.Context) (*domainstats.Estimate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainstats.Estimate), args.Error(1)
}

func (m *MockStatsService) Dashboard(ctx context.Context, requester *domainuser.User, year int) (*statsuc.AdminDashboard, error) {
	args := m.Called(ctx, requester, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsuc.AdminDashboard), args.Error(1)
}

var (
	_ useruc.Service = (*MockUserUsecase)(nil)
	_ AuthService    = (*MockAuthService)(nil)
	_ RatingService  = (*MockRatingService)(nil)
	_ StatsService   = (*MockStatsService)(nil)
	_ AuthService    = (*authuc.Usecase)(nil)
	_ RatingService  = (*ratinguc.Usecase)(nil)
	_ StatsService   = (*statsuc.Usecase)(nil)
)
