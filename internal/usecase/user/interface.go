package user

import (
	"context"

	domain "user-reputation-service/internal/domain/user"
)

// Service defines the account operations. Every method receives the requester
// explicitly; nothing is read from ambient state.
type Service interface {
	CreateUser(ctx context.Context, requester *domain.User, in CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, requester *domain.User, in UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, requester *domain.User, in DeleteUserRequest) error
	SetBlocked(ctx context.Context, requester *domain.User, in BlockUserRequest) (*User, error)
	GetUser(ctx context.Context, requester *domain.User, in GetUserRequest) (*User, error)
	UpdateProfile(ctx context.Context, requester *domain.User, in UpdateProfileRequest) (*User, error)

	ListVisibleUsers(ctx context.Context, requester *domain.User, in ListUsersRequest) (*ListUsersResponse, error)
	FindRateableUsers(ctx context.Context, requester *domain.User, in RateableUsersRequest) (*ListUsersResponse, error)
	RatedUserIDs(ctx context.Context, requester *domain.User) ([]int64, error)
}

var _ Service = (*Usecase)(nil)
