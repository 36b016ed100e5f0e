package user

import (
	"time"

	domain "user-reputation-service/internal/domain/user"
)

// CreateUserRequest is an administrator creating an account. Empty Roles means {CLIENT}.
type CreateUserRequest struct {
	Email       string   `validate:"required,email,max=180"`
	Name        string   `validate:"required,notblank"`
	PhoneNumber string   `validate:"required,phone"`
	Password    string   `validate:"required,min=8,max=72"`
	Roles       []string `validate:"omitempty,max=3"`
}

// UpdateUserRequest changes the fields that are non-nil. A nil Roles keeps the current set.
type UpdateUserRequest struct {
	ID          int64    `validate:"required,gt=0"`
	Email       *string  `validate:"omitempty,email,max=180"`
	Name        *string  `validate:"omitempty,notblank"`
	PhoneNumber *string  `validate:"omitempty,phone"`
	Password    *string  `validate:"omitempty,min=8,max=72"`
	Image       *string  `validate:"omitempty,max=255"`
	Roles       []string `validate:"omitempty,max=3"`
}

// UpdateProfileRequest is a user editing their own account.
type UpdateProfileRequest struct {
	Name        *string `validate:"omitempty,notblank"`
	PhoneNumber *string `validate:"omitempty,phone"`
	Password    *string `validate:"omitempty,min=8,max=72"`
	Image       *string `validate:"omitempty,max=255"`
}

// DeleteUserRequest must carry the token returned by DeleteConfirmationToken.
type DeleteUserRequest struct {
	ID                int64 `validate:"required,gt=0"`
	ConfirmationToken string
}

// BlockUserRequest blocks or unblocks an account.
type BlockUserRequest struct {
	ID      int64 `validate:"required,gt=0"`
	Blocked bool
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// ListUsersRequest drives ListVisibleUsers.
type ListUsersRequest struct {
	Search string // Search matches email or name
	Role   string // Role keeps users holding this tag
	// RestrictToRole keeps users whose only role is this tag.
	RestrictToRole string
	OrderBy        string // "created" (default) or "name"
	Page           int64
	Limit          int64
}

// RateableUsersRequest drives FindRateableUsers.
type RateableUsersRequest struct {
	Search      string
	OnlyUnrated bool // OnlyUnrated drops users the requester already rated
	// ExcludeAdmins widens the candidates from pure clients to every user without ADMIN or SUPER_ADMIN.
	ExcludeAdmins bool
	Page          int64
	Limit         int64
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users      []User
	Pagination *domain.Pagination
}

// User is the account as exposed to callers. The password hash never leaves the usecase.
type User struct {
	ID          int64
	Email       string
	Name        string
	PhoneNumber string
	Roles       []string
	Level       int
	IsBlocked   bool
	IsVerified  bool
	CreatedAt   time.Time
	LastLoginAt *time.Time
	Image       *string
}

// ToDTO converts a domain user, reading roles through their effective set.
func ToDTO(u *domain.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Roles:       u.EffectiveRoles().Strings(),
		Level:       int(u.Level()),
		IsBlocked:   u.IsBlocked,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		Image:       u.Image,
	}
}
