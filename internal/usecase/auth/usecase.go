// Package auth handles registration and login. A successful login stamps the
// last-login timestamp that the monthly statistics count as activity.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	userusecase "user-reputation-service/internal/usecase/user"
	pkgerrors "user-reputation-service/pkg/errors"
	"user-reputation-service/pkg/security"
)

// Landing areas returned after login.
const (
	LandingAdmin  = "admin"
	LandingClient = "client"
)

// Repository defines the user store this package needs.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID int64, roles []string) (string, time.Time, error)
}

// RegisterRequest is a visitor creating their own account.
type RegisterRequest struct {
	Email       string `validate:"required,email,max=180"`
	Name        string `validate:"required,notblank"`
	PhoneNumber string `validate:"required,phone"`
	Password    string `validate:"required,min=8,max=72"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Landing   string
	User      userusecase.User
}

// Usecase implements registration and login.
type Usecase struct {
	repo     Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
	opts     userusecase.Options
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new instance of Usecase. Name bounds come from opts.
func New(r Repository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger, opts userusecase.Options) *Usecase {
	if opts.NameMin <= 0 || opts.NameMax < opts.NameMin {
		opts = userusecase.DefaultOptions()
	}
	return &Usecase{
		repo:     r,
		hasher:   hasher,
		tokens:   tokens,
		opts:     opts,
		log:      log,
		validate: security.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a verified CLIENT account.
func (uc *Usecase) Register(ctx context.Context, in RegisterRequest) (*userusecase.User, error) {
	uc.log.Info("registering user", zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, userusecase.FormatValidationError(err)
	}
	if err := uc.opts.CheckName(in.Name); err != nil {
		return nil, err
	}

	hash, err := userusecase.HashPassword(uc.hasher, in.Password)
	if err != nil {
		uc.log.Warn("hash password failed", zap.Error(err))
		return nil, err
	}

	u := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Roles:        role.NewSet(role.Client),
		IsVerified:   true,
		CreatedAt:    uc.now(),
	}
	if _, err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	out := userusecase.ToDTO(u)
	return &out, nil
}

// Login checks credentials, refuses blocked accounts, records the login and issues a token.
func (uc *Usecase) Login(ctx context.Context, in LoginRequest) (*Session, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, pkgerrors.ErrInvalidCredentials
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !uc.hasher.Verify(u.PasswordHash, in.Password) {
		uc.log.Warn("login failed", zap.String("email", email))
		return nil, pkgerrors.ErrInvalidCredentials
	}
	if u.IsBlocked {
		uc.log.Warn("blocked user tried to log in", zap.Int64("id", u.ID))
		return nil, pkgerrors.ErrAccountBlocked
	}

	at := uc.now()
	if err := uc.repo.RecordLogin(ctx, u.ID, at); err != nil {
		return nil, err
	}
	u.LastLoginAt = &at

	token, expires, err := uc.tokens.Issue(u.ID, u.EffectiveRoles().Strings())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue token", err)
	}

	landing := LandingClient
	if u.Level() >= role.LevelAdmin {
		landing = LandingAdmin
	}

	uc.log.Info("user logged in", zap.Int64("id", u.ID), zap.String("landing", landing))
	return &Session{Token: token, ExpiresAt: expires, Landing: landing, User: userusecase.ToDTO(u)}, nil
}
