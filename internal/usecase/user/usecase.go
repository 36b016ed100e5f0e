package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
	"user-reputation-service/pkg/security"
)

// Repository defines the user store this package needs.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// UpdateWithLock runs fn on the freshly loaded user inside a transaction and
	// persists the result only when fn succeeds.
	UpdateWithLock(ctx context.Context, id int64, fn func(u *domain.User) error) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error)
}

// RatedLookup reports who a rater has already rated.
type RatedLookup interface {
	RatedIDs(ctx context.Context, raterID int64) ([]int64, error)
}

// PasswordHasher is the password hashing collaborator.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Observer receives account events, typically to feed metrics.
type Observer interface {
	RolesAssigned(roles role.Set)
	PermissionDenied(action role.Action)
}

type noopObserver struct{}

func (noopObserver) RolesAssigned(role.Set)       {}
func (noopObserver) PermissionDenied(role.Action) {}

// Options holds the tunable field and paging rules.
type Options struct {
	NameMin         int
	NameMax         int
	DefaultPageSize int64
	MaxPageSize     int64
}

// DefaultOptions returns name bounds 2..100 and pages of 7, capped at 100.
func DefaultOptions() Options {
	return Options{NameMin: 2, NameMax: 100, DefaultPageSize: 7, MaxPageSize: 100}
}

// Usecase implements account management and the visibility filter.
type Usecase struct {
	repo     Repository
	rated    RatedLookup
	hasher   PasswordHasher
	observer Observer
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase.
func New(r Repository, rated RatedLookup, hasher PasswordHasher, log *zap.Logger, opts Options) *Usecase {
	if opts.NameMin <= 0 || opts.NameMax < opts.NameMin {
		d := DefaultOptions()
		opts.NameMin, opts.NameMax = d.NameMin, d.NameMax
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultOptions().DefaultPageSize
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = DefaultOptions().MaxPageSize
	}
	return &Usecase{
		repo:     r,
		rated:    rated,
		hasher:   hasher,
		observer: noopObserver{},
		opts:     opts,
		log:      log,
		validate: security.NewValidator(),
	}
}

// WithObserver sets the event observer and returns uc.
func (uc *Usecase) WithObserver(o Observer) *Usecase {
	if o != nil {
		uc.observer = o
	}
	return uc
}

// DeleteConfirmationToken is the token DeleteUser expects for account id.
func DeleteConfirmationToken(id int64) string {
	return fmt.Sprintf("delete-%d", id)
}

// FormatValidationError converts validator.ValidationErrors into a ValidationError
// naming the first offending field.
func FormatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "phone":
			messages = append(messages, fmt.Sprintf("%s must be exactly %d digits", e.Field(), security.PhoneDigits))
		case "notblank":
			messages = append(messages, fmt.Sprintf("%s must not be blank", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError(validationErrors[0].Field(), strings.Join(messages, ", "))
}

func (uc *Usecase) checkStruct(in any) error {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return FormatValidationError(err)
	}
	return nil
}

func (uc *Usecase) checkName(name string) error {
	return uc.opts.CheckName(name)
}

// CheckName enforces the name length bounds, counted in runes after trimming.
func (o Options) CheckName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < o.NameMin || n > o.NameMax {
		return pkgerrors.NewValidationError("Name",
			fmt.Sprintf("Name must be between %d and %d characters", o.NameMin, o.NameMax))
	}
	return nil
}

func parseRoles(tags []string) (role.Set, error) {
	s, err := role.ParseSet(tags)
	if err != nil {
		return 0, pkgerrors.NewValidationError("Roles", err.Error())
	}
	return s.Effective(), nil
}

func (uc *Usecase) hash(password string) (string, error) {
	return HashPassword(uc.hasher, password)
}

// HashPassword hashes with h. A password below the minimum length is a validation
// error, any other hasher failure is internal.
func HashPassword(h PasswordHasher, password string) (string, error) {
	hash, err := h.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return "", pkgerrors.NewValidationError("Password", err.Error())
		}
		return "", pkgerrors.NewInternalError("failed to hash password", err)
	}
	return hash, nil
}

// deny logs and counts a refused action before handing the error back.
func (uc *Usecase) deny(requester *domain.User, action role.Action, err error) error {
	uc.observer.PermissionDenied(action)
	uc.log.Warn("permission denied",
		zap.Int64("requester_id", requester.ID),
		zap.String("requester_roles", requester.EffectiveRoles().String()),
		zap.String("action", string(action)),
		zap.Error(err))
	return err
}

func requireRequester(requester *domain.User) error {
	if requester == nil || requester.ID <= 0 {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}
