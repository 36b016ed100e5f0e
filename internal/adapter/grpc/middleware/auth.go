package middleware

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
	"user-reputation-service/pkg/logger"
	"user-reputation-service/pkg/token"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// UserLoader loads the requester named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type requesterKey struct{}

// WithRequester returns a copy of ctx carrying the authenticated user.
func WithRequester(ctx context.Context, u *domain.User) context.Context {
	ctx = context.WithValue(ctx, requesterKey{}, u)
	return logger.ContextWithUserID(ctx, u.ID)
}

// RequesterFrom returns the authenticated user, or nil.
func RequesterFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(requesterKey{}).(*domain.User)
	return u
}

// Authenticator turns an Authorization header into a freshly loaded requester.
// Roles are always read from storage, never from the token.
type Authenticator struct {
	tokens TokenParser
	users  UserLoader
	log    *zap.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens TokenParser, users UserLoader, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Authenticate resolves "Bearer <token>". Unknown users and bad tokens are
// ErrUnauthenticated; blocked users are ErrAccountBlocked.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, pkgerrors.ErrUnauthenticated
	}

	claims, err := a.tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		a.log.Debug("rejected bearer token", zap.Error(err))
		return nil, pkgerrors.ErrUnauthenticated
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, pkgerrors.ErrUnauthenticated
	}

	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.ErrUnauthenticated
		}
		return nil, err
	}
	if u.IsBlocked {
		return nil, pkgerrors.ErrAccountBlocked
	}
	return u, nil
}

// UnaryInterceptor authenticates every call except the methods listed in public,
// which are matched by prefix against the full method name.
func (a *Authenticator) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		for _, p := range public {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}

		header := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		u, err := a.Authenticate(ctx, header)
		if err != nil {
			return nil, err
		}
		return handler(WithRequester(ctx, u), req)
	}
}
