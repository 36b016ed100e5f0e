package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
	"user-reputation-service/pkg/logger"
	"user-reputation-service/pkg/token"
)

type stubUsers map[int64]*domain.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pkgerrors.NewNotFoundError("user", "user not found")
}

func newAuthenticator(t *testing.T) (*Authenticator, *token.Issuer) {
	issuer := token.NewIssuer("secret", time.Hour, "test")
	users := stubUsers{
		1: {ID: 1, Roles: role.NewSet(role.Admin)},
		2: {ID: 2, IsBlocked: true},
	}
	return NewAuthenticator(issuer, users, zaptest.NewLogger(t)), issuer
}

func bearer(t *testing.T, issuer *token.Issuer, id int64) string {
	t.Helper()
	raw, _, err := issuer.Issue(id, nil)
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestAuthenticate(t *testing.T) {
	a, issuer := newAuthenticator(t)
	ctx := context.Background()

	u, err := a.Authenticate(ctx, bearer(t, issuer, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = a.Authenticate(ctx, bearer(t, issuer, 2))
	assert.ErrorIs(t, err, pkgerrors.ErrAccountBlocked)

	_, err = a.Authenticate(ctx, bearer(t, issuer, 99))
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "Bearer not-a-token")
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthenticated)
}

func TestAuthInterceptor(t *testing.T) {
	a, issuer := newAuthenticator(t)
	interceptor := a.UnaryInterceptor("/grpc.health.v1.Health/")

	var seen *domain.User
	var seenID int64
	handler := func(ctx context.Context, req any) (any, error) {
		seen = RequesterFrom(ctx)
		seenID, _ = logger.GetUserID(ctx)
		return "ok", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", bearer(t, issuer, 1)))
	_, err := interceptor(ctx, nil, monthlyStats, handler)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, int64(1), seen.ID)
	assert.Equal(t, int64(1), seenID)

	_, err = interceptor(context.Background(), nil, monthlyStats, handler)
	assert.Equal(t, codes.Unauthenticated, pkgerrors.Code(err))

	seen = nil
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.Nil(t, seen)
}
