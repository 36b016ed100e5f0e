package middleware

import (
	"github.com/gin-gonic/gin"

	"user-reputation-service/internal/adapter/gin/httperr"
	grpcmiddleware "user-reputation-service/internal/adapter/grpc/middleware"
	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

// Auth resolves the Authorization header into the requester and stores it in the
// request context. Requests without a valid token are rejected.
func Auth(a *grpcmiddleware.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.Request = c.Request.WithContext(grpcmiddleware.WithRequester(c.Request.Context(), u))
		c.Next()
	}
}

// RequireLevel rejects requesters below level. It must run after Auth.
func RequireLevel(level role.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := Requester(c)
		if u == nil {
			httperr.Write(c, pkgerrors.ErrUnauthenticated)
			return
		}
		if u.Level() < level {
			httperr.Write(c, pkgerrors.NewPermissionDeniedError("administrator role required"))
			return
		}
		c.Next()
	}
}

// Requester returns the authenticated user of the request, or nil.
func Requester(c *gin.Context) *domain.User {
	return grpcmiddleware.RequesterFrom(c.Request.Context())
}
