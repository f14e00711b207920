package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lorekeep/lorekeep/internal/authz"
	"github.com/lorekeep/lorekeep/internal/contexts"
	"github.com/lorekeep/lorekeep/internal/server/biz"
)

// extractBearerToken pulls the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("authorization header must use the Bearer scheme")
	}

	return token, nil
}

// WithJWTAuth authenticates admin requests and installs the immutable
// tenant context plus the user principal on the request context.
func WithJWTAuth(auth *biz.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.Request)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		tctx, err := auth.AuthenticateJWTToken(token)
		if err != nil {
			if errors.Is(err, biz.ErrInvalidJWT) {
				AbortWithError(c, http.StatusUnauthorized, errors.New("invalid token"))
			} else {
				AbortWithError(c, http.StatusInternalServerError, biz.ErrInternal)
			}

			return
		}

		ctx := contexts.WithTenant(c.Request.Context(), tctx)
		ctx = authz.NewUserContext(ctx, tctx.TenantID(), tctx.UserID())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
