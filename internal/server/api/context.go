package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lorekeep/lorekeep/internal/contexts"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// tenantContext reads the authenticated tenant context installed by the
// auth middleware. Handlers behind WithJWTAuth always find one; the abort
// covers misconfigured routes.
func tenantContext(c *gin.Context) (tenant.Context, bool) {
	tctx, ok := contexts.GetTenant(c.Request.Context())
	if !ok {
		JSONError(c, http.StatusUnauthorized, errors.New("missing tenant context"))
		return tenant.Context{}, false
	}

	return tctx, true
}
