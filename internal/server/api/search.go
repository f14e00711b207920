package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/server/biz"
	"github.com/lorekeep/lorekeep/internal/traceback"
)

type SearchHandlersParams struct {
	fx.In

	TracebackService *biz.TracebackService
}

func NewSearchHandlers(params SearchHandlersParams) *SearchHandlers {
	return &SearchHandlers{
		TracebackService: params.TracebackService,
	}
}

type SearchHandlers struct {
	TracebackService *biz.TracebackService
}

type ResolveTracebackRequest struct {
	Hits []traceback.RankedHit `json:"hits" binding:"required"`
}

func (h *SearchHandlers) ResolveTraceback(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req ResolveTracebackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	items, err := h.TracebackService.Resolve(c.Request.Context(), tctx, req.Hits)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
