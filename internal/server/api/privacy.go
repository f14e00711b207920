package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/server/biz"
)

type PrivacyHandlersParams struct {
	fx.In

	PrivacyService *biz.PrivacyService
}

func NewPrivacyHandlers(params PrivacyHandlersParams) *PrivacyHandlers {
	return &PrivacyHandlers{
		PrivacyService: params.PrivacyService,
	}
}

type PrivacyHandlers struct {
	PrivacyService *biz.PrivacyService
}

type ClassifyEntityRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
	Level    string `json:"level"     binding:"required"`
}

func (h *PrivacyHandlers) ClassifyEntity(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req ClassifyEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if _, err := h.PrivacyService.ClassifyEntity(c.Request.Context(), tctx, req.EntityID, entity.Level(req.Level)); err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type BulkClassifyRequest struct {
	EntityIDs []string `json:"entity_ids" binding:"required"`
	Level     string   `json:"level"      binding:"required"`
}

func (h *PrivacyHandlers) BulkClassify(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req BulkClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	results := h.PrivacyService.BulkClassify(c.Request.Context(), tctx, req.EntityIDs, entity.Level(req.Level))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *PrivacyHandlers) GetEffectiveFlags(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	flags, err := h.PrivacyService.EffectiveFlags(c.Request.Context(), tctx, c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flags": flags})
}
