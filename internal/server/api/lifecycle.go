package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/objects"
	"github.com/lorekeep/lorekeep/internal/server/biz"
)

type LifecycleHandlersParams struct {
	fx.In

	LifecycleService *biz.LifecycleService
}

func NewLifecycleHandlers(params LifecycleHandlersParams) *LifecycleHandlers {
	return &LifecycleHandlers{
		LifecycleService: params.LifecycleService,
	}
}

type LifecycleHandlers struct {
	LifecycleService *biz.LifecycleService
}

func (h *LifecycleHandlers) GetStats(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	stats, err := h.LifecycleService.Stats(c.Request.Context(), tctx)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *LifecycleHandlers) GetAllEntities(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	entities, err := h.LifecycleService.ListEntities(c.Request.Context(), tctx)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entities": entities})
}

func (h *LifecycleHandlers) GetDissolutionQueue(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	queue, err := h.LifecycleService.DissolutionQueue(c.Request.Context(), tctx)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": queue})
}

func (h *LifecycleHandlers) GetStateHistory(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	history, err := h.LifecycleService.StateHistory(c.Request.Context(), tctx, c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *LifecycleHandlers) GetPreventHistory(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	history, err := h.LifecycleService.PreventHistory(c.Request.Context(), tctx, c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

type CreateEntityRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *LifecycleHandlers) CreateEntity(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	e, err := h.LifecycleService.CreateEntity(c.Request.Context(), tctx, []byte(req.Content))
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "entity": objects.SummarizeEntity(e)})
}

type TransitionRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
	Target   string `json:"target"    binding:"required"`
	Reason   string `json:"reason"`
}

func (h *LifecycleHandlers) TransitionEntity(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	e, err := h.LifecycleService.Transition(c.Request.Context(), tctx, req.EntityID, entity.State(req.Target), req.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "entity": objects.SummarizeEntity(e)})
}

type MarkReviewedRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
}

func (h *LifecycleHandlers) MarkReviewed(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req MarkReviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	e, err := h.LifecycleService.MarkReviewed(c.Request.Context(), tctx, req.EntityID)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "entity": objects.SummarizeEntity(e)})
}

type PreventDissolutionRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
	Reason   string `json:"reason"    binding:"required"`
}

func (h *LifecycleHandlers) PreventDissolution(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req PreventDissolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if _, err := h.LifecycleService.PreventDissolution(c.Request.Context(), tctx, req.EntityID, req.Reason); err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type PostponeDissolutionRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
	Days     int    `json:"days"      binding:"required"`
}

func (h *LifecycleHandlers) PostponeDissolution(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req PostponeDissolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if _, err := h.LifecycleService.PostponeDissolution(c.Request.Context(), tctx, req.EntityID, req.Days); err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type ApproveDissolutionRequest struct {
	EntityID string `json:"entity_id" binding:"required"`
}

func (h *LifecycleHandlers) ApproveDissolution(c *gin.Context) {
	tctx, ok := tenantContext(c)
	if !ok {
		return
	}

	var req ApproveDissolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	e, err := h.LifecycleService.ApproveDissolution(c.Request.Context(), tctx, req.EntityID)
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": objects.SummarizeEntity(e)})
}
