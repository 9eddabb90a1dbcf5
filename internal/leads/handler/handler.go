package handler

import (
	"net/http"
	"strconv"

	"leadline_backend/internal/leads/service"
	"leadline_backend/internal/leads/transport"
	"leadline_backend/platform/httpkit"
	"leadline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the unauthenticated intake endpoint.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup) {
	group.POST("/leads", h.handleCreate)
}

// RegisterRoutes mounts the tenant-scoped lead endpoints.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.handleList)
	group.GET("/:id", h.handleGet)
	group.POST("", h.handleCreate)
	group.POST("/:id/dead", h.handleMarkDead)
}

// handleCreate accepts a lead from a landing page or a manual dashboard
// entry. Responds 201 as soon as the record exists; escalation proceeds in
// the background.
func (h *Handler) handleCreate(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error")
		return
	}

	// On the tenant-scoped route the header wins over the body.
	if tenantID, ok := httpkit.GetTenantID(c); ok {
		req.TenantID = tenantID.String()
	}

	resp, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, resp)
}

func (h *Handler) handleList(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.svc.List(c.Request.Context(), tenantID, c.Query("status"), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"leads": resp})
}

func (h *Handler) handleGet(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id")
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), leadID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) handleMarkDead(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id")
		return
	}

	if err := h.svc.MarkDead(c.Request.Context(), leadID, tenantID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "dead"})
}
