package handler

import (
	"net/http"

	"leadline_backend/internal/tenants/service"
	"leadline_backend/internal/tenants/transport"
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

// RegisterRoutes mounts the tenant settings and team member endpoints.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/settings", h.handleGetSettings)
	group.PUT("/settings", h.handleUpdateSettings)
	group.GET("/members", h.handleListMembers)
	group.POST("/members", h.handleCreateMember)
	group.PUT("/members/:id", h.handleUpdateMember)
	group.DELETE("/members/:id", h.handleDeleteMember)
}

func (h *Handler) handleGetSettings(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) handleUpdateSettings(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error")
		return
	}

	resp, err := h.svc.UpdateSettings(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) handleListMembers(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	resp, err := h.svc.ListMembers(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"members": resp})
}

func (h *Handler) handleCreateMember(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	var req transport.MemberRequest
	if !h.bindMember(c, &req) {
		return
	}

	resp, err := h.svc.CreateMember(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, resp)
}

func (h *Handler) handleUpdateMember(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid member id")
		return
	}

	var req transport.MemberRequest
	if !h.bindMember(c, &req) {
		return
	}

	resp, err := h.svc.UpdateMember(c.Request.Context(), memberID, tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) handleDeleteMember(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant")
		return
	}

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := h.svc.DeleteMember(c.Request.Context(), memberID, tenantID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) bindMember(c *gin.Context, req *transport.MemberRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.val.Struct(*req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error")
		return false
	}
	return true
}
