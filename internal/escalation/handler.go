package escalation

import (
	"net/http"
	"net/url"
	"time"

	"leadline_backend/platform/apperr"
	"leadline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the claim link and the cron sweep trigger. It lives in the
// same package as the engine because both sides share the lead state types.
type Handler struct {
	engine    *Engine
	sweeper   *Sweeper
	resultURL string
}

func NewHandler(engine *Engine, sweeper *Sweeper, resultURL string) *Handler {
	return &Handler{engine: engine, sweeper: sweeper, resultURL: resultURL}
}

// RegisterPublicRoutes mounts the claim link endpoints. The signed token is
// the sole credential, so these live on the public group. The redirect
// variant is what the SMS links to; the JSON variant serves API clients.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup) {
	group.GET("/claim/:token", h.handleClaim)
	group.GET("/claim/:token/go", h.handleClaimRedirect)
}

// RegisterCronRoutes mounts the shared-secret sweep trigger.
func (h *Handler) RegisterCronRoutes(group *gin.RouterGroup) {
	group.POST("/sweep-claims", h.handleSweep)
}

type claimResponse struct {
	LeadID    string  `json:"leadId"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
	Source    string  `json:"source"`
	ClaimedAt string  `json:"claimedAt"`
}

// handleClaim resolves a claim link tapped from the notification SMS.
func (h *Handler) handleClaim(c *gin.Context) {
	raw := c.Param("token")
	if raw == "" {
		httpkit.Error(c, http.StatusUnauthorized, "invalid claim link")
		return
	}

	lead, err := h.engine.Claim(c.Request.Context(), raw)
	if httpkit.HandleError(c, err) {
		return
	}

	claimedAt := time.Now().UTC()
	if lead.ClaimedAt != nil {
		claimedAt = lead.ClaimedAt.UTC()
	}

	httpkit.OK(c, claimResponse{
		LeadID:    lead.ID.String(),
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Address:   lead.Address,
		Source:    lead.Source,
		ClaimedAt: claimedAt.Format(time.RFC3339),
	})
}

// handleClaimRedirect resolves a claim link and sends the browser to the
// dashboard's result page instead of returning JSON.
func (h *Handler) handleClaimRedirect(c *gin.Context) {
	lead, err := h.engine.Claim(c.Request.Context(), c.Param("token"))

	values := url.Values{}
	switch {
	case err == nil:
		values.Set("outcome", "claimed")
		values.Set("lead", lead.ID.String())
	case apperr.Is(err, apperr.KindGone):
		values.Set("outcome", "expired")
	case apperr.Is(err, apperr.KindConflict):
		values.Set("outcome", "taken")
	default:
		values.Set("outcome", "invalid")
	}

	c.Redirect(http.StatusFound, h.resultURL+"?"+values.Encode())
}

// handleSweep runs one sweep pass on demand, for external cron setups that
// cannot reach the queue-based scheduler.
func (h *Handler) handleSweep(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
