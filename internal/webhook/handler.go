package webhook

import (
	"net/http"
	"time"

	"leadline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts provider callbacks. They sit on the public group;
// the voice provider is matched on our stored call id and the SMS channel
// only ever appends audit events.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/webhooks/voice-call", h.handleVoiceCall)
	group.POST("/webhooks/sms-status", h.handleSMSStatus)
}

type voiceCallPayload struct {
	CallID          string     `json:"call_id" binding:"required"`
	CallStatus      string     `json:"call_status" binding:"required"`
	DurationSeconds int        `json:"duration_seconds"`
	Transcript      string     `json:"transcript"`
	Outcome         string     `json:"outcome"`
	EndedAt         *time.Time `json:"ended_at"`
	AppointmentTime *time.Time `json:"appointment_time"`
	BookingID       *string    `json:"booking_id"`
}

func (h *Handler) handleVoiceCall(c *gin.Context) {
	var payload voiceCallPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	event := VoiceCallEvent{
		CallID:          payload.CallID,
		CallStatus:      payload.CallStatus,
		DurationSeconds: payload.DurationSeconds,
		Transcript:      payload.Transcript,
		Outcome:         payload.Outcome,
		AppointmentTime: payload.AppointmentTime,
		BookingID:       payload.BookingID,
	}
	if payload.EndedAt != nil {
		event.EndedAt = *payload.EndedAt
	}

	if err := h.svc.HandleVoiceCall(c.Request.Context(), event); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to process call event")
		return
	}

	httpkit.OK(c, gin.H{"received": true})
}

// handleSMSStatus accepts the provider's form-encoded delivery callback.
// Always 200, whatever happens internally, so the provider never retries.
func (h *Handler) handleSMSStatus(c *gin.Context) {
	messageID := c.PostForm("MessageSid")
	status := c.PostForm("MessageStatus")
	to := c.PostForm("To")

	if messageID != "" && status != "" {
		h.svc.HandleSMSStatus(c.Request.Context(), messageID, status, to)
	}

	httpkit.OK(c, gin.H{"received": true})
}
