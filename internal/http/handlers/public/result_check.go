package public

import (
	"encoding/json"

	"github.com/schoolsuite/resultpin/internal/http/response"
	"github.com/schoolsuite/resultpin/internal/service"

	"github.com/gin-gonic/gin"
)

// ResultCheckRequest public result-check request
type ResultCheckRequest struct {
	Pin             string `json:"pin" binding:"required"`
	AdmissionNumber string `json:"admission_number" binding:"required"`
	SessionID       *uint  `json:"session_id"`
	TermID          *uint  `json:"term_id"`
	Email           string `json:"email"`
}

// CheckResult redeems one card use against a student's published result
func (h *Handler) CheckResult(c *gin.Context) {
	var req ResultCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	result, err := h.RedemptionService.Redeem(service.RedeemInput{
		Pin:             req.Pin,
		AdmissionNumber: req.AdmissionNumber,
		SessionID:       req.SessionID,
		TermID:          req.TermID,
		Email:           req.Email,
		IPAddress:       c.ClientIP(),
		RequestID:       c.GetString("request_id"),
	})
	if err != nil {
		respondResultCheckError(c, err)
		return
	}

	response.Success(c, gin.H{
		"student": gin.H{
			"admission_number": result.Student.AdmissionNumber,
			"first_name":       result.Student.FirstName,
			"last_name":        result.Student.LastName,
			"class_name":       result.Student.ClassName,
		},
		"result": gin.H{
			"session_id": result.Result.SessionID,
			"term_id":    result.Result.TermID,
			"payload":    resultPayload(result.Result.Payload),
		},
		"card": gin.H{
			"uses_remaining": result.UsesRemaining,
			"depleted":       result.Depleted,
		},
	})
}

// resultPayload embeds the stored gradebook JSON as-is, falling back to
// a plain string when the stored payload is not valid JSON.
func resultPayload(payload string) interface{} {
	raw := json.RawMessage(payload)
	if json.Valid(raw) {
		return raw
	}
	return payload
}
