package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/analysis"
	"github.com/Skufu/symptomcheck/internal/service"
)

const (
	msgSymptomsRequired = "Symptoms are required."
	msgSymptomsTooLong  = "Symptoms must be %d characters or fewer."
	msgInvalidJSON      = "Failed to process the AI response. It was not valid JSON."
	msgModelFailed      = "Failed to get a response from the AI model."
	msgSaveFailed       = "Failed to save the analysis."
	msgHistoryFailed    = "Could not retrieve query history."
	msgBodyTooLarge     = "Request body is too large."
)

type symptomsRequest struct {
	Symptoms string `json:"symptoms"`
}

type symptomHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func (h *symptomHandler) submit(c *gin.Context) {
	var req symptomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			submissionsTotal.WithLabelValues("body_too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgBodyTooLarge})
			return
		}
		// malformed JSON and a non-string symptoms field are both treated as missing
		submissionsTotal.WithLabelValues("missing_symptoms").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": msgSymptomsRequired})
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req.Symptoms)
	if err != nil {
		status, outcome, msg := submitFailure(err)
		if outcome == "symptoms_too_long" {
			msg = fmt.Sprintf(msg, h.svc.MaxLength())
		}
		submissionsTotal.WithLabelValues(outcome).Inc()
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(c.Request.Context(), "symptom submission failed",
				slog.String("outcome", outcome),
				slog.Any("error", err),
			)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	submissionsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{"analysis": result})
}

func (h *symptomHandler) history(c *gin.Context) {
	recs, err := h.svc.History(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "error fetching history", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgHistoryFailed})
		return
	}

	c.JSON(http.StatusOK, recs)
}

// submitFailure maps each failure cause to its own status, metric outcome and message.
func submitFailure(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrMissingSymptoms):
		return http.StatusBadRequest, "missing_symptoms", msgSymptomsRequired
	case errors.Is(err, service.ErrSymptomsTooLong):
		return http.StatusBadRequest, "symptoms_too_long", msgSymptomsTooLong
	case errors.Is(err, analysis.ErrInvalidModelOutput):
		return http.StatusInternalServerError, "invalid_model_output", msgInvalidJSON
	case errors.Is(err, analysis.ErrEmptyModelResponse):
		return http.StatusInternalServerError, "empty_model_response", msgModelFailed
	case errors.Is(err, analysis.ErrGatewayUnavailable):
		return http.StatusInternalServerError, "gateway_unavailable", msgModelFailed
	case errors.Is(err, service.ErrProcessingFailed):
		return http.StatusInternalServerError, "processing_failed", msgSaveFailed
	default:
		return http.StatusInternalServerError, "unknown", msgModelFailed
	}
}
