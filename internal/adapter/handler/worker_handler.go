package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kumemura-df/struct-project/internal/adapter/dto"
	"github.com/kumemura-df/struct-project/internal/usecase/ingest"
	"github.com/kumemura-df/struct-project/pkg/ai"
)

// Processor runs one decoded job and reports the delivery outcome
type Processor interface {
	Process(ctx context.Context, job ingest.Job) ingest.Result
}

// Worker handles bus push deliveries. The response status drives delivery:
// 2xx acknowledges the message, anything else leaves it for redelivery.
type Worker struct {
	processor Processor
	secret    string
	logger    *zap.Logger
}

// NewWorker creates a push delivery handler. An empty secret disables
// signature verification.
func NewWorker(processor Processor, secret string, logger *zap.Logger) *Worker {
	return &Worker{
		processor: processor,
		secret:    secret,
		logger:    logger,
	}
}

// Push processes one pushed message.
//
// 204: processed, replayed no-op, or permanent failure (never redeliver)
// 400: malformed envelope or payload (never redeliver)
// 500: transient failure, the bus should redeliver
func (h *Worker) Push(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "failed to read request body",
		})
	}

	if h.secret != "" {
		signature := c.Request().Header.Get("X-Push-Signature")
		if !ai.VerifyHMAC(h.secret, body, signature) {
			if h.logger != nil {
				h.logger.Warn("🔒 Push signature verification failed")
			}
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error": "invalid signature",
			})
		}
	}

	var envelope dto.PushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "envelope is not valid JSON",
		})
	}
	if err := c.Validate(&envelope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "envelope is missing message or data",
		})
	}
	messageID := envelope.Message.ID()
	if messageID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "envelope is missing messageId",
		})
	}

	payload, err := envelope.DecodePayload()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}
	if payload.MeetingID == "" || (payload.Ref() == "" && payload.ProcessedText == "") {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "payload is missing meeting_id or transcript reference",
		})
	}

	if h.logger != nil {
		h.logger.Info("📨 Push message received",
			zap.String("message_id", messageID),
			zap.String("meeting_id", payload.MeetingID),
		)
	}

	result := h.processor.Process(c.Request().Context(), ingest.Job{
		MessageID:     messageID,
		MeetingID:     payload.MeetingID,
		TranscriptRef: payload.Ref(),
		ProcessedText: payload.ProcessedText,
	})
	if result.Outcome == ingest.OutcomeRedeliver {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "transient failure, message will be redelivered",
		})
	}
	return c.NoContent(http.StatusNoContent)
}
