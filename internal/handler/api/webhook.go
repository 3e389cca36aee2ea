package api

import (
	"errors"
	"io"
	"net/http"

	resdto "opshub/internal/handler/dto/response"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// Providers sign the raw body; it must be read before any binding touches it.
const signatureHeader = "X-Signature"

type WebhookHandler struct {
	webhookUseCase commands.WebhookCommands
}

func NewWebhookHandler(webhookUseCase commands.WebhookCommands) *WebhookHandler {
	return &WebhookHandler{
		webhookUseCase: webhookUseCase,
	}
}

// @Summary Ingest provider webhook
// @Description Receive a signed notification from an external provider
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Param X-Signature header string true "HMAC-SHA256 hex signature of the body"
// @Success 200 {object} resdto.WebhookIngestResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) Ingest(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	result, err := h.webhookUseCase.Ingest(c.Request.Context(), provider, body, headers, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUnknownProvider):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Unknown provider",
			})
		case errors.Is(err, errs.ErrBadSignature):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Signature verification failed",
			})
		case errors.Is(err, errs.ErrMalformedPayload):
			// A payload we cannot parse will not parse on redelivery either.
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Malformed payload",
			})
		default:
			// Any 5xx tells the provider to redeliver; the idempotency log
			// makes that safe.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Webhook processing failed",
			})
		}
		return
	}

	if result.Outcome == commands.OutcomeInProgress {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Delivery is already being processed",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromIngestResult(result))
}
