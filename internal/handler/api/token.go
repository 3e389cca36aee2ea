package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"opshub/internal/domain/token"
	reqdto "opshub/internal/handler/dto/request"
	resdto "opshub/internal/handler/dto/response"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenUseCase commands.TokenCommands
}

func NewTokenHandler(tokenUseCase commands.TokenCommands) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
	}
}

// @Summary View token link
// @Description Resolve a capability link; share tokens consume one view
// @Tags tokens
// @Produce json
// @Param kind path string true "Token kind" Enums(reschedule, share)
// @Param token path string true "Opaque token"
// @Success 200 {object} resdto.TokenViewResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /t/{kind}/{token} [get]
func (h *TokenHandler) View(c *gin.Context) {
	if _, err := token.ParseKind(c.Param("kind")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
		return
	}

	result, err := h.tokenUseCase.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.renderTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromTokenView(result.Token, result.RemainingViews))
}

// @Summary Redeem token
// @Description Consume a single-use token and apply its effect
// @Tags tokens
// @Accept json
// @Produce json
// @Param kind path string true "Token kind" Enums(reschedule, share)
// @Param token path string true "Opaque token"
// @Param request body reqdto.RedeemRescheduleRequest true "Reschedule action"
// @Success 200 {object} resdto.TokenRedeemResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /t/{kind}/{token} [post]
func (h *TokenHandler) Redeem(c *gin.Context) {
	kind, err := token.ParseKind(c.Param("kind"))
	if err != nil || kind != token.KindReschedule {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
		return
	}

	var req reqdto.RedeemRescheduleRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	action, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.tokenUseCase.Redeem(c.Request.Context(), c.Param("token"), action)
	if err != nil {
		h.renderTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromTokenRedeem(result.Token))
}

// renderTokenError distinguishes the guard that rejected the token so the
// customer-facing page can explain what happened.
func (h *TokenHandler) renderTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Link not found",
		})
	case errors.Is(err, errs.ErrTokenConsumed):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Link already used",
		})
	case errors.Is(err, errs.ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{
			"error": "Link expired",
		})
	case errors.Is(err, errs.ErrTokenExhausted):
		c.JSON(http.StatusGone, gin.H{
			"error": "Link view limit reached",
		})
	case errors.Is(err, errs.ErrAssignmentConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Requested time is no longer available",
		})
	case errors.Is(err, errs.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid time interval",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
