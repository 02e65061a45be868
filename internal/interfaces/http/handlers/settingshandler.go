package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	merchantUsecases "github.com/repogate-inc/repogate/internal/application/merchant/usecases"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// SettingsHandler serves owner-side payment provider configuration.
// Credential values pass through to the use case and are never logged.
type SettingsHandler struct {
	connectProviderUC    connectProviderUseCase
	disconnectProviderUC disconnectProviderUseCase
	logger               logger.Interface
}

func NewSettingsHandler(
	connectProviderUC connectProviderUseCase,
	disconnectProviderUC disconnectProviderUseCase,
	logger logger.Interface,
) *SettingsHandler {
	return &SettingsHandler{
		connectProviderUC:    connectProviderUC,
		disconnectProviderUC: disconnectProviderUC,
		logger:               logger,
	}
}

type ConnectProviderRequest struct {
	OwnerID  uint   `json:"owner_id" binding:"required"`
	Provider string `json:"provider" binding:"required"`

	StripeSecretKey      string `json:"stripe_secret_key" binding:"omitempty"`
	StripePublishableKey string `json:"stripe_publishable_key" binding:"omitempty"`
	LemonSqueezyAPIKey   string `json:"lemon_squeezy_api_key" binding:"omitempty"`
	LemonSqueezyStoreID  string `json:"lemon_squeezy_store_id" binding:"omitempty"`
	GumroadAccessToken   string `json:"gumroad_access_token" binding:"omitempty"`
	PaddleVendorID       string `json:"paddle_vendor_id" binding:"omitempty"`
	PaddleAPIKey         string `json:"paddle_api_key" binding:"omitempty"`
}

type DisconnectProviderRequest struct {
	OwnerID uint `json:"owner_id" binding:"required"`
}

func (h *SettingsHandler) ConnectProvider(c *gin.Context) {
	var req ConnectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := merchantUsecases.ConnectProviderCommand{
		OwnerID:              req.OwnerID,
		Provider:             merchant.Provider(req.Provider),
		StripeSecretKey:      req.StripeSecretKey,
		StripePublishableKey: req.StripePublishableKey,
		LemonSqueezyAPIKey:   req.LemonSqueezyAPIKey,
		LemonSqueezyStoreID:  req.LemonSqueezyStoreID,
		GumroadAccessToken:   req.GumroadAccessToken,
		PaddleVendorID:       req.PaddleVendorID,
		PaddleAPIKey:         req.PaddleAPIKey,
	}

	if err := h.connectProviderUC.Execute(c.Request.Context(), cmd); err != nil {
		h.logger.Warnw("provider connect failed",
			"owner_id", req.OwnerID,
			"provider", req.Provider,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment provider connected", gin.H{
		"provider": req.Provider,
	})
}

func (h *SettingsHandler) DisconnectProvider(c *gin.Context) {
	var req DisconnectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.disconnectProviderUC.Execute(c.Request.Context(), req.OwnerID); err != nil {
		h.logger.Warnw("provider disconnect failed", "owner_id", req.OwnerID, "error", err)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment provider disconnected", nil)
}
