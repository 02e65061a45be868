package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// maxWebhookBody caps how much of a webhook payload is read before
// verification. Providers send at most a few KB; anything larger is
// rejected rather than buffered.
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks, authenticates them, and
// dispatches the normalized event to the reconciliation engine.
//
// Response contract: 200 once the event is processed or deliberately
// ignored, 400 when the payload is malformed or fails verification, 500
// on transient internal failure so the provider redelivers.
type WebhookHandler struct {
	gatewayFactory         gateway.Factory
	handlePaymentSuccessUC webhookEventUseCase
	handleSubCanceledUC    webhookEventUseCase
	handleRenewalUC        webhookEventUseCase
	handlePaymentFailedUC  webhookEventUseCase
	logger                 logger.Interface
}

func NewWebhookHandler(
	gatewayFactory gateway.Factory,
	handlePaymentSuccessUC webhookEventUseCase,
	handleSubCanceledUC webhookEventUseCase,
	handleRenewalUC webhookEventUseCase,
	handlePaymentFailedUC webhookEventUseCase,
	logger logger.Interface,
) *WebhookHandler {
	return &WebhookHandler{
		gatewayFactory:         gatewayFactory,
		handlePaymentSuccessUC: handlePaymentSuccessUC,
		handleSubCanceledUC:    handleSubCanceledUC,
		handleRenewalUC:        handleRenewalUC,
		handlePaymentFailedUC:  handlePaymentFailedUC,
		logger:                 logger,
	}
}

// providerFromPath maps the URL slug to a provider. The route uses
// "lemonsqueezy" while the domain constant is "lemon_squeezy".
func providerFromPath(slug string) (merchant.Provider, error) {
	if slug == "lemonsqueezy" {
		return merchant.ProviderLemonSqueezy, nil
	}
	return merchant.NewProvider(slug)
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	provider, err := providerFromPath(c.Param("provider"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "unknown payment provider")
		return
	}

	gw, err := h.gatewayFactory.New(provider)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "unknown payment provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := gw.VerifyWebhook(c.Request, body); err != nil {
		h.logger.Warnw("webhook verification failed",
			"provider", provider.String(),
			"error", err,
		)
		utils.ErrorResponse(c, http.StatusBadRequest, "webhook verification failed")
		return
	}

	event, err := gw.ParseWebhook(c.Request, body)
	if err != nil {
		h.logger.Warnw("webhook payload rejected",
			"provider", provider.String(),
			"error", err,
		)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if event.Kind == gateway.KindIgnored {
		utils.SuccessResponse(c, http.StatusOK, "event ignored", nil)
		return
	}

	if err := h.dispatch(c, *event); err != nil {
		// A purchase the engine cannot match is acknowledged so the
		// provider stops redelivering; anything else is retryable.
		if apperrors.IsNotFoundError(err) {
			h.logger.Infow("webhook event did not match a purchase",
				"provider", provider.String(),
				"kind", string(event.Kind),
				"order_no", event.OrderNo,
			)
			utils.SuccessResponse(c, http.StatusOK, "event acknowledged", nil)
			return
		}
		h.logger.Errorw("webhook processing failed",
			"provider", provider.String(),
			"kind", string(event.Kind),
			"order_no", event.OrderNo,
			"error", err,
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "event processed", nil)
}

func (h *WebhookHandler) dispatch(c *gin.Context, event gateway.WebhookEvent) error {
	ctx := c.Request.Context()
	switch event.Kind {
	case gateway.KindPaymentSucceeded:
		return h.handlePaymentSuccessUC.Execute(ctx, event)
	case gateway.KindSubscriptionCanceled:
		return h.handleSubCanceledUC.Execute(ctx, event)
	case gateway.KindRenewal:
		return h.handleRenewalUC.Execute(ctx, event)
	case gateway.KindPaymentFailed:
		return h.handlePaymentFailedUC.Execute(ctx, event)
	default:
		return nil
	}
}
