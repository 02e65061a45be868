package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// CheckoutHandler serves the buyer-facing purchase endpoints.
type CheckoutHandler struct {
	createCheckoutUC  createCheckoutUseCase
	grantFreeAccessUC grantFreeAccessUseCase
	logger            logger.Interface
}

func NewCheckoutHandler(
	createCheckoutUC createCheckoutUseCase,
	grantFreeAccessUC grantFreeAccessUseCase,
	logger logger.Interface,
) *CheckoutHandler {
	return &CheckoutHandler{
		createCheckoutUC:  createCheckoutUC,
		grantFreeAccessUC: grantFreeAccessUC,
		logger:            logger,
	}
}

type CreateCheckoutRequest struct {
	RepositorySlug string `json:"repository_slug" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	GitHubUsername string `json:"github_username" binding:"required,github_username"`
	SuccessURL     string `json:"success_url" binding:"omitempty,url"`
	CancelURL      string `json:"cancel_url" binding:"omitempty,url"`
}

type CreateCheckoutResponse struct {
	OrderNo     string `json:"order_no"`
	CheckoutURL string `json:"checkout_url"`
}

func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := purchaseUsecases.CreateCheckoutCommand{
		RepositorySlug: req.RepositorySlug,
		Email:          req.Email,
		GitHubUsername: req.GitHubUsername,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
	}

	result, err := h.createCheckoutUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("checkout creation failed",
			"repository", req.RepositorySlug,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "checkout session created", CreateCheckoutResponse{
		OrderNo:     result.OrderNo,
		CheckoutURL: result.CheckoutURL,
	})
}

type FreeAccessRequest struct {
	RepositorySlug string `json:"repository_slug" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
	GitHubUsername string `json:"github_username" binding:"required,github_username"`
}

type FreeAccessResponse struct {
	OrderNo string `json:"order_no"`
	Granted bool   `json:"granted"`
}

func (h *CheckoutHandler) GrantFreeAccess(c *gin.Context) {
	var req FreeAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := purchaseUsecases.GrantFreeAccessCommand{
		RepositorySlug: req.RepositorySlug,
		Email:          req.Email,
		GitHubUsername: req.GitHubUsername,
	}

	result, err := h.grantFreeAccessUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("free access request failed",
			"repository", req.RepositorySlug,
			"username", req.GitHubUsername,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	message := "access granted"
	if !result.Granted {
		message = "access queued, invitation will be retried shortly"
	}
	utils.SuccessResponse(c, http.StatusOK, message, FreeAccessResponse{
		OrderNo: result.OrderNo,
		Granted: result.Granted,
	})
}
