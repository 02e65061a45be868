package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// AdminHandler serves owner-side purchase management.
type AdminHandler struct {
	revokeAccessUC revokeAccessUseCase
	logger         logger.Interface
}

func NewAdminHandler(revokeAccessUC revokeAccessUseCase, logger logger.Interface) *AdminHandler {
	return &AdminHandler{revokeAccessUC: revokeAccessUC, logger: logger}
}

type RevokeAccessRequest struct {
	ActorID uint   `json:"actor_id" binding:"required"`
	Reason  string `json:"reason" binding:"omitempty,max=500"`
}

func (h *AdminHandler) RevokeAccess(c *gin.Context) {
	purchaseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid purchase id")
		return
	}

	var req RevokeAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := purchaseUsecases.RevokeAccessCommand{
		PurchaseID: uint(purchaseID),
		ActorID:    req.ActorID,
		Reason:     req.Reason,
	}

	if err := h.revokeAccessUC.Execute(c.Request.Context(), cmd); err != nil {
		h.logger.Warnw("access revocation failed",
			"purchase_id", purchaseID,
			"actor_id", req.ActorID,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "access revoked", nil)
}
