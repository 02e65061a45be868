package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogUsecases "github.com/repogate-inc/repogate/internal/application/catalog/usecases"
	catalogvo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// ListingHandler serves owner-side catalog management.
type ListingHandler struct {
	createListingUC createListingUseCase
	changePriceUC   changeListingPriceUseCase
	logger          logger.Interface
}

func NewListingHandler(
	createListingUC createListingUseCase,
	changePriceUC changeListingPriceUseCase,
	logger logger.Interface,
) *ListingHandler {
	return &ListingHandler{
		createListingUC: createListingUC,
		changePriceUC:   changePriceUC,
		logger:          logger,
	}
}

type CreateListingRequest struct {
	OwnerID             uint   `json:"owner_id" binding:"required"`
	GitHubOwner         string `json:"github_owner" binding:"required"`
	GitHubRepoName      string `json:"github_repo" binding:"required"`
	DisplayName         string `json:"display_name" binding:"omitempty,max=200"`
	Description         string `json:"description" binding:"omitempty,max=2000"`
	CoverImageURL       string `json:"cover_image_url" binding:"omitempty,url"`
	PricingType         string `json:"pricing_type" binding:"required,oneof=one_time subscription free"`
	PriceCents          int64  `json:"price_cents" binding:"min=0"`
	Cadence             string `json:"cadence" binding:"omitempty,oneof=monthly yearly custom"`
	CustomCadenceDays   *int   `json:"custom_cadence_days" binding:"omitempty,min=1"`
	RequireEmailForFree bool   `json:"require_email_for_free"`
	PaymentProvider     string `json:"payment_provider" binding:"omitempty"`
}

type ChangeListingPriceRequest struct {
	ActorID    uint  `json:"actor_id" binding:"required"`
	PriceCents int64 `json:"price_cents" binding:"min=0"`
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := catalogUsecases.CreateListingCommand{
		OwnerID:             req.OwnerID,
		GitHubOwner:         req.GitHubOwner,
		GitHubRepoName:      req.GitHubRepoName,
		DisplayName:         req.DisplayName,
		Description:         req.Description,
		CoverImageURL:       req.CoverImageURL,
		PricingType:         catalogvo.PricingType(req.PricingType),
		PriceCents:          req.PriceCents,
		CustomCadenceDays:   req.CustomCadenceDays,
		RequireEmailForFree: req.RequireEmailForFree,
		PaymentProvider:     merchant.Provider(req.PaymentProvider),
	}
	if req.Cadence != "" {
		cadence := catalogvo.Cadence(req.Cadence)
		cmd.Cadence = &cadence
	}

	result, err := h.createListingUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Warnw("listing creation failed",
			"github_repo", req.GitHubOwner+"/"+req.GitHubRepoName,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "listing created", gin.H{
		"repository_id": result.RepositoryID,
		"slug":          result.Slug,
	})
}

func (h *ListingHandler) ChangePrice(c *gin.Context) {
	repositoryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid repository id")
		return
	}

	var req ChangeListingPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := catalogUsecases.ChangeListingPriceCommand{
		RepositoryID: uint(repositoryID),
		ActorID:      req.ActorID,
		PriceCents:   req.PriceCents,
	}

	if err := h.changePriceUC.Execute(c.Request.Context(), cmd); err != nil {
		h.logger.Warnw("price change failed",
			"repository_id", repositoryID,
			"actor_id", req.ActorID,
			"error", err,
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "price updated", nil)
}
