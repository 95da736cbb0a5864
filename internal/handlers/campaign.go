package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/givebridge-backend/internal/middleware"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/services"
)

type CampaignHandler struct {
	campaignService services.CampaignService
}

func NewCampaignHandler(campaignService services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

func (ch *CampaignHandler) Create(c *gin.Context) {
	var input services.CreateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	campaign, err := ch.campaignService.Create(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input services.UpdateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	campaign, err := ch.campaignService.Update(c.Request.Context(), middleware.UserID(c), id, input)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.campaignService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *CampaignHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	campaign, err := ch.campaignService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) GetBySlug(c *gin.Context) {
	campaign, err := ch.campaignService.GetBySlug(c.Request.Context(), c.Param("slug"), true)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) ListActive(c *gin.Context) {
	campaigns, err := ch.campaignService.ListActive(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) ListFeatured(c *gin.Context) {
	campaigns, err := ch.campaignService.ListFeatured(c.Request.Context(), queryInt(c, "limit", 6))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) ListByCategory(c *gin.Context) {
	campaigns, err := ch.campaignService.ListByCategory(c.Request.Context(), c.Param("category"), queryInt(c, "limit", 0))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) ListMine(c *gin.Context) {
	campaigns, err := ch.campaignService.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) ListTrending(c *gin.Context) {
	campaigns, err := ch.campaignService.ListTrending(c.Request.Context(), queryInt(c, "limit", 6))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) ListEndingSoon(c *gin.Context) {
	campaigns, err := ch.campaignService.ListEndingSoon(c.Request.Context(), queryInt(c, "days", 7), queryInt(c, "limit", 6))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) Browse(c *gin.Context) {
	filters := filtersFromQuery(c)
	campaigns, total, err := ch.campaignService.Browse(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "per_page", 12), filters)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns, "total": total})
}

func (ch *CampaignHandler) Search(c *gin.Context) {
	campaigns, err := ch.campaignService.Search(c.Request.Context(), c.Query("q"), filtersFromQuery(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) Statistics(c *gin.Context) {
	stats, err := ch.campaignService.Statistics(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"statistics": stats})
}

func (ch *CampaignHandler) ListByStatus(c *gin.Context) {
	campaigns, err := ch.campaignService.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	campaign, err := ch.campaignService.Approve(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	campaign, err := ch.campaignService.Reject(c.Request.Context(), middleware.UserID(c), id, body.Reason)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (ch *CampaignHandler) BulkUpdateStatus(c *gin.Context) {
	var body struct {
		IDs    []uuid.UUID `json:"ids"`
		Status string      `json:"status"`
		Reason *string     `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	adminID := middleware.UserID(c)
	updated, err := ch.campaignService.BulkUpdateStatus(c.Request.Context(), body.IDs, body.Status, body.Reason, &adminID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"updated": updated})
}

func filtersFromQuery(c *gin.Context) repos.CampaignFilters {
	filters := repos.CampaignFilters{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if raw := c.Query("featured"); raw != "" {
		featured := raw == "1" || raw == "true"
		filters.Featured = &featured
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filters.UserID = id
		}
	}
	return filters
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
