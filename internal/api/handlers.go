package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"roomify/server/internal/database"
	"roomify/server/internal/errs"
	"roomify/server/internal/feed"
	"roomify/server/internal/matching"
	"roomify/server/internal/middleware"
	"roomify/server/internal/models"
	"roomify/server/internal/notify"
	"roomify/server/internal/workflow"
)

type Handler struct {
	db       *database.Database
	matching *matching.Service
	feed     *feed.Service
	workflow *workflow.Service
	chat     *notify.ChatLog
	logger   *logrus.Logger
}

type InteractionRequest struct {
	TenantID   string `json:"tenantId" binding:"required"`
	PropertyID uint   `json:"propertyId" binding:"required"`
}

type ViewingRequest struct {
	ViewingDate string `json:"viewingDate" binding:"required"`
}

type RentProposalRequest struct {
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
	Currency     string          `json:"currency"`
	StartDate    string          `json:"startDate" binding:"required"`
	EndDate      string          `json:"endDate"`
}

type PaymentRequest struct {
	LeaseID string `json:"leaseId" binding:"required"`
}

func NewHandler(db *database.Database, matchingService *matching.Service, feedService *feed.Service,
	workflowService *workflow.Service, chat *notify.ChatLog, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:       db,
		matching: matchingService,
		feed:     feedService,
		workflow: workflowService,
		chat:     chat,
		logger:   logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	if sqlDB, err := h.db.DB().DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) TenantSwipe(c *gin.Context) {
	h.tenantInteraction(c, true)
}

func (h *Handler) TenantPass(c *gin.Context) {
	h.tenantInteraction(c, false)
}

func (h *Handler) tenantInteraction(c *gin.Context, liked bool) {
	propertyID, err := strconv.ParseUint(c.Param("propertyId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	match, err := h.matching.Swipe(c.Request.Context(), middleware.GetUserID(c), models.RoleTenant,
		"", uint(propertyID), liked)
	if err != nil {
		h.respondError(c, err, "record interaction")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *Handler) LandlordInvite(c *gin.Context) {
	h.landlordInteraction(c, true)
}

func (h *Handler) LandlordPass(c *gin.Context) {
	h.landlordInteraction(c, false)
}

func (h *Handler) landlordInteraction(c *gin.Context, liked bool) {
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenantId and propertyId are required"})
		return
	}

	match, err := h.matching.Swipe(c.Request.Context(), middleware.GetUserID(c), models.RoleLandlord,
		req.TenantID, req.PropertyID, liked)
	if err != nil {
		h.respondError(c, err, "record interaction")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *Handler) PendingLikes(c *gin.Context) {
	matches, err := h.matching.PendingLikesForLandlord(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "get pending likes")
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *Handler) ConfirmedMatches(c *gin.Context) {
	matches, err := h.matching.ConfirmedMatchesForLandlord(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "get matches")
		return
	}
	c.JSON(http.StatusOK, matches)
}

// GetFeed serves the tenant feed or the landlord feed depending on the
// caller's role. Landlords may narrow it with ?propertyId=.
func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var (
		candidates []feed.Candidate
		err        error
	)
	switch middleware.GetRole(c) {
	case models.RoleTenant:
		candidates, err = h.feed.TenantFeed(ctx, userID)
	case models.RoleLandlord:
		var propertyID uint64
		if raw := c.Query("propertyId"); raw != "" {
			propertyID, err = strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
				return
			}
		}
		candidates, err = h.feed.LandlordFeed(ctx, userID, uint(propertyID))
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Feed is only available to tenants and landlords"})
		return
	}
	if err != nil {
		h.respondError(c, err, "build feed")
		return
	}
	if candidates == nil {
		candidates = []feed.Candidate{}
	}
	c.JSON(http.StatusOK, candidates)
}

func (h *Handler) ProposeViewing(c *gin.Context) {
	var req ViewingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "viewingDate is required"})
		return
	}
	viewingDate, err := parseDateTime(req.ViewingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewingDate format"})
		return
	}

	match, err := h.workflow.ProposeViewing(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), viewingDate)
	if err != nil {
		h.respondError(c, err, "propose viewing")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *Handler) AcceptViewing(c *gin.Context) {
	match, err := h.workflow.AcceptViewing(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "accept viewing")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *Handler) SendRentProposal(c *gin.Context) {
	var req RentProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthlyPrice and startDate are required"})
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate format, use YYYY-MM-DD"})
		return
	}
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate format, use YYYY-MM-DD"})
			return
		}
		endDate = &parsed
	}

	lease, err := h.workflow.SendRentProposal(c.Request.Context(), workflow.RentProposal{
		MatchID:      c.Param("id"),
		LandlordID:   middleware.GetUserID(c),
		MonthlyPrice: req.MonthlyPrice,
		Currency:     models.Currency(req.Currency),
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		h.respondError(c, err, "send rent proposal")
		return
	}
	c.JSON(http.StatusCreated, lease)
}

func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.chat.Messages(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "get messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) DeclineOffer(c *gin.Context) {
	lease, err := h.workflow.DeclineOffer(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "decline offer")
		return
	}
	c.JSON(http.StatusOK, lease)
}

// ConfirmPayment is the payment provider callback. Redelivery of the same
// lease returns 200 with replayed set.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "leaseId is required"})
		return
	}

	activation, err := h.workflow.ConfirmPayment(c.Request.Context(), req.LeaseID)
	if err != nil {
		h.respondError(c, err, "confirm payment")
		return
	}
	c.JSON(http.StatusOK, activation)
}

func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := database.GetPreferences(h.db.WithContext(c.Request.Context()), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err, "get preferences")
		return
	}
	if prefs == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences"})
		return
	}
	if err := validatePreferences(&prefs); err != nil {
		h.respondError(c, err, "update preferences")
		return
	}
	prefs.UserID = middleware.GetUserID(c)

	if err := database.SavePreferences(h.db.WithContext(c.Request.Context()), &prefs); err != nil {
		h.respondError(c, err, "update preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func validatePreferences(p *models.Preferences) error {
	if p.MinPrice.Valid && p.MaxPrice.Valid && p.MinPrice.Decimal.GreaterThan(p.MaxPrice.Decimal) {
		return errs.Invalid("min_price exceeds max_price")
	}
	if p.MinRooms != nil && p.MaxRooms != nil && *p.MinRooms > *p.MaxRooms {
		return errs.Invalid("min_rooms exceeds max_rooms")
	}
	if p.SearchRadiusKm != nil && *p.SearchRadiusKm <= 0 {
		return errs.Invalid("search_radius_km must be positive")
	}
	for _, layout := range p.LayoutTypes {
		if _, err := models.ParseLayoutType(string(layout)); err != nil {
			return errs.Invalid("%v", err)
		}
	}
	return nil
}

// parseDateTime accepts RFC 3339 or the browser's datetime-local value,
// which carries no zone and is read as UTC.
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02T15:04", s)
}
