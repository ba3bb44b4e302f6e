package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roomify/server/config"
	"roomify/server/internal/middleware"
	"roomify/server/internal/models"
)

// NewRouter builds the engine with the shared middleware chain and every
// route registered.
func NewRouter(cfg *config.Config, handler *Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(logger), middleware.Recovery(logger))
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	SetupRoutes(router, handler, cfg)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler, cfg *config.Config) {
	router.GET("/health", handler.Health)

	// Called by the payment provider, not by users
	router.POST("/api/payments/confirm", middleware.PaymentSecret(cfg.Server.PaymentSecret), handler.ConfirmPayment)

	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.Server.JWTSecret))
	{
		api.GET("/feed", handler.GetFeed)
		api.GET("/preferences", handler.GetPreferences)
		api.PUT("/preferences", handler.UpdatePreferences)

		tenant := api.Group("/matches/tenant", requireRole(models.RoleTenant))
		tenant.POST("/swipe/:propertyId", handler.TenantSwipe)
		tenant.POST("/pass/:propertyId", handler.TenantPass)

		landlord := api.Group("/matches/landlord", requireRole(models.RoleLandlord))
		landlord.POST("/invite", handler.LandlordInvite)
		landlord.POST("/pass", handler.LandlordPass)
		landlord.GET("/pending", handler.PendingLikes)
		landlord.GET("/matches", handler.ConfirmedMatches)

		api.POST("/matches/:id/viewing", handler.ProposeViewing)
		api.POST("/matches/:id/viewing/accept", handler.AcceptViewing)
		api.POST("/matches/:id/rent-proposal", handler.SendRentProposal)
		api.GET("/matches/:id/messages", handler.GetMessages)

		api.POST("/leases/:id/decline", handler.DeclineOffer)
	}
}

func requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "This action requires the " + string(role) + " role"})
			return
		}
		c.Next()
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
