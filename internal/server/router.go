package server

import (
	"context"
	"net/http"
	"time"

	auction "auction-house/internal/auctionService"
	handler "auction-house/services/auction/handler"
	"auction-house/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the optional pieces of the HTTP surface
type RouterConfig struct {
	CORSOrigins []string
	// HealthCheck probes storage for GET /health; nil reports healthy.
	HealthCheck func(ctx context.Context) error
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, cfg RouterConfig) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestIDMiddleware)     // tag requests
	router.Use(IdentifyUser)            // acting user from X-User-ID
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(corsMiddleware(cfg.CORSOrigins))

	auctionHandler := handler.NewAuctionHandler(auctionService)

	router.GET("/health", healthHandler(cfg.HealthCheck))
	router.GET("/categories", auctionHandler.ListCategoriesHandler)

	listings := router.Group("/listings")
	{
		listings.GET("", auctionHandler.ListListingsHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.GET("/:listing_id/bids", auctionHandler.GetBidsByListingHandler)
		listings.GET("/:listing_id/winning", auctionHandler.GetWinningBidHandler)
		listings.GET("/:listing_id/comments", auctionHandler.GetCommentsHandler)

		authed := listings.Group("", RequireUser)
		authed.POST("", auctionHandler.CreateListingHandler)
		authed.POST("/:listing_id/bids", auctionHandler.RecordBidHandler)
		authed.POST("/:listing_id/close", auctionHandler.CloseAuctionHandler)
		authed.POST("/:listing_id/comments", auctionHandler.AddCommentHandler)
		authed.PUT("/:listing_id/watch", auctionHandler.WatchHandler)
		authed.DELETE("/:listing_id/watch", auctionHandler.UnwatchHandler)
	}

	router.GET("/watchlist", RequireUser, auctionHandler.GetWatchlistHandler)

	users := router.Group("/users")
	{
		users.GET("/:user_id/listings", auctionHandler.GetListingsByBidderHandler)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-User-ID", requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				utils.JSONError(c, http.StatusServiceUnavailable, err, "storage unavailable")
				utils.Error("health check failed", map[string]any{"error": err.Error()})
				return
			}
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	}
}
