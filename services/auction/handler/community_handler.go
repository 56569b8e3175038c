package handler

import (
	"net/http"

	model "auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// WatchHandler handles PUT /listings/:listing_id/watch
func (h *AuctionHandler) WatchHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	userID := helpers.RequesterID(c)

	if err := h.service.AddWatch(c.Request.Context(), userID, listingID); err != nil {
		helpers.RespondServiceError(c, "WatchHandler", "failed to watch listing", err, map[string]any{
			"listing_id": listingID,
			"user_id":    userID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.WatchResponse{ListingID: listingID, Watching: true}, "listing added to watchlist")
}

// UnwatchHandler handles DELETE /listings/:listing_id/watch
func (h *AuctionHandler) UnwatchHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	userID := helpers.RequesterID(c)

	if err := h.service.RemoveWatch(c.Request.Context(), userID, listingID); err != nil {
		helpers.RespondServiceError(c, "UnwatchHandler", "failed to unwatch listing", err, map[string]any{
			"listing_id": listingID,
			"user_id":    userID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.WatchResponse{ListingID: listingID, Watching: false}, "listing removed from watchlist")
}

// GetWatchlistHandler handles GET /watchlist for the requesting user
func (h *AuctionHandler) GetWatchlistHandler(c *gin.Context) {
	userID := helpers.RequesterID(c)
	listings, err := h.service.GetWatchlist(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondServiceError(c, "GetWatchlistHandler", "error retrieving watchlist", err, map[string]any{"user_id": userID})
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	utils.JSONResponse(c, http.StatusOK, listings, "watchlist retrieved successfully")
}

// AddCommentHandler handles POST /listings/:listing_id/comments
func (h *AuctionHandler) AddCommentHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	authorID := helpers.RequesterID(c)

	var req helpers.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddCommentHandler", err)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), listingID, authorID, req.Content)
	if err != nil {
		helpers.RespondServiceError(c, "AddCommentHandler", "failed to add comment", err, map[string]any{
			"listing_id": listingID,
			"user_id":    authorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, comment, "comment added successfully")
	helpers.LogSuccess("AddCommentHandler", "comment added successfully", map[string]any{
		"comment_id": comment.CommentID,
		"listing_id": listingID,
	})
}

// GetCommentsHandler handles GET /listings/:listing_id/comments
func (h *AuctionHandler) GetCommentsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	comments, err := h.service.GetComments(c.Request.Context(), listingID)
	if err != nil {
		helpers.RespondServiceError(c, "GetCommentsHandler", "error retrieving comments", err, map[string]any{"listing_id": listingID})
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	utils.JSONResponse(c, http.StatusOK, comments, "comments retrieved successfully")
}
