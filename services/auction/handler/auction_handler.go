package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-house/internal/auctionerrors"
	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_handler.go -package=handler

type AuctionServiceInterface interface {
	PlaceBid(ctx context.Context, listingID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error)
	HighestBid(ctx context.Context, listingID string) (model.Bid, error)
	CloseAuction(ctx context.Context, listingID, requesterID string) (model.Listing, error)
	CreateListing(ctx context.Context, ownerID string, in auction.NewListing) (model.Listing, error)
	GetListingDetail(ctx context.Context, listingID, viewerID string) (auction.ListingDetail, error)
	ListListings(ctx context.Context, filter repository.ListingFilter) ([]model.Listing, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)
	AddWatch(ctx context.Context, userID, listingID string) error
	RemoveWatch(ctx context.Context, userID, listingID string) error
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)
	AddComment(ctx context.Context, listingID, authorID, content string) (model.Comment, error)
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// RecordBidHandler handles POST /listings/:listing_id/bids
func (h *AuctionHandler) RecordBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bidderID := helpers.RequesterID(c)

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), listingID, bidderID, *req.Amount)
	if err != nil {
		helpers.RespondServiceError(c, "RecordBidHandler", "failed to record bid", err, map[string]any{
			"listing_id": listingID,
			"user_id":    bidderID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    bidderID,
		"amount":     bid.Amount.StringFixed(2),
	})
}

// GetBidsByListingHandler handles GET /listings/:listing_id/bids
func (h *AuctionHandler) GetBidsByListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bids, err := h.service.GetBidsForListing(c.Request.Context(), listingID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		helpers.RespondServiceError(c, "GetBidsByListingHandler", "error retrieving bids", err, map[string]any{"listing_id": listingID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByListingHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /listings/:listing_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bid, err := h.service.HighestBid(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"listing_id": listingID})
			return
		}
		helpers.RespondServiceError(c, "GetWinningBidHandler", "winning bid error", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    bid.BidderID,
		"amount":     bid.Amount.StringFixed(2),
	})
}

// CloseAuctionHandler handles POST /listings/:listing_id/close
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	requesterID := helpers.RequesterID(c)

	listing, err := h.service.CloseAuction(c.Request.Context(), listingID, requesterID)
	if err != nil {
		helpers.RespondServiceError(c, "CloseAuctionHandler", "failed to close auction", err, map[string]any{
			"listing_id": listingID,
			"user_id":    requesterID,
		})
		return
	}

	winner := ""
	if listing.WinnerID != nil {
		winner = *listing.WinnerID
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewCloseAuctionResponse(listing), "auction closed successfully")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed successfully", map[string]any{
		"listing_id": listingID,
		"winner_id":  winner,
	})
}
