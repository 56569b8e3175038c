package helpers

import (
	"time"

	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type CreateListingRequest struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	StartingPrice *decimal.Decimal `json:"starting_price" binding:"required"`
	ImageURL      string           `json:"image_url"`
	Category      string           `json:"category"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	ListingID string `json:"listing_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type CloseAuctionResponse struct {
	ListingID string  `json:"listing_id"`
	Active    bool    `json:"active"`
	WinnerID  *string `json:"winner_id"`
	Price     string  `json:"price"`
}

type CategoryResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type WatchResponse struct {
	ListingID string `json:"listing_id"`
	Watching  bool   `json:"watching"`
}

// NewBidResponse formats a bid for the API
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ListingID: bid.ListingID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount.StringFixed(2),
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewCloseAuctionResponse formats a closed listing for the API
func NewCloseAuctionResponse(listing model.Listing) CloseAuctionResponse {
	return CloseAuctionResponse{
		ListingID: listing.ListingID,
		Active:    listing.Active,
		WinnerID:  listing.WinnerID,
		Price:     listing.Price.StringFixed(2),
	}
}
