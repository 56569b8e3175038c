package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field limits for listings
const (
	MaxTitleLength       = 64
	MaxDescriptionLength = 256
	MaxImageURLLength    = 200
)

// NewListing carries the owner-supplied fields of a listing
type NewListing struct {
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	ImageURL      string
	Category      models.Category
}

// ListingDetail is a listing together with its bidding state, as seen by one viewer
type ListingDetail struct {
	Listing         models.Listing `json:"listing"`
	BidCount        int64          `json:"bid_count"`
	HighestBidderID *string        `json:"highest_bidder_id"`
	Watching        bool           `json:"watching"`
	IsOwner         bool           `json:"is_owner"`
	IsWinner        bool           `json:"is_winner"`
}

// CreateListing validates and stores a new active listing owned by ownerID
func (s *AuctionService) CreateListing(ctx context.Context, ownerID string, in NewListing) (models.Listing, error) {
	if _, err := s.requireUser(ctx, ownerID); err != nil {
		return models.Listing{}, err
	}
	if err := validateListing(in); err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}

	price := in.StartingPrice.Round(2)
	listing := models.Listing{
		ListingID:     utils.GenerateID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		StartingPrice: price,
		Price:         price,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Category:      in.Category,
		OwnerID:       ownerID,
		Active:        true,
		CreatedAt:     s.timestamp(),
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing for user %s: %w", ownerID, err)
	}
	return listing, nil
}

func validateListing(in NewListing) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w - title is required", auctionerrors.ErrInvalidListing)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w - title exceeds %d characters", auctionerrors.ErrInvalidListing, MaxTitleLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) > MaxDescriptionLength {
		return fmt.Errorf("%w - description exceeds %d characters", auctionerrors.ErrInvalidListing, MaxDescriptionLength)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w - unknown category %q", auctionerrors.ErrInvalidListing, in.Category)
	}
	if err := validateImageURL(strings.TrimSpace(in.ImageURL)); err != nil {
		return err
	}
	return ValidateAmount(in.StartingPrice)
}

func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLength {
		return fmt.Errorf("%w - image URL exceeds %d characters", auctionerrors.ErrInvalidListing, MaxImageURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w - image URL must be an absolute http(s) URL", auctionerrors.ErrInvalidListing)
	}
	return nil
}

// GetListing returns a single listing
func (s *AuctionService) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	return s.requireListing(ctx, listingID)
}

// GetListingDetail returns a listing with its bid count and leader. viewerID may be empty.
func (s *AuctionService) GetListingDetail(ctx context.Context, listingID, viewerID string) (ListingDetail, error) {
	listing, err := s.requireListing(ctx, listingID)
	if err != nil {
		return ListingDetail{}, err
	}

	count, err := s.repo.CountBids(ctx, listingID)
	if err != nil {
		return ListingDetail{}, fmt.Errorf("service: failed to count bids for listing %s: %w", listingID, err)
	}

	detail := ListingDetail{Listing: listing, BidCount: count}
	if count > 0 {
		winning, err := s.repo.GetWinningBid(ctx, listingID)
		if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
			return ListingDetail{}, fmt.Errorf("service: failed to get highest bid for listing %s: %w", listingID, err)
		}
		if err == nil {
			detail.HighestBidderID = &winning.BidderID
		}
	}

	if viewerID != "" {
		watching, err := s.repo.IsWatching(ctx, viewerID, listingID)
		if err != nil {
			return ListingDetail{}, fmt.Errorf("service: failed to check watchlist for user %s: %w", viewerID, err)
		}
		detail.Watching = watching
		detail.IsOwner = listing.OwnerID == viewerID
		detail.IsWinner = listing.IsWinner(viewerID)
	}
	return detail, nil
}

// ListListings returns listings matching the filter, newest first
func (s *AuctionService) ListListings(ctx context.Context, filter repository.ListingFilter) ([]models.Listing, error) {
	if !filter.Category.Valid() {
		return nil, fmt.Errorf("service: %w - unknown category %q", auctionerrors.ErrInvalidListing, filter.Category)
	}

	listings, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}
