package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PlaceBid validates and records a bid. The bid insert and the listing price update
// commit together while the listing row is locked.
func (s *AuctionService) PlaceBid(ctx context.Context, listingID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	if listingID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrListingNotFound)
	}
	if _, err := s.requireUser(ctx, bidderID); err != nil {
		return models.Bid{}, err
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
	}

	err := s.repo.WithTx(ctx, func(tx repository.AuctionDB) error {
		listing, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return err
		}
		if err := validateBid(listing, bidderID, amount); err != nil {
			return err
		}
		if err := tx.UpdateListingPrice(ctx, listingID, amount); err != nil {
			return err
		}
		bid.CreatedAt = s.timestamp()
		return tx.RecordBidForListing(ctx, bid)
	})
	if errors.Is(err, auctionerrors.ErrListingChanged) {
		err = s.classifyBidConflict(ctx, listingID, err)
	}
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to place bid on listing %s by user %s: %w", listingID, bidderID, err)
	}

	return bid, nil
}

// validateBid applies the bidding rules to the locked listing. The state checks come first so a
// closed listing or the owner is rejected whatever the amount.
func validateBid(listing models.Listing, bidderID string, amount decimal.Decimal) error {
	if !listing.Active {
		return auctionerrors.ErrAuctionClosed
	}
	if listing.OwnerID == bidderID {
		return auctionerrors.ErrOwnerCannotBid
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.LessThanOrEqual(listing.Price) {
		return fmt.Errorf("%w - current price is %s", auctionerrors.ErrBidTooLow, listing.Price.StringFixed(2))
	}
	return nil
}

// classifyBidConflict turns a lost conditional price update into the rule that rejected it
func (s *AuctionService) classifyBidConflict(ctx context.Context, listingID string, cause error) error {
	utils.Debug("bid lost conditional price update", map[string]any{"listing_id": listingID})
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return errors.Join(cause, err)
	}
	if !listing.Active {
		return fmt.Errorf("%w: %w", auctionerrors.ErrAuctionClosed, cause)
	}
	return fmt.Errorf("%w - current price is %s: %w", auctionerrors.ErrBidTooLow, listing.Price.StringFixed(2), cause)
}

// GetBidsForListing returns all bids for a listing in submission order
func (s *AuctionService) GetBidsForListing(ctx context.Context, listingID string) ([]models.Bid, error) {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}

	return bids, nil
}

// HighestBid returns the winning bid for a listing: highest amount, then earliest submission
func (s *AuctionService) HighestBid(ctx context.Context, listingID string) (models.Bid, error) {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return models.Bid{}, err
	}

	winningBid, err := s.repo.GetWinningBid(ctx, listingID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for listing %s: %w", listingID, err)
	}

	return winningBid, nil
}

// HighestBidder returns the current leader of a listing, if anyone has bid
func (s *AuctionService) HighestBidder(ctx context.Context, listingID string) (string, bool, error) {
	bid, err := s.HighestBid(ctx, listingID)
	if errors.Is(err, auctionerrors.ErrNoBids) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return bid.BidderID, true, nil
}

// BidCount returns the number of bids placed on a listing
func (s *AuctionService) BidCount(ctx context.Context, listingID string) (int64, error) {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return 0, err
	}

	count, err := s.repo.CountBids(ctx, listingID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count bids for listing %s: %w", listingID, err)
	}
	return count, nil
}

// CurrentPrice returns the listing's price: the highest bid, or the starting price before any bid
func (s *AuctionService) CurrentPrice(ctx context.Context, listingID string) (decimal.Decimal, error) {
	listing, err := s.requireListing(ctx, listingID)
	if err != nil {
		return decimal.Zero, err
	}
	return listing.Price, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *AuctionService) GetListingsByBidder(ctx context.Context, userID string) ([]models.Listing, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	listings, err := s.repo.GetListingsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for bidder %s: %w", userID, err)
	}

	return listings, nil
}
