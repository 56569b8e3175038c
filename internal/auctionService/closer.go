package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"context"
	"errors"
	"fmt"
)

// CloseAuction ends an active listing on its owner's request. The winner is the highest bidder
// read inside the closing transaction; a listing without bids closes with no winner.
func (s *AuctionService) CloseAuction(ctx context.Context, listingID, requesterID string) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrListingNotFound)
	}

	var closed models.Listing
	err := s.repo.WithTx(ctx, func(tx repository.AuctionDB) error {
		listing, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID != requesterID {
			return auctionerrors.ErrNotOwner
		}
		if !listing.Active {
			return auctionerrors.ErrAlreadyClosed
		}

		var winnerID *string
		winning, err := tx.GetWinningBid(ctx, listingID)
		switch {
		case err == nil:
			winnerID = &winning.BidderID
		case errors.Is(err, auctionerrors.ErrNoBids):
		default:
			return err
		}

		if err := tx.CloseListing(ctx, listingID, winnerID); err != nil {
			return err
		}
		listing.Active = false
		listing.WinnerID = winnerID
		closed = listing
		return nil
	})
	if errors.Is(err, auctionerrors.ErrListingChanged) {
		err = fmt.Errorf("%w: %w", auctionerrors.ErrAlreadyClosed, err)
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to close listing %s for user %s: %w", listingID, requesterID, err)
	}

	return closed, nil
}
