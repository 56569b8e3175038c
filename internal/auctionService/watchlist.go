package auction

import (
	"auction-house/internal/models"
	"context"
	"fmt"
)

// AddWatch puts a listing on the user's watchlist. Adding it twice is not an error.
func (s *AuctionService) AddWatch(ctx context.Context, userID, listingID string) error {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return err
	}

	watch := models.Watch{UserID: userID, ListingID: listingID, CreatedAt: s.timestamp()}
	if err := s.repo.AddWatch(ctx, watch); err != nil {
		return fmt.Errorf("service: failed to watch listing %s for user %s: %w", listingID, userID, err)
	}
	return nil
}

// RemoveWatch takes a listing off the user's watchlist. Removing an unwatched listing is not an error.
func (s *AuctionService) RemoveWatch(ctx context.Context, userID, listingID string) error {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return err
	}

	if err := s.repo.RemoveWatch(ctx, userID, listingID); err != nil {
		return fmt.Errorf("service: failed to unwatch listing %s for user %s: %w", listingID, userID, err)
	}
	return nil
}

// GetWatchlist returns the listings a user watches
func (s *AuctionService) GetWatchlist(ctx context.Context, userID string) ([]models.Listing, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	listings, err := s.repo.GetWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}
