package repository

import (
	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Helper to create a new Listing
func newListing(listingID, ownerID string, price string) model.Listing {
	p := decimal.RequireFromString(price)
	return model.Listing{
		ListingID:     listingID,
		Title:         fmt.Sprintf("%s title", listingID),
		Description:   fmt.Sprintf("%s description", listingID),
		StartingPrice: p,
		Price:         p,
		OwnerID:       ownerID,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
}

// Helper to create a new Bid
func newBid(bidID, listingID, bidderID string, amount string, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: createdAt,
	}
}

// Test RecordBidForListing
func TestMemoryRepo_RecordBidForListing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newListing("listing1", "owner", "50"))

	tests := []struct {
		name      string
		bid       model.Bid
		wantError bool
	}{
		{name: "valid_bid", bid: newBid("bid1", "listing1", "user1", "100", time.Now()), wantError: false},
		{name: "listing_not_found", bid: newBid("bid2", "listingX", "user1", "50", time.Now()), wantError: true},
		{name: "bid_with_past_timestamp", bid: newBid("bid3", "listing1", "user4", "120", time.Now().Add(-24*time.Hour)), wantError: false},
		{name: "empty_listingID", bid: newBid("bid-empty", "", "userY", "100", time.Now()), wantError: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := repo.RecordBidForListing(ctx, tc.bid)
			if tc.wantError {
				require.Error(t, err)
				require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))
				return
			}
			require.NoError(t, err)
			bids, err := repo.GetBidsByListing(ctx, tc.bid.ListingID)
			require.NoError(t, err)
			require.Contains(t, bids, tc.bid)
		})
	}

	t.Run("concurrent_bids", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		repo.AddListing(newListing("listing1", "owner", "50"))

		var wg sync.WaitGroup
		concurrentCount := 50
		errs := make(chan error, concurrentCount)

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				b := newBid(fmt.Sprintf("bid-%d", i), "listing1", fmt.Sprintf("user-%d", i), fmt.Sprintf("%d", 100+i), time.Now())
				errs <- repo.RecordBidForListing(ctx, b)
			}()
		}

		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		count, err := repo.CountBids(ctx, "listing1")
		require.NoError(t, err)
		require.EqualValues(t, concurrentCount, count)
	})
}

// Test GetWinningBid
func TestMemoryRepo_GetWinningBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		bids      []model.Bid
		wantBidID string
		wantErr   error
	}{
		{
			name:    "no_bids",
			wantErr: auctionerrors.ErrNoBids,
		},
		{
			name: "single_bid",
			bids: []model.Bid{
				newBid("b1", "l1", "u1", "10", base),
			},
			wantBidID: "b1",
		},
		{
			name: "highest_amount_wins",
			bids: []model.Bid{
				newBid("b1", "l1", "u1", "10", base),
				newBid("b2", "l1", "u2", "30", base.Add(time.Second)),
				newBid("b3", "l1", "u3", "20", base.Add(2*time.Second)),
			},
			wantBidID: "b2",
		},
		{
			name: "tie_goes_to_earliest",
			bids: []model.Bid{
				newBid("b1", "l1", "u1", "30", base.Add(time.Second)),
				newBid("b2", "l1", "u2", "30", base),
			},
			wantBidID: "b2",
		},
		{
			name: "tie_with_same_time_goes_to_lowest_id",
			bids: []model.Bid{
				newBid("b9", "l1", "u1", "30", base),
				newBid("b3", "l1", "u2", "30", base),
			},
			wantBidID: "b3",
		},
		{
			name: "decimal_precision",
			bids: []model.Bid{
				newBid("b1", "l1", "u1", "10.10", base),
				newBid("b2", "l1", "u2", "10.09", base),
			},
			wantBidID: "b1",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMemoryRepo()
			repo.AddListing(newListing("l1", "owner", "0"))
			for _, b := range tc.bids {
				require.NoError(t, repo.RecordBidForListing(ctx, b))
			}

			bid, err := repo.GetWinningBid(ctx, "l1")
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantBidID, bid.BidID)
		})
	}
}

// Test conditional listing writes
func TestMemoryRepo_ConditionalListingUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("price_must_increase", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		repo.AddListing(newListing("l1", "owner", "10"))

		require.True(t, errors.Is(repo.UpdateListingPrice(ctx, "l1", decimal.RequireFromString("10")), auctionerrors.ErrListingChanged))
		require.NoError(t, repo.UpdateListingPrice(ctx, "l1", decimal.RequireFromString("10.01")))

		listing, err := repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.True(t, listing.Price.Equal(decimal.RequireFromString("10.01")))
	})

	t.Run("closed_listing_rejects_updates", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		repo.AddListing(newListing("l1", "owner", "10"))

		winner := "u1"
		require.NoError(t, repo.CloseListing(ctx, "l1", &winner))
		require.True(t, errors.Is(repo.CloseListing(ctx, "l1", nil), auctionerrors.ErrListingChanged))
		require.True(t, errors.Is(repo.UpdateListingPrice(ctx, "l1", decimal.RequireFromString("99")), auctionerrors.ErrListingChanged))

		listing, err := repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.False(t, listing.Active)
		require.Equal(t, &winner, listing.WinnerID)
	})

	t.Run("unknown_listing", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		require.True(t, errors.Is(repo.CloseListing(ctx, "missing", nil), auctionerrors.ErrListingNotFound))
		require.True(t, errors.Is(repo.UpdateListingPrice(ctx, "missing", decimal.NewFromInt(1)), auctionerrors.ErrListingNotFound))
	})
}

// Test WithTx rollback
func TestMemoryRepo_WithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("error_rolls_back_all_writes", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		repo.AddListing(newListing("l1", "owner", "10"))
		boom := errors.New("boom")

		err := repo.WithTx(ctx, func(tx AuctionDB) error {
			require.NoError(t, tx.UpdateListingPrice(ctx, "l1", decimal.NewFromInt(20)))
			require.NoError(t, tx.RecordBidForListing(ctx, newBid("b1", "l1", "u1", "20", time.Now())))
			require.NoError(t, tx.AddWatch(ctx, model.Watch{UserID: "u1", ListingID: "l1", CreatedAt: time.Now()}))
			require.NoError(t, tx.AddComment(ctx, model.Comment{CommentID: "c1", ListingID: "l1", AuthorID: "u1", Content: "hi"}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		listing, err := repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.True(t, listing.Price.Equal(decimal.NewFromInt(10)))

		count, err := repo.CountBids(ctx, "l1")
		require.NoError(t, err)
		require.Zero(t, count)

		byBidder, err := repo.GetListingsByBidder(ctx, "u1")
		require.NoError(t, err)
		require.Empty(t, byBidder)

		watching, err := repo.IsWatching(ctx, "u1", "l1")
		require.NoError(t, err)
		require.False(t, watching)

		comments, err := repo.GetComments(ctx, "l1")
		require.NoError(t, err)
		require.Empty(t, comments)
	})

	t.Run("success_keeps_writes", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		repo.AddListing(newListing("l1", "owner", "10"))

		err := repo.WithTx(ctx, func(tx AuctionDB) error {
			if err := tx.UpdateListingPrice(ctx, "l1", decimal.NewFromInt(20)); err != nil {
				return err
			}
			return tx.RecordBidForListing(ctx, newBid("b1", "l1", "u1", "20", time.Now()))
		})
		require.NoError(t, err)

		bid, err := repo.GetWinningBid(ctx, "l1")
		require.NoError(t, err)
		require.Equal(t, "b1", bid.BidID)
	})

	t.Run("nested_failure_only_undoes_inner_writes", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		repo.AddListing(newListing("l1", "owner", "10"))

		err := repo.WithTx(ctx, func(tx AuctionDB) error {
			require.NoError(t, tx.UpdateListingPrice(ctx, "l1", decimal.NewFromInt(15)))
			inner := tx.WithTx(ctx, func(inner AuctionDB) error {
				require.NoError(t, inner.UpdateListingPrice(ctx, "l1", decimal.NewFromInt(30)))
				return errors.New("inner failure")
			})
			require.Error(t, inner)
			return nil
		})
		require.NoError(t, err)

		listing, err := repo.GetListing(ctx, "l1")
		require.NoError(t, err)
		require.True(t, listing.Price.Equal(decimal.NewFromInt(15)))
	})
}

// Test watch set semantics
func TestMemoryRepo_Watchlist(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewMemoryRepo()
	now := time.Now().UTC()
	repo.AddListing(newListing("l1", "owner", "10"))
	repo.AddListing(newListing("l2", "owner", "10"))

	require.NoError(t, repo.AddWatch(ctx, model.Watch{UserID: "u1", ListingID: "l1", CreatedAt: now}))
	require.NoError(t, repo.AddWatch(ctx, model.Watch{UserID: "u1", ListingID: "l1", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.AddWatch(ctx, model.Watch{UserID: "u1", ListingID: "l2", CreatedAt: now.Add(time.Second)}))
	require.True(t, errors.Is(repo.AddWatch(ctx, model.Watch{UserID: "u1", ListingID: "missing"}), auctionerrors.ErrListingNotFound))

	listings, err := repo.GetWatchlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listings, 2)
	require.Equal(t, "l2", listings[0].ListingID)
	require.Equal(t, "l1", listings[1].ListingID)

	require.NoError(t, repo.RemoveWatch(ctx, "u1", "l1"))
	require.NoError(t, repo.RemoveWatch(ctx, "u1", "l1"))
	require.NoError(t, repo.RemoveWatch(ctx, "nobody", "l1"))

	watching, err := repo.IsWatching(ctx, "u1", "l1")
	require.NoError(t, err)
	require.False(t, watching)
}

// Test ListListings filtering
func TestMemoryRepo_ListListings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewMemoryRepo()
	base := time.Now().UTC()

	toy := newListing("toy", "alice", "5")
	toy.Category = model.CategoryToys
	toy.CreatedAt = base

	drill := newListing("drill", "bob", "40")
	drill.Category = model.CategoryTools
	drill.CreatedAt = base.Add(time.Minute)

	closed := newListing("closed", "alice", "1")
	closed.Category = model.CategoryToys
	closed.Active = false
	closed.CreatedAt = base.Add(2 * time.Minute)

	for _, l := range []model.Listing{toy, drill, closed} {
		repo.AddListing(l)
	}

	tests := []struct {
		name   string
		filter ListingFilter
		want   []string
	}{
		{name: "all_newest_first", filter: ListingFilter{}, want: []string{"closed", "drill", "toy"}},
		{name: "active_only", filter: ListingFilter{ActiveOnly: true}, want: []string{"drill", "toy"}},
		{name: "category", filter: ListingFilter{Category: model.CategoryToys}, want: []string{"closed", "toy"}},
		{name: "owner_and_active", filter: ListingFilter{OwnerID: "alice", ActiveOnly: true}, want: []string{"toy"}},
		{name: "no_match", filter: ListingFilter{Category: model.CategoryHome}, want: []string{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			listings, err := repo.ListListings(ctx, tc.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(listings))
			for _, l := range listings {
				got = append(got, l.ListingID)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

// Test users
func TestMemoryRepo_Users(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "u1", Username: "alice"}))
	require.True(t, errors.Is(repo.CreateUser(ctx, model.User{UserID: "u2", Username: "alice"}), auctionerrors.ErrUsernameTaken))

	user, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	_, err = repo.GetUser(ctx, "u2")
	require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))

	require.True(t, errors.Is(repo.CreateListing(ctx, newListing("l1", "ghost", "1")), auctionerrors.ErrUserNotFound))
	require.NoError(t, repo.CreateListing(ctx, newListing("l1", "u1", "1")))
}
