package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type marketplace struct {
	svc   *AuctionService
	users map[string]string // username -> user ID
}

// newMarketplace builds a service over the in-memory store with the given usernames registered.
// The clock advances a millisecond per call so bid timestamps are strictly ordered.
func newMarketplace(t *testing.T, usernames ...string) *marketplace {
	t.Helper()

	svc := NewAuctionService(repository.NewMemoryRepo())
	var (
		mu    sync.Mutex
		clock = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Millisecond)
		return clock
	}

	m := &marketplace{svc: svc, users: map[string]string{}}
	for _, name := range usernames {
		u, err := svc.CreateUser(context.Background(), name, name+"@example.com", "pw-"+name)
		require.NoError(t, err)
		m.users[name] = u.UserID
	}
	return m
}

func (m *marketplace) list(t *testing.T, owner, price string) models.Listing {
	t.Helper()
	l, err := m.svc.CreateListing(context.Background(), m.users[owner], NewListing{
		Title:         "Item from " + owner,
		StartingPrice: decimal.RequireFromString(price),
		Category:      models.CategoryHome,
	})
	require.NoError(t, err)
	return l
}

func (m *marketplace) bid(listingID, bidder, amount string) error {
	_, err := m.svc.PlaceBid(context.Background(), listingID, m.users[bidder], decimal.RequireFromString(amount))
	return err
}

func requirePrice(t *testing.T, svc *AuctionService, listingID, want string) {
	t.Helper()
	price, err := svc.CurrentPrice(context.Background(), listingID)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString(want)), "price is %s, want %s", price, want)
}

func TestAuctionLifecycle_BiddingThenClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a", "b", "c")
	listing := m.list(t, "a", "10.00")

	require.NoError(t, m.bid(listing.ListingID, "b", "12.00"))
	requirePrice(t, m.svc, listing.ListingID, "12.00")

	require.True(t, errors.Is(m.bid(listing.ListingID, "c", "12.00"), auctionerrors.ErrBidTooLow))

	require.NoError(t, m.bid(listing.ListingID, "c", "15.00"))
	requirePrice(t, m.svc, listing.ListingID, "15.00")

	closed, err := m.svc.CloseAuction(ctx, listing.ListingID, m.users["a"])
	require.NoError(t, err)
	require.False(t, closed.Active)
	require.NotNil(t, closed.WinnerID)
	require.Equal(t, m.users["c"], *closed.WinnerID)

	require.True(t, errors.Is(m.bid(listing.ListingID, "b", "20.00"), auctionerrors.ErrAuctionClosed))

	count, err := m.svc.BidCount(ctx, listing.ListingID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	detail, err := m.svc.GetListingDetail(ctx, listing.ListingID, m.users["c"])
	require.NoError(t, err)
	require.True(t, detail.IsWinner)
	require.False(t, detail.IsOwner)
	require.EqualValues(t, 2, detail.BidCount)
	require.Equal(t, m.users["c"], *detail.HighestBidderID)
}

func TestAuctionLifecycle_CloseWithoutBids(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a")
	listing := m.list(t, "a", "10.00")

	closed, err := m.svc.CloseAuction(ctx, listing.ListingID, m.users["a"])
	require.NoError(t, err)
	require.False(t, closed.Active)
	require.Nil(t, closed.WinnerID)

	bidder, ok, err := m.svc.HighestBidder(ctx, listing.ListingID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, bidder)
	requirePrice(t, m.svc, listing.ListingID, "10.00")
}

func TestAuctionLifecycle_OwnerCannotBid(t *testing.T) {
	t.Parallel()
	m := newMarketplace(t, "a")
	listing := m.list(t, "a", "10.00")

	for _, amount := range []string{"0", "5", "10", "10.01", "99999"} {
		err := m.bid(listing.ListingID, "a", amount)
		require.True(t, errors.Is(err, auctionerrors.ErrOwnerCannotBid), "amount %s: %v", amount, err)
	}
	requirePrice(t, m.svc, listing.ListingID, "10.00")
}

func TestAuctionLifecycle_PriceBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		price   string
		amount  string
		wantErr error
	}{
		{name: "equal_to_price", price: "10.00", amount: "10.00", wantErr: auctionerrors.ErrBidTooLow},
		{name: "one_cent_below", price: "10.00", amount: "9.99", wantErr: auctionerrors.ErrBidTooLow},
		{name: "one_cent_above", price: "10.00", amount: "10.01"},
		{name: "zero_starting_price", price: "0", amount: "0.01"},
		{name: "zero_bid_on_zero_price", price: "0", amount: "0", wantErr: auctionerrors.ErrBidTooLow},
		{name: "negative", price: "10.00", amount: "-1", wantErr: auctionerrors.ErrInvalidAmount},
		{name: "too_precise", price: "10.00", amount: "10.005", wantErr: auctionerrors.ErrInvalidAmount},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := newMarketplace(t, "owner", "bidder")
			listing := m.list(t, "owner", tc.price)

			err := m.bid(listing.ListingID, "bidder", tc.amount)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
				requirePrice(t, m.svc, listing.ListingID, tc.price)
				return
			}
			require.NoError(t, err)
			requirePrice(t, m.svc, listing.ListingID, tc.amount)
		})
	}
}

func TestAuctionLifecycle_CloseRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a", "b")
	listing := m.list(t, "a", "1.00")
	require.NoError(t, m.bid(listing.ListingID, "b", "2.00"))

	_, err := m.svc.CloseAuction(ctx, listing.ListingID, m.users["b"])
	require.True(t, errors.Is(err, auctionerrors.ErrNotOwner))

	_, err = m.svc.CloseAuction(ctx, "missing", m.users["a"])
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))

	first, err := m.svc.CloseAuction(ctx, listing.ListingID, m.users["a"])
	require.NoError(t, err)

	_, err = m.svc.CloseAuction(ctx, listing.ListingID, m.users["a"])
	require.True(t, errors.Is(err, auctionerrors.ErrAlreadyClosed))

	after, err := m.svc.GetListing(ctx, listing.ListingID)
	require.NoError(t, err)
	require.Equal(t, first.WinnerID, after.WinnerID)
	require.False(t, after.Active)
}

func TestAuctionLifecycle_HighestBidIsMaximum(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "owner", "b1", "b2", "b3")
	listing := m.list(t, "owner", "1.00")

	amounts := []string{"1.50", "2.00", "2.75", "3.10", "9.99"}
	bidders := []string{"b1", "b2", "b3"}
	for i, amount := range amounts {
		require.NoError(t, m.bid(listing.ListingID, bidders[i%len(bidders)], amount))
	}

	highest, err := m.svc.HighestBid(ctx, listing.ListingID)
	require.NoError(t, err)
	require.True(t, highest.Amount.Equal(decimal.RequireFromString("9.99")))
	require.Equal(t, m.users["b2"], highest.BidderID)

	bids, err := m.svc.GetBidsForListing(ctx, listing.ListingID)
	require.NoError(t, err)
	require.Len(t, bids, len(amounts))
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i].Amount.GreaterThan(bids[i-1].Amount), "accepted bids must strictly increase")
	}

	mine, err := m.svc.GetListingsByBidder(ctx, m.users["b1"])
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestAuctionLifecycle_ConcurrentBids(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	const bidders = 20
	names := []string{"owner"}
	for i := 0; i < bidders; i++ {
		names = append(names, fmt.Sprintf("bidder%d", i))
	}
	m := newMarketplace(t, names...)
	listing := m.list(t, "owner", "1.00")

	// Every bidder offers the same amount; exactly one may win it.
	var wg sync.WaitGroup
	errs := make(chan error, bidders)
	for i := 0; i < bidders; i++ {
		name := fmt.Sprintf("bidder%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.bid(listing.ListingID, name, "5.00")
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow), "unexpected error: %v", err)
	}
	require.Equal(t, 1, accepted)

	count, err := m.svc.BidCount(ctx, listing.ListingID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	requirePrice(t, m.svc, listing.ListingID, "5.00")
}

func TestAuctionLifecycle_CloseRacesWithBids(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "owner", "b1", "b2")
	listing := m.list(t, "owner", "1.00")

	var wg sync.WaitGroup
	var closed models.Listing
	var closeErr error
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = m.bid(listing.ListingID, "b1", "2.00")
	}()
	go func() {
		defer wg.Done()
		_ = m.bid(listing.ListingID, "b2", "3.00")
	}()
	go func() {
		defer wg.Done()
		closed, closeErr = m.svc.CloseAuction(ctx, listing.ListingID, m.users["owner"])
	}()
	wg.Wait()
	require.NoError(t, closeErr)

	// The recorded winner must be the leader of the bids that committed before the close.
	bidder, ok, err := m.svc.HighestBidder(ctx, listing.ListingID)
	require.NoError(t, err)
	if !ok {
		require.Nil(t, closed.WinnerID)
		return
	}
	require.NotNil(t, closed.WinnerID)
	require.Equal(t, bidder, *closed.WinnerID)
}

func TestAuctionService_Watchlist(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a", "b")
	listing := m.list(t, "a", "3.00")

	require.NoError(t, m.svc.AddWatch(ctx, m.users["b"], listing.ListingID))
	require.NoError(t, m.svc.AddWatch(ctx, m.users["b"], listing.ListingID))

	watchlist, err := m.svc.GetWatchlist(ctx, m.users["b"])
	require.NoError(t, err)
	require.Len(t, watchlist, 1)

	detail, err := m.svc.GetListingDetail(ctx, listing.ListingID, m.users["b"])
	require.NoError(t, err)
	require.True(t, detail.Watching)

	require.NoError(t, m.svc.RemoveWatch(ctx, m.users["b"], listing.ListingID))
	require.NoError(t, m.svc.RemoveWatch(ctx, m.users["b"], listing.ListingID))

	watchlist, err = m.svc.GetWatchlist(ctx, m.users["b"])
	require.NoError(t, err)
	require.Empty(t, watchlist)

	require.True(t, errors.Is(m.svc.AddWatch(ctx, m.users["b"], "missing"), auctionerrors.ErrListingNotFound))
	require.True(t, errors.Is(m.svc.AddWatch(ctx, "ghost", listing.ListingID), auctionerrors.ErrUserNotFound))
	_, err = m.svc.GetWatchlist(ctx, "ghost")
	require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
}

func TestAuctionService_Comments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a", "b")
	listing := m.list(t, "a", "3.00")

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "valid", content: "  Is it still boxed?  "},
		{name: "blank", content: "   ", wantErr: auctionerrors.ErrInvalidComment},
		{name: "too_long", content: string(make([]rune, MaxCommentLength+1)), wantErr: auctionerrors.ErrInvalidComment},
	}
	for _, tc := range tests {
		_, err := m.svc.AddComment(ctx, listing.ListingID, m.users["b"], tc.content)
		if tc.wantErr != nil {
			require.True(t, errors.Is(err, tc.wantErr), "%s: got %v", tc.name, err)
			continue
		}
		require.NoError(t, err, tc.name)
	}

	_, err := m.svc.CloseAuction(ctx, listing.ListingID, m.users["a"])
	require.NoError(t, err)
	_, err = m.svc.AddComment(ctx, listing.ListingID, m.users["a"], "Sold, thanks")
	require.NoError(t, err)

	comments, err := m.svc.GetComments(ctx, listing.ListingID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "Is it still boxed?", comments[0].Content)
	require.Equal(t, "Sold, thanks", comments[1].Content)

	_, err = m.svc.AddComment(ctx, "missing", m.users["b"], "hello")
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))
}

func TestAuctionService_CreateListing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "a")

	long := func(n int) string { return string(make([]byte, n)) }
	valid := NewListing{Title: "Desk lamp", StartingPrice: decimal.RequireFromString("12.50"), Category: models.CategoryHome}

	tests := []struct {
		name    string
		ownerID string
		mutate  func(in *NewListing)
		wantErr error
	}{
		{name: "valid", ownerID: m.users["a"], mutate: func(in *NewListing) {}},
		{name: "valid_image_url", ownerID: m.users["a"], mutate: func(in *NewListing) { in.ImageURL = "https://img.example.com/lamp.png" }},
		{name: "unknown_owner", ownerID: "ghost", mutate: func(in *NewListing) {}, wantErr: auctionerrors.ErrUserNotFound},
		{name: "blank_title", ownerID: m.users["a"], mutate: func(in *NewListing) { in.Title = "  " }, wantErr: auctionerrors.ErrInvalidListing},
		{name: "title_too_long", ownerID: m.users["a"], mutate: func(in *NewListing) { in.Title = "x" + long(MaxTitleLength) }, wantErr: auctionerrors.ErrInvalidListing},
		{name: "description_too_long", ownerID: m.users["a"], mutate: func(in *NewListing) { in.Description = "x" + long(MaxDescriptionLength) }, wantErr: auctionerrors.ErrInvalidListing},
		{name: "unknown_category", ownerID: m.users["a"], mutate: func(in *NewListing) { in.Category = "XYZ" }, wantErr: auctionerrors.ErrInvalidListing},
		{name: "relative_image_url", ownerID: m.users["a"], mutate: func(in *NewListing) { in.ImageURL = "/lamp.png" }, wantErr: auctionerrors.ErrInvalidListing},
		{name: "negative_price", ownerID: m.users["a"], mutate: func(in *NewListing) { in.StartingPrice = decimal.NewFromInt(-1) }, wantErr: auctionerrors.ErrInvalidAmount},
		{name: "price_too_large", ownerID: m.users["a"], mutate: func(in *NewListing) { in.StartingPrice = MaxAmount }, wantErr: auctionerrors.ErrInvalidAmount},
	}

	for _, tc := range tests {
		in := valid
		tc.mutate(&in)
		listing, err := m.svc.CreateListing(ctx, tc.ownerID, in)
		if tc.wantErr != nil {
			require.True(t, errors.Is(err, tc.wantErr), "%s: got %v", tc.name, err)
			continue
		}
		require.NoError(t, err, tc.name)
		require.True(t, listing.Active)
		require.True(t, listing.Price.Equal(in.StartingPrice))
		require.Nil(t, listing.WinnerID)
	}

	_, err := m.svc.ListListings(ctx, repository.ListingFilter{Category: "XYZ"})
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidListing))

	listings, err := m.svc.ListListings(ctx, repository.ListingFilter{Category: models.CategoryHome, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, listings, 2)
}

func TestAuctionService_CreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMarketplace(t, "alice")

	_, err := m.svc.CreateUser(ctx, "alice", "", "pw")
	require.True(t, errors.Is(err, auctionerrors.ErrUsernameTaken))

	_, err = m.svc.CreateUser(ctx, " ", "", "pw")
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidUser))

	_, err = m.svc.CreateUser(ctx, "bob", "", "")
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidUser))

	user, err := m.svc.GetUser(ctx, m.users["alice"])
	require.NoError(t, err)
	require.NotEqual(t, "pw-alice", user.PasswordHash)
}
