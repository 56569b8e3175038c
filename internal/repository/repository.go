package repository

import (
	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// ListingFilter narrows ListListings results. Zero values match everything.
type ListingFilter struct {
	Category   model.Category
	ActiveOnly bool
	OwnerID    string
}

func (f ListingFilter) matches(l model.Listing) bool {
	if f.Category != model.CategoryNone && l.Category != f.Category {
		return false
	}
	if f.ActiveOnly && !l.Active {
		return false
	}
	if f.OwnerID != "" && l.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// AuctionDB defines the storage interface for the auction marketplace
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)

	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error)
	// LockListing reads a listing and holds it for the rest of the transaction.
	LockListing(ctx context.Context, listingID string) (model.Listing, error)
	// UpdateListingPrice sets the price only while the listing is active and priced below price.
	UpdateListingPrice(ctx context.Context, listingID string, price decimal.Decimal) error
	// CloseListing deactivates an active listing and records the winner.
	CloseListing(ctx context.Context, listingID string, winnerID *string) error

	RecordBidForListing(ctx context.Context, bid model.Bid) error
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, listingID string) (model.Bid, error)
	CountBids(ctx context.Context, listingID string) (int64, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)

	AddWatch(ctx context.Context, watch model.Watch) error
	RemoveWatch(ctx context.Context, userID, listingID string) error
	IsWatching(ctx context.Context, userID, listingID string) (bool, error)
	GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error)

	AddComment(ctx context.Context, comment model.Comment) error
	GetComments(ctx context.Context, listingID string) ([]model.Comment, error)

	// WithTx runs fn against a transactional view; any error rolls back every write made through it.
	WithTx(ctx context.Context, fn func(tx AuctionDB) error) error
}

// outranks reports whether a beats b as the winning bid: higher amount, then earlier, then lower id
func outranks(a, b model.Bid) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.BidID < b.BidID
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	txMu           sync.Mutex // serializes transactions
	mu             sync.RWMutex
	users          map[string]model.User
	listings       map[string]model.Listing
	bids           map[string][]model.Bid           // key: listingID -> bids in submission order
	bidderListings map[string][]string              // key: userID -> listingIDs user has bid on
	watches        map[string]map[string]time.Time  // key: userID -> listingID -> watched at
	comments       map[string][]model.Comment       // key: listingID -> comments
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:          make(map[string]model.User),
		listings:       make(map[string]model.Listing),
		bids:           make(map[string][]model.Bid),
		bidderListings: make(map[string][]string),
		watches:        make(map[string]map[string]time.Time),
		comments:       make(map[string][]model.Comment),
	}
}

// undo reverts a single write
type undo func()

func noop() {}

// CreateUser stores a new user
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	_, err := r.createUser(user)
	return err
}

func (r *MemoryRepo) createUser(user model.User) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return noop, fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUsernameTaken)
		}
	}
	r.users[user.UserID] = user
	return func() { delete(r.users, user.UserID) }, nil
}

// GetUser returns a user by id
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// CreateListing stores a new listing
func (r *MemoryRepo) CreateListing(_ context.Context, listing model.Listing) error {
	_, err := r.createListing(listing)
	return err
}

func (r *MemoryRepo) createListing(listing model.Listing) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[listing.OwnerID]; !ok {
		return noop, fmt.Errorf("create listing owner %s: %w", listing.OwnerID, auctionerrors.ErrUserNotFound)
	}
	r.listings[listing.ListingID] = listing
	return func() { delete(r.listings, listing.ListingID) }, nil
}

// GetListing returns a listing by id
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listing, nil
}

// LockListing returns the listing; outside WithTx it is a plain read
func (r *MemoryRepo) LockListing(ctx context.Context, listingID string) (model.Listing, error) {
	return r.GetListing(ctx, listingID)
}

// ListListings returns listings matching the filter, newest first
func (r *MemoryRepo) ListListings(_ context.Context, filter ListingFilter) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if filter.matches(l) {
			listings = append(listings, l)
		}
	}
	sortNewestFirst(listings)
	return listings, nil
}

func sortNewestFirst(listings []model.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		if !listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		}
		return listings[i].ListingID < listings[j].ListingID
	})
}

// UpdateListingPrice raises the price of an active listing
func (r *MemoryRepo) UpdateListingPrice(_ context.Context, listingID string, price decimal.Decimal) error {
	_, err := r.updateListingPrice(listingID, price)
	return err
}

func (r *MemoryRepo) updateListingPrice(listingID string, price decimal.Decimal) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return noop, fmt.Errorf("update price for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if !listing.Active || !listing.Price.LessThan(price) {
		return noop, fmt.Errorf("update price for listing %s: %w", listingID, auctionerrors.ErrListingChanged)
	}
	previous := listing
	listing.Price = price
	r.listings[listingID] = listing
	return r.restoreListing(previous), nil
}

// CloseListing deactivates an active listing and sets its winner
func (r *MemoryRepo) CloseListing(_ context.Context, listingID string, winnerID *string) error {
	_, err := r.closeListing(listingID, winnerID)
	return err
}

func (r *MemoryRepo) closeListing(listingID string, winnerID *string) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return noop, fmt.Errorf("close listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if !listing.Active {
		return noop, fmt.Errorf("close listing %s: %w", listingID, auctionerrors.ErrListingChanged)
	}
	previous := listing
	listing.Active = false
	listing.WinnerID = winnerID
	r.listings[listingID] = listing
	return r.restoreListing(previous), nil
}

func (r *MemoryRepo) restoreListing(previous model.Listing) undo {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listings[previous.ListingID] = previous
	}
}

// RecordBidForListing appends a bid to a listing's ledger
func (r *MemoryRepo) RecordBidForListing(_ context.Context, bid model.Bid) error {
	_, err := r.recordBid(bid)
	return err
}

func (r *MemoryRepo) recordBid(bid model.Bid) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[bid.ListingID]; !ok {
		return noop, fmt.Errorf("record bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}

	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)
	n := len(r.bids[bid.ListingID])

	newForBidder := true
	for _, id := range r.bidderListings[bid.BidderID] {
		if id == bid.ListingID {
			newForBidder = false
			break
		}
	}
	if newForBidder {
		r.bidderListings[bid.BidderID] = append(r.bidderListings[bid.BidderID], bid.ListingID)
	}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.bids[bid.ListingID] = r.bids[bid.ListingID][:n-1]
		if newForBidder {
			ids := r.bidderListings[bid.BidderID]
			r.bidderListings[bid.BidderID] = ids[:len(ids)-1]
		}
	}, nil
}

// GetBidsByListing returns all bids for a listing in submission order
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[listingID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetWinningBid returns the highest bid for a listing
func (r *MemoryRepo) GetWinningBid(_ context.Context, listingID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[listingID]
	if !ok || len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if outranks(b, winning) {
			winning = b
		}
	}
	return winning, nil
}

// CountBids returns the number of bids on a listing
func (r *MemoryRepo) CountBids(_ context.Context, listingID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bids[listingID])), nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *MemoryRepo) GetListingsByBidder(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bidderListings[userID]
	listings := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if l, exists := r.listings[id]; exists {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// AddWatch puts a listing on a user's watchlist
func (r *MemoryRepo) AddWatch(_ context.Context, watch model.Watch) error {
	_, err := r.addWatch(watch)
	return err
}

func (r *MemoryRepo) addWatch(watch model.Watch) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[watch.ListingID]; !ok {
		return noop, fmt.Errorf("watch listing %s: %w", watch.ListingID, auctionerrors.ErrListingNotFound)
	}
	set, ok := r.watches[watch.UserID]
	if !ok {
		set = make(map[string]time.Time)
		r.watches[watch.UserID] = set
	}
	if _, exists := set[watch.ListingID]; exists {
		return noop, nil
	}
	set[watch.ListingID] = watch.CreatedAt
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watches[watch.UserID], watch.ListingID)
	}, nil
}

// RemoveWatch takes a listing off a user's watchlist
func (r *MemoryRepo) RemoveWatch(_ context.Context, userID, listingID string) error {
	_, err := r.removeWatch(userID, listingID)
	return err
}

func (r *MemoryRepo) removeWatch(userID, listingID string) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	watchedAt, exists := r.watches[userID][listingID]
	if !exists {
		return noop, nil
	}
	delete(r.watches[userID], listingID)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.watches[userID][listingID] = watchedAt
	}, nil
}

// IsWatching reports whether a listing is on a user's watchlist
func (r *MemoryRepo) IsWatching(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.watches[userID][listingID]
	return ok, nil
}

// GetWatchlist returns the listings a user watches, most recently watched first
func (r *MemoryRepo) GetWatchlist(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.watches[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if !set[ids[i]].Equal(set[ids[j]]) {
			return set[ids[i]].After(set[ids[j]])
		}
		return ids[i] < ids[j]
	})

	listings := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// AddComment appends a comment to a listing
func (r *MemoryRepo) AddComment(_ context.Context, comment model.Comment) error {
	_, err := r.addComment(comment)
	return err
}

func (r *MemoryRepo) addComment(comment model.Comment) (undo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return noop, fmt.Errorf("comment on listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	n := len(r.comments[comment.ListingID])
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.comments[comment.ListingID] = r.comments[comment.ListingID][:n-1]
	}, nil
}

// GetComments returns a listing's comments oldest first
func (r *MemoryRepo) GetComments(_ context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// WithTx runs fn with exclusive access to write transactions and undoes its writes on error
func (r *MemoryRepo) WithTx(ctx context.Context, fn func(tx AuctionDB) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{MemoryRepo: r}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// AddListing adds a listing to the repository without an owner check. This method is intended for tests only.
func (r *MemoryRepo) AddListing(listing model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ListingID] = listing
}

// memoryTx records an undo entry for every write made through it
type memoryTx struct {
	*MemoryRepo
	undos []undo
}

func (tx *memoryTx) track(u undo, err error) error {
	if err != nil {
		return err
	}
	tx.undos = append(tx.undos, u)
	return nil
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undos) - 1; i >= 0; i-- {
		tx.undos[i]()
	}
	tx.undos = nil
}

func (tx *memoryTx) CreateUser(_ context.Context, user model.User) error {
	return tx.track(tx.createUser(user))
}

func (tx *memoryTx) CreateListing(_ context.Context, listing model.Listing) error {
	return tx.track(tx.createListing(listing))
}

func (tx *memoryTx) UpdateListingPrice(_ context.Context, listingID string, price decimal.Decimal) error {
	return tx.track(tx.updateListingPrice(listingID, price))
}

func (tx *memoryTx) CloseListing(_ context.Context, listingID string, winnerID *string) error {
	return tx.track(tx.closeListing(listingID, winnerID))
}

func (tx *memoryTx) RecordBidForListing(_ context.Context, bid model.Bid) error {
	return tx.track(tx.recordBid(bid))
}

func (tx *memoryTx) AddWatch(_ context.Context, watch model.Watch) error {
	return tx.track(tx.addWatch(watch))
}

func (tx *memoryTx) RemoveWatch(_ context.Context, userID, listingID string) error {
	return tx.track(tx.removeWatch(userID, listingID))
}

func (tx *memoryTx) AddComment(_ context.Context, comment model.Comment) error {
	return tx.track(tx.addComment(comment))
}

// WithTx nests into the surrounding transaction
func (tx *memoryTx) WithTx(_ context.Context, fn func(tx AuctionDB) error) error {
	mark := len(tx.undos)
	if err := fn(tx); err != nil {
		for i := len(tx.undos) - 1; i >= mark; i-- {
			tx.undos[i]()
		}
		tx.undos = tx.undos[:mark]
		return err
	}
	return nil
}
