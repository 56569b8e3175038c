package repository

import (
	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the GORM implementation of AuctionDB, used with PostgreSQL and SQLite
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo creates a GormRepo on top of an open connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	if db == nil {
		panic("database connection cannot be nil for GormRepo")
	}
	return &GormRepo{db: db}
}

// isDuplicate matches unique-constraint violations from PostgreSQL and SQLite
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// CreateUser inserts a user
func (r *GormRepo) CreateUser(ctx context.Context, user model.User) error {
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("gorm: create user %s: %w", user.Username, auctionerrors.ErrUsernameTaken)
		}
		return fmt.Errorf("gorm: create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser finds a user by id
func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, fmt.Errorf("gorm: get user %s: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("gorm: get user %s: %w", userID, err)
	}
	return user, nil
}

// CreateListing inserts a listing after checking its owner exists
func (r *GormRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	if _, err := r.GetUser(ctx, listing.OwnerID); err != nil {
		return fmt.Errorf("gorm: create listing owner: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return fmt.Errorf("gorm: create listing %s: %w", listing.ListingID, err)
	}
	return nil
}

// GetListing finds a listing by id
func (r *GormRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	return r.findListing(r.db.WithContext(ctx), listingID)
}

// LockListing reads a listing with SELECT ... FOR UPDATE. SQLite has no row locks and relies on
// its database-level write lock instead.
func (r *GormRepo) LockListing(ctx context.Context, listingID string) (model.Listing, error) {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findListing(db, listingID)
}

func (r *GormRepo) findListing(db *gorm.DB, listingID string) (model.Listing, error) {
	var listing model.Listing
	err := db.Where("listing_id = ?", listingID).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Listing{}, fmt.Errorf("gorm: get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
		}
		return model.Listing{}, fmt.Errorf("gorm: get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// ListListings returns listings matching the filter, newest first
func (r *GormRepo) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	query := r.db.WithContext(ctx).Model(&model.Listing{})
	if filter.Category != model.CategoryNone {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	listings := []model.Listing{}
	if err := query.Order("created_at DESC").Order("listing_id ASC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("gorm: list listings: %w", err)
	}
	return listings, nil
}

// UpdateListingPrice is a conditional write: it only matches an active listing priced below price
func (r *GormRepo) UpdateListingPrice(ctx context.Context, listingID string, price decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("listing_id = ? AND active = ? AND price < ?", listingID, true, price).
		Update("price", price)
	if result.Error != nil {
		return fmt.Errorf("gorm: update price for listing %s: %w", listingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("gorm: update price for listing %s: %w", listingID, auctionerrors.ErrListingChanged)
	}
	return nil
}

// CloseListing is a conditional write that only matches an active listing
func (r *GormRepo) CloseListing(ctx context.Context, listingID string, winnerID *string) error {
	result := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("listing_id = ? AND active = ?", listingID, true).
		Updates(map[string]any{"active": false, "winner_id": winnerID})
	if result.Error != nil {
		return fmt.Errorf("gorm: close listing %s: %w", listingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("gorm: close listing %s: %w", listingID, auctionerrors.ErrListingChanged)
	}
	return nil
}

// RecordBidForListing inserts a bid
func (r *GormRepo) RecordBidForListing(ctx context.Context, bid model.Bid) error {
	if err := r.db.WithContext(ctx).Create(&bid).Error; err != nil {
		return fmt.Errorf("gorm: record bid for listing %s: %w", bid.ListingID, err)
	}
	return nil
}

// GetBidsByListing returns all bids for a listing in submission order
func (r *GormRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	var bids []model.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").Order("bid_id ASC").
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: get bids for listing %s: %w", listingID, err)
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("gorm: get bids for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid; ties go to the earliest bid, then the lowest id
func (r *GormRepo) GetWinningBid(ctx context.Context, listingID string) (model.Bid, error) {
	var bid model.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("amount DESC").Order("created_at ASC").Order("bid_id ASC").
		Take(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("gorm: get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
		}
		return model.Bid{}, fmt.Errorf("gorm: get winning bid for listing %s: %w", listingID, err)
	}
	return bid, nil
}

// CountBids returns the number of bids on a listing
func (r *GormRepo) CountBids(ctx context.Context, listingID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Bid{}).Where("listing_id = ?", listingID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count bids for listing %s: %w", listingID, err)
	}
	return count, nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *GormRepo) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := []model.Listing{}
	sub := r.db.Model(&model.Bid{}).Select("listing_id").Where("bidder_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("listing_id IN (?)", sub).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: get listings for bidder %s: %w", userID, err)
	}
	return listings, nil
}

// AddWatch inserts the watch pair, ignoring an existing one
func (r *GormRepo) AddWatch(ctx context.Context, watch model.Watch) error {
	if _, err := r.GetListing(ctx, watch.ListingID); err != nil {
		return fmt.Errorf("gorm: watch listing: %w", err)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&watch).Error
	if err != nil {
		return fmt.Errorf("gorm: watch listing %s for user %s: %w", watch.ListingID, watch.UserID, err)
	}
	return nil
}

// RemoveWatch deletes the watch pair if present
func (r *GormRepo) RemoveWatch(ctx context.Context, userID, listingID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.Watch{}).Error
	if err != nil {
		return fmt.Errorf("gorm: unwatch listing %s for user %s: %w", listingID, userID, err)
	}
	return nil
}

// IsWatching reports whether the watch pair exists
func (r *GormRepo) IsWatching(ctx context.Context, userID, listingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Watch{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check watch %s/%s: %w", userID, listingID, err)
	}
	return count > 0, nil
}

// GetWatchlist returns the listings a user watches, most recently watched first
func (r *GormRepo) GetWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := r.db.WithContext(ctx).
		Joins("JOIN watches ON watches.listing_id = listings.listing_id").
		Where("watches.user_id = ?", userID).
		Order("watches.created_at DESC").Order("listings.listing_id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: get watchlist for user %s: %w", userID, err)
	}
	return listings, nil
}

// AddComment inserts a comment
func (r *GormRepo) AddComment(ctx context.Context, comment model.Comment) error {
	if _, err := r.GetListing(ctx, comment.ListingID); err != nil {
		return fmt.Errorf("gorm: comment on listing: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return fmt.Errorf("gorm: comment on listing %s: %w", comment.ListingID, err)
	}
	return nil
}

// GetComments returns a listing's comments oldest first
func (r *GormRepo) GetComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").Order("comment_id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

// WithTx runs fn inside a database transaction
func (r *GormRepo) WithTx(ctx context.Context, fn func(tx AuctionDB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{db: tx})
	})
}

// Ping checks the underlying connection
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("gorm: get sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}
