package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the short code stored for a listing's category
type Category string

const (
	CategoryNone        Category = ""
	CategoryToys        Category = "TOY"
	CategoryElectronics Category = "ELC"
	CategoryHome        Category = "HOM"
	CategoryTools       Category = "TOO"
)

var categoryLabels = map[Category]string{
	CategoryToys:        "Toys",
	CategoryElectronics: "Electronics",
	CategoryHome:        "Home",
	CategoryTools:       "Tools",
}

// Categories returns the selectable categories in display order
func Categories() []Category {
	return []Category{CategoryToys, CategoryElectronics, CategoryHome, CategoryTools}
}

// Valid reports whether c is a known category or unset
func (c Category) Valid() bool {
	if c == CategoryNone {
		return true
	}
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable category name
func (c Category) Label() string {
	return categoryLabels[c]
}

// User represents a participant in the marketplace
type User struct {
	UserID       string    `gorm:"column:user_id;primaryKey;type:varchar(36)" json:"user_id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Listing represents an item put up for auction
type Listing struct {
	ListingID     string          `gorm:"column:listing_id;primaryKey;type:varchar(36)" json:"listing_id"`
	Title         string          `gorm:"size:64;not null" json:"title"`
	Description   string          `gorm:"size:256" json:"description"`
	StartingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"starting_price"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL      string          `gorm:"size:200" json:"image_url,omitempty"`
	Category      Category        `gorm:"size:3;index" json:"category,omitempty"`
	OwnerID       string          `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Active        bool            `gorm:"not null;index" json:"active"`
	WinnerID      *string         `gorm:"type:varchar(36)" json:"winner_id"`
	CreatedAt     time.Time       `gorm:"<-:create" json:"created_at"`
}

// Bid represents a user's offer on a listing
type Bid struct {
	BidID     string          `gorm:"column:bid_id;primaryKey;type:varchar(36)" json:"bid_id"`
	ListingID string          `gorm:"type:varchar(36);index;not null;<-:create" json:"listing_id"`
	BidderID  string          `gorm:"type:varchar(36);index;not null;<-:create" json:"bidder_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null;<-:create" json:"amount"`
	CreatedAt time.Time       `gorm:"<-:create" json:"created_at"`
}

// Comment is a remark left by a user on a listing
type Comment struct {
	CommentID string    `gorm:"column:comment_id;primaryKey;type:varchar(36)" json:"comment_id"`
	ListingID string    `gorm:"type:varchar(36);index;not null;<-:create" json:"listing_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;<-:create" json:"author_id"`
	Content   string    `gorm:"size:500;not null;<-:create" json:"content"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
}

// Watch links a user to a listing on their watchlist
type Watch struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	ListingID string    `gorm:"primaryKey;type:varchar(36)" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsWinner reports whether userID won the closed listing
func (l Listing) IsWinner(userID string) bool {
	return !l.Active && l.WinnerID != nil && *l.WinnerID == userID
}
