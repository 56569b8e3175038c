package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNoBids          = errors.New("no bids found for listing")
	ErrUsernameTaken   = errors.New("username already taken")
	// ErrListingChanged is returned when a conditional listing update matched no row.
	ErrListingChanged = errors.New("listing changed concurrently")
)

// business logic errors
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidComment = errors.New("invalid comment")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrAuctionClosed  = errors.New("auction is closed")
	ErrOwnerCannotBid = errors.New("owner cannot bid on own listing")
	ErrNotOwner       = errors.New("only the owner can close the auction")
	ErrAlreadyClosed  = errors.New("auction already closed")
)

// input errors for supporting records
var (
	ErrInvalidUser = errors.New("invalid user details")
)
