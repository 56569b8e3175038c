package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/utils"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength bounds comment content
const MaxCommentLength = 500

// AddComment posts a comment on a listing. Closed listings still accept comments.
func (s *AuctionService) AddComment(ctx context.Context, listingID, authorID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("service: %w - empty content", auctionerrors.ErrInvalidComment)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return models.Comment{}, fmt.Errorf("service: %w - content exceeds %d characters", auctionerrors.ErrInvalidComment, MaxCommentLength)
	}
	if _, err := s.requireUser(ctx, authorID); err != nil {
		return models.Comment{}, err
	}
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		CommentID: utils.GenerateID(),
		ListingID: listingID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.timestamp(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("service: failed to comment on listing %s: %w", listingID, err)
	}
	return comment, nil
}

// GetComments returns a listing's comments, oldest first
func (s *AuctionService) GetComments(ctx context.Context, listingID string) ([]models.Comment, error) {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return nil, err
	}

	comments, err := s.repo.GetComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}
