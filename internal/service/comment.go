package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recipevault/recipevault/internal/events"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// CommentStore persists recipe comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, recipeID, commentID string) (*model.Comment, error)
	ListComments(ctx context.Context, recipeID, cursor string, limit int) ([]*model.Comment, string, error)
	ToggleCommentLike(ctx context.Context, recipeID, commentID, userID string) (*model.LikeResult, error)
	DeleteComment(ctx context.Context, recipeID, commentID string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// CommentService handles comments and reviews.
type CommentService struct {
	store   CommentStore
	ratings *RatingService
	events  events.Emitter
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewCommentService creates a new CommentService. emitter may be nil.
func NewCommentService(store CommentStore, ratings *RatingService, emitter events.Emitter, logger *slog.Logger, recorder metrics.Recorder) *CommentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &CommentService{
		store:   store,
		ratings: ratings,
		events:  emitter,
		logger:  logger.With("component", "comments"),
		metrics: recorder,
		now:     defaultNow,
	}
}

// CommentPage is one page of comments.
type CommentPage struct {
	Comments   []*model.Comment
	NextCursor string
}

// ReviewResult is the outcome of a review submission.
type ReviewResult struct {
	Comment *model.Comment       `json:"comment"`
	Rating  *model.RatingSummary `json:"rating"`
}

// SubmitReview saves a rating and then a comment carrying it. The two
// writes are not atomic: when the comment fails after the rating was
// saved, ErrRatingSavedCommentFailed is returned and the rating stays.
func (s *CommentService) SubmitReview(ctx context.Context, userID, recipeID string, rating int, text string) (*ReviewResult, error) {
	if !model.IsValidRating(rating) {
		return nil, ErrInvalidRating
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	summary, err := s.ratings.Rate(ctx, userID, recipeID, rating)
	if err != nil {
		s.metrics.IncReviewSubmitted("failed")
		return nil, err
	}

	comment, err := s.addComment(ctx, userID, recipeID, text, float64(rating))
	if err != nil {
		s.metrics.IncReviewSubmitted("partial")
		s.logger.ErrorContext(ctx, "review comment failed after rating was saved",
			"recipe_id", recipeID,
			"user_id", userID,
			"error", err,
		)
		return &ReviewResult{Rating: summary}, fmt.Errorf("%w: %v", ErrRatingSavedCommentFailed, err)
	}

	s.metrics.IncReviewSubmitted("success")
	return &ReviewResult{Comment: comment, Rating: summary}, nil
}

// AddComment posts a comment without a rating.
func (s *CommentService) AddComment(ctx context.Context, userID, recipeID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}
	return s.addComment(ctx, userID, recipeID, text, 0)
}

func (s *CommentService) addComment(ctx context.Context, userID, recipeID, text string, rating float64) (*model.Comment, error) {
	author, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	comment := &model.Comment{
		ID:            ulid.Make().String(),
		RecipeID:      recipeID,
		UserID:        userID,
		Username:      author.Username,
		UserAvatarURL: author.AvatarURL,
		Text:          text,
		Rating:        rating,
		LikedUserIDs:  []string{},
		CreatedAt:     s.now(),
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.events.Emit(model.EventRecipeCommented, recipeID, userID)
	return comment, nil
}

// ListComments returns comments on a recipe, newest first.
func (s *CommentService) ListComments(ctx context.Context, recipeID, cursor string, limit int) (*CommentPage, error) {
	comments, next, err := s.store.ListComments(ctx, recipeID, cursor, normalizeLimit(limit))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &CommentPage{Comments: comments, NextCursor: next}, nil
}

// ToggleLike likes the comment, or unlikes it if the caller already did.
func (s *CommentService) ToggleLike(ctx context.Context, userID, recipeID, commentID string) (*model.LikeResult, error) {
	res, err := s.store.ToggleCommentLike(ctx, recipeID, commentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return res, nil
}

// DeleteComment removes a comment. Only its author or an admin may.
func (s *CommentService) DeleteComment(ctx context.Context, caller *model.AuthContext, recipeID, commentID string) error {
	comment, err := s.store.GetComment(ctx, recipeID, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}

	if comment.UserID != caller.UserID && !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.store.DeleteComment(ctx, recipeID, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
