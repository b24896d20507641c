package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
)

func newCommentFixture() (*CommentService, *memStore, *memCache, *metrics.InMemoryRecorder) {
	store := newMemStore()
	c := newMemCache()
	rec := metrics.NewInMemory()
	ratings := NewRatingService(store, c, nil, discardLogger())
	return NewCommentService(store, ratings, nil, discardLogger(), rec), store, c, rec
}

func TestSubmitReview(t *testing.T) {
	svc, store, c, rec := newCommentFixture()
	seedUser(store, "u1", "cook")
	seedRecipe(store, "r1", "owner")
	ctx := context.Background()

	if _, err := svc.SubmitReview(ctx, "u1", "r1", 0, "nice"); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("zero rating error = %v", err)
	}
	if _, err := svc.SubmitReview(ctx, "u1", "r1", 4, "  "); !errors.Is(err, ErrCommentTextRequired) {
		t.Fatalf("blank text error = %v", err)
	}

	res, err := svc.SubmitReview(ctx, "u1", "r1", 4, "Lovely")
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if res.Comment.Rating != 4 || res.Comment.Username != "cook" {
		t.Errorf("unexpected comment: %+v", res.Comment)
	}
	if res.Rating.Average != 4 || res.Rating.Count != 1 {
		t.Errorf("unexpected summary: %+v", res.Rating)
	}
	if len(c.deletedRecipes) == 0 {
		t.Error("rating change should invalidate the recipe cache")
	}
	if rec.Snapshot().ReviewsSubmitted["success"] != 1 {
		t.Error("expected success metric")
	}
}

func TestSubmitReview_CommentFailureKeepsRating(t *testing.T) {
	svc, store, _, rec := newCommentFixture()
	seedUser(store, "u1", "cook")
	seedRecipe(store, "r1", "owner")
	store.createCommentErr = errors.New("write failed")

	res, err := svc.SubmitReview(context.Background(), "u1", "r1", 5, "Great")
	if !errors.Is(err, ErrRatingSavedCommentFailed) {
		t.Fatalf("SubmitReview() error = %v, want ErrRatingSavedCommentFailed", err)
	}
	if res == nil || res.Rating == nil || res.Rating.Count != 1 {
		t.Fatalf("rating summary should be returned: %+v", res)
	}
	if _, ok := store.ratings[ratingKey("r1", "u1")]; !ok {
		t.Error("rating must stay after comment failure")
	}
	if rec.Snapshot().ReviewsSubmitted["partial"] != 1 {
		t.Error("expected partial metric")
	}
}

func TestToggleLikeAndDelete(t *testing.T) {
	svc, store, _, _ := newCommentFixture()
	seedUser(store, "author", "author")
	seedRecipe(store, "r1", "owner")
	ctx := context.Background()

	comment, err := svc.AddComment(ctx, "author", "r1", "first")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if comment.Rating != 0 {
		t.Errorf("plain comment rating = %v, want 0", comment.Rating)
	}

	like, err := svc.ToggleLike(ctx, "fan", "r1", comment.ID)
	if err != nil || !like.Liked || like.LikeCount != 1 {
		t.Fatalf("first ToggleLike() = %+v, %v", like, err)
	}
	like, err = svc.ToggleLike(ctx, "fan", "r1", comment.ID)
	if err != nil || like.Liked || like.LikeCount != 0 {
		t.Fatalf("second ToggleLike() = %+v, %v", like, err)
	}
	if _, err := svc.ToggleLike(ctx, "fan", "r1", "missing"); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("ToggleLike(missing) error = %v", err)
	}

	stranger := &model.AuthContext{UserID: "fan", Role: model.RoleUser}
	if err := svc.DeleteComment(ctx, stranger, "r1", comment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("DeleteComment() by stranger error = %v", err)
	}
	author := &model.AuthContext{UserID: "author", Role: model.RoleUser}
	if err := svc.DeleteComment(ctx, author, "r1", comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
}

func TestRatingLifecycle(t *testing.T) {
	store := newMemStore()
	seedRecipe(store, "r1", "owner")
	svc := NewRatingService(store, newMemCache(), nil, discardLogger())
	ctx := context.Background()

	if _, err := svc.Rate(ctx, "u1", "r1", 6); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("Rate(6) error = %v", err)
	}
	if _, err := svc.Rate(ctx, "u1", "missing", 3); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("Rate(missing recipe) error = %v", err)
	}

	if _, err := svc.Rate(ctx, "u1", "r1", 2); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	summary, err := svc.Rate(ctx, "u2", "r1", 4)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if summary.Average != 3 || summary.Count != 2 {
		t.Errorf("summary = %+v, want avg 3 count 2", summary)
	}

	summary, err = svc.RemoveRating(ctx, "u1", "r1")
	if err != nil {
		t.Fatalf("RemoveRating() error = %v", err)
	}
	if summary.Average != 4 || summary.Count != 1 {
		t.Errorf("summary after remove = %+v", summary)
	}
	if _, err := svc.GetMyRating(ctx, "u1", "r1"); !errors.Is(err, ErrRatingNotFound) {
		t.Errorf("GetMyRating() of inactive rating error = %v", err)
	}

	if _, err := svc.Rate(ctx, "u1", "r1", 5); err != nil {
		t.Fatalf("Rate() reactivation error = %v", err)
	}
	mine, err := svc.GetMyRating(ctx, "u1", "r1")
	if err != nil || mine.Value != 5 || !mine.IsActive {
		t.Errorf("GetMyRating() = %+v, %v", mine, err)
	}
}

func TestRemoveRating_UsesServiceClock(t *testing.T) {
	store := newMemStore()
	seedRecipe(store, "r1", "owner")
	svc := NewRatingService(store, newMemCache(), nil, discardLogger())
	ctx := context.Background()

	if _, err := svc.Rate(ctx, "u1", "r1", 4); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	removedAt := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	svc.now = fixedClock(removedAt)
	if _, err := svc.RemoveRating(ctx, "u1", "r1"); err != nil {
		t.Fatalf("RemoveRating() error = %v", err)
	}

	store.mu.Lock()
	got := store.ratings[ratingKey("r1", "u1")].UpdatedAt
	store.mu.Unlock()
	if !got.Equal(removedAt) {
		t.Errorf("deactivated at %v, want %v", got, removedAt)
	}
}
