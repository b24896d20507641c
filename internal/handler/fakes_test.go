package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request with optional JSON body, chi URL params and
// an authenticated caller.
func newRequest(method, target, body string, ac *model.AuthContext, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if ac != nil {
		ctx = auth.ContextWithAuth(ctx, ac)
	}
	return req.WithContext(ctx)
}

type fakeAuthService struct {
	signUpErr   error
	resetErr    error
	signedOut   string
	lastSignUp  service.SignUpInput
	googleIsNew bool
}

func (f *fakeAuthService) SignUp(ctx context.Context, input service.SignUpInput) (*model.AuthResponse, error) {
	f.lastSignUp = input
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &model.AuthResponse{
		Token:     "jwt",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &model.User{ID: "user-1", Email: input.Email, Username: input.Username},
		Created:   true,
	}, nil
}

func (f *fakeAuthService) SignIn(ctx context.Context, email, password, userAgent string) (*model.AuthResponse, error) {
	if password != "secret1" {
		return nil, service.ErrInvalidCredentials
	}
	return &model.AuthResponse{Token: "jwt", User: &model.User{ID: "user-1"}}, nil
}

func (f *fakeAuthService) GoogleSignIn(ctx context.Context, idToken, userAgent string) (*model.AuthResponse, error) {
	return &model.AuthResponse{Token: "jwt", User: &model.User{ID: "g-1"}, Created: f.googleIsNew}, nil
}

func (f *fakeAuthService) SignOut(ctx context.Context, sessionID string) error {
	f.signedOut = sessionID
	return nil
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return f.resetErr
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token != "valid" {
		return service.ErrInvalidResetToken
	}
	return nil
}

type fakeRecipeService struct {
	called    string
	lastInput service.SearchInput
	lastTags  []string
	searchErr error
	recipes   map[string]*model.Recipe
}

func (f *fakeRecipeService) page(name string) (*service.RecipePage, error) {
	f.called = name
	return &service.RecipePage{Recipes: []*model.Recipe{{ID: "r1"}}, NextCursor: "next"}, nil
}

func (f *fakeRecipeService) Create(ctx context.Context, userID string, input service.CreateRecipeInput) (*model.Recipe, error) {
	return &model.Recipe{ID: "r-new", Title: input.Title, CreatorUserID: userID}, nil
}

func (f *fakeRecipeService) Get(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	if r, ok := f.recipes[id]; ok {
		return r, nil
	}
	return nil, service.ErrRecipeNotFound
}

func (f *fakeRecipeService) List(ctx context.Context, cursor string, limit int) (*service.RecipePage, error) {
	return f.page("list")
}

func (f *fakeRecipeService) ListByCategory(ctx context.Context, category, cursor string, limit int) (*service.RecipePage, error) {
	return f.page("category")
}

func (f *fakeRecipeService) ListByUser(ctx context.Context, userID, cursor string, limit int) (*service.RecipePage, error) {
	return f.page("user")
}

func (f *fakeRecipeService) ListRecent(ctx context.Context, limit int) ([]*model.Recipe, error) {
	f.called = "recent"
	return nil, nil
}

func (f *fakeRecipeService) ListByTags(ctx context.Context, tags []string, limit int) ([]*model.Recipe, error) {
	f.called = "tags"
	f.lastTags = tags
	return []*model.Recipe{{ID: "r1"}}, nil
}

func (f *fakeRecipeService) Search(ctx context.Context, userID string, input service.SearchInput) (*service.RecipePage, error) {
	f.lastInput = input
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.page("search")
}

func (f *fakeRecipeService) Update(ctx context.Context, caller *model.AuthContext, id string, input service.UpdateRecipeInput) (*model.Recipe, error) {
	return nil, service.ErrForbidden
}

func (f *fakeRecipeService) Delete(ctx context.Context, caller *model.AuthContext, id string) error {
	return nil
}

func (f *fakeRecipeService) Export(ctx context.Context, userID string) ([]*model.Recipe, error) {
	return []*model.Recipe{{ID: "r1"}}, nil
}

func (f *fakeRecipeService) Stats(ctx context.Context, id string, days int) (*model.RecipeStatsResponse, error) {
	return &model.RecipeStatsResponse{RecipeID: id}, nil
}

type fakeCommentService struct {
	reviewResult *service.ReviewResult
	reviewErr    error
}

func (f *fakeCommentService) SubmitReview(ctx context.Context, userID, recipeID string, rating int, text string) (*service.ReviewResult, error) {
	return f.reviewResult, f.reviewErr
}

func (f *fakeCommentService) AddComment(ctx context.Context, userID, recipeID, text string) (*model.Comment, error) {
	return &model.Comment{ID: "c1", RecipeID: recipeID, UserID: userID, Text: text}, nil
}

func (f *fakeCommentService) ListComments(ctx context.Context, recipeID, cursor string, limit int) (*service.CommentPage, error) {
	if cursor == "bogus" {
		return nil, service.ErrInvalidCursor
	}
	return &service.CommentPage{}, nil
}

func (f *fakeCommentService) ToggleLike(ctx context.Context, userID, recipeID, commentID string) (*model.LikeResult, error) {
	return &model.LikeResult{CommentID: commentID, Liked: true, LikeCount: 1}, nil
}

func (f *fakeCommentService) DeleteComment(ctx context.Context, caller *model.AuthContext, recipeID, commentID string) error {
	return service.ErrCommentNotFound
}

type fakeRatingService struct{}

func (fakeRatingService) Rate(ctx context.Context, userID, recipeID string, value int) (*model.RatingSummary, error) {
	return &model.RatingSummary{RecipeID: recipeID, Average: float64(value), Count: 1}, nil
}

func (fakeRatingService) GetRecipeRatings(ctx context.Context, recipeID string) ([]*model.Rating, error) {
	return nil, nil
}

func (fakeRatingService) GetMyRating(ctx context.Context, userID, recipeID string) (*model.Rating, error) {
	return nil, service.ErrRatingNotFound
}

func (fakeRatingService) RemoveRating(ctx context.Context, userID, recipeID string) (*model.RatingSummary, error) {
	return &model.RatingSummary{RecipeID: recipeID}, nil
}

type fakePremiumService struct {
	premium bool
}

func (f *fakePremiumService) Upgrade(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error) {
	return &model.PremiumSubscription{UserID: userID, Type: t, IsPremium: true, Status: model.SubscriptionActive}, nil
}

func (f *fakePremiumService) GetStatus(ctx context.Context, userID string) (*model.PremiumStatus, error) {
	return &model.PremiumStatus{IsPremium: f.premium}, nil
}

func (f *fakePremiumService) Cancel(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	return nil, service.ErrSubscriptionNotFound
}

func (f *fakePremiumService) Reactivate(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error) {
	return f.Upgrade(ctx, userID, t)
}

func (f *fakePremiumService) Restore(ctx context.Context, userID string) (bool, error) {
	return f.premium, nil
}

func (f *fakePremiumService) HasFeatureAccess(ctx context.Context, userID, feature string) bool {
	return model.HasFeatureAccess(feature, f.premium)
}

func (f *fakePremiumService) GetFeatureLimit(ctx context.Context, userID, limit string) int {
	return model.FeatureLimit(limit, f.premium)
}

type fakeImageUploader struct {
	enabled bool
	got     []byte
}

func (f *fakeImageUploader) Enabled() bool { return f.enabled }

func (f *fakeImageUploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.got = data
	if len(data) == 0 {
		return "", service.ErrInvalidImage
	}
	return "https://img.example.com/abc.jpg", nil
}

type fakeFavoriteService struct {
	ids  []string
	full bool
}

func (f *fakeFavoriteService) Add(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	if f.full {
		return nil, service.ErrFavoriteLimitReached
	}
	f.ids = append(f.ids, recipeID)
	return &model.FavoriteState{RecipeID: recipeID, IsFavorite: true}, nil
}

func (f *fakeFavoriteService) Remove(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	return &model.FavoriteState{RecipeID: recipeID}, nil
}

func (f *fakeFavoriteService) IsFavorite(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	return &model.FavoriteState{RecipeID: recipeID, IsFavorite: slices.Contains(f.ids, recipeID)}, nil
}

func (f *fakeFavoriteService) Toggle(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	return f.Add(ctx, userID, recipeID)
}

func (f *fakeFavoriteService) ListIDs(ctx context.Context, userID string) ([]string, error) {
	return f.ids, nil
}

func (f *fakeFavoriteService) ListRecipes(ctx context.Context, userID string) ([]*model.Recipe, error) {
	recipes := make([]*model.Recipe, 0, len(f.ids))
	for _, id := range f.ids {
		recipes = append(recipes, &model.Recipe{ID: id})
	}
	return recipes, nil
}

func (f *fakeFavoriteService) Sync(ctx context.Context, userID string) (*model.SyncResult, error) {
	return &model.SyncResult{Pushed: len(f.ids)}, nil
}

type fakeReminderService struct {
	includeInactive bool
	unreadOnly      bool
	limit           int
	rescheduledTo   time.Time
}

func (f *fakeReminderService) Create(ctx context.Context, userID string, input service.CreateReminderInput) (*model.CookingReminder, error) {
	if !input.ScheduledTime.After(time.Now()) {
		return nil, service.ErrScheduledInPast
	}
	return &model.CookingReminder{ID: "rem-1", UserID: userID, RecipeID: input.RecipeID, ScheduledTime: input.ScheduledTime}, nil
}

func (f *fakeReminderService) List(ctx context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error) {
	f.includeInactive = includeInactive
	return nil, nil
}

func (f *fakeReminderService) ListUpcoming(ctx context.Context, userID string) ([]*model.CookingReminder, error) {
	return nil, nil
}

func (f *fakeReminderService) Get(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	return nil, service.ErrReminderNotFound
}

func (f *fakeReminderService) Reschedule(ctx context.Context, userID, id string, at time.Time) (*model.CookingReminder, error) {
	f.rescheduledTo = at
	return &model.CookingReminder{ID: id, ScheduledTime: at}, nil
}

func (f *fakeReminderService) Complete(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	return &model.CookingReminder{ID: id, IsCompleted: true}, nil
}

func (f *fakeReminderService) Cancel(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	return &model.CookingReminder{ID: id}, nil
}

func (f *fakeReminderService) Delete(ctx context.Context, userID, id string) error {
	return nil
}

func (f *fakeReminderService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	f.unreadOnly = unreadOnly
	f.limit = limit
	return nil, nil
}

func (f *fakeReminderService) MarkRead(ctx context.Context, userID, id string) error {
	return service.ErrNotificationNotFound
}

type fakePremiumAdmin struct {
	expiringDays int
}

func (f *fakePremiumAdmin) ListActive(ctx context.Context) ([]*model.PremiumSubscription, error) {
	return []*model.PremiumSubscription{{UserID: "user-1", IsPremium: true}}, nil
}

func (f *fakePremiumAdmin) ListExpiring(ctx context.Context, days int) ([]*model.PremiumSubscription, error) {
	f.expiringDays = days
	return nil, nil
}

func (f *fakePremiumAdmin) Statistics(ctx context.Context) (*model.PremiumStatistics, error) {
	return &model.PremiumStatistics{TotalPremium: 2, ActivePremium: 1}, nil
}

func (f *fakePremiumAdmin) ProcessRenewal(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	return nil, service.ErrSubscriptionNotFound
}
