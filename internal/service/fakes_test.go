package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// memStore is an in-memory stand-in for the Postgres repository.
type memStore struct {
	mu sync.Mutex

	users     map[string]*model.User
	sessions  map[string]*model.Session
	recipes   map[string]*model.Recipe
	comments  map[string]*model.Comment
	ratings   map[string]*model.Rating
	favorites map[string][]string
	subs      map[string]*model.PremiumSubscription
	reminders map[string]*model.CookingReminder
	inbox     map[string]*model.Notification

	createCommentErr error
	addFavoriteErr   error
	getUserErr       error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*model.User),
		sessions:  make(map[string]*model.Session),
		recipes:   make(map[string]*model.Recipe),
		comments:  make(map[string]*model.Comment),
		ratings:   make(map[string]*model.Rating),
		favorites: make(map[string][]string),
		subs:      make(map[string]*model.PremiumSubscription),
		reminders: make(map[string]*model.CookingReminder),
		inbox:     make(map[string]*model.Notification),
	}
}

// users

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetUserByGoogleSub(_ context.Context, sub string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.GoogleSub != "" && u.GoogleSub == sub {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) LinkGoogleAccount(_ context.Context, userID, sub, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.GoogleSub = sub
	if u.AvatarURL == "" {
		u.AvatarURL = avatarURL
	}
	return nil
}

func (m *memStore) UpdateUserProfile(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memStore) SetUserPremium(_ context.Context, userID string, premium bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsPremium = premium
	if premium {
		u.PremiumActivatedAt = &at
	} else {
		u.PremiumExpiredAt = &at
	}
	return nil
}

// sessions

func (m *memStore) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*model.Session, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, "", repository.ErrSessionNotFound
	}
	role := model.RoleUser
	if u, ok := m.users[s.UserID]; ok {
		role = u.Role
	}
	cp := *s
	return &cp, role, nil
}

func (m *memStore) RevokeSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	now := time.Now().UTC()
	s.RevokedAt = &now
	return nil
}

func (m *memStore) RevokeUserSessions(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	now := time.Now().UTC()
	for id, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) TouchSession(context.Context, string) error { return nil }

func (m *memStore) ListLiveSessionIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	now := time.Now()
	for id, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil && s.ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) SetUserRoleByEmail(_ context.Context, email, role string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.Role = role
			return u.ID, nil
		}
	}
	return "", repository.ErrUserNotFound
}

// recipes

func (m *memStore) CreateRecipe(_ context.Context, r *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *memStore) GetRecipeByID(_ context.Context, id string) (*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, repository.ErrRecipeNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetRecipesByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	var out []*model.Recipe
	for _, id := range ids {
		if r, err := m.GetRecipeByID(ctx, id); err == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListRecipes(_ context.Context, filter repository.RecipeFilter, cursor string, limit int) ([]*model.Recipe, string, error) {
	if cursor == "bad" {
		return nil, "", repository.ErrInvalidCursor
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Recipe
	for _, r := range m.recipes {
		if filter.CreatorUserID != "" && r.CreatorUserID != filter.CreatorUserID {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && string(r.Difficulty) != filter.Difficulty {
			continue
		}
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (m *memStore) ListRecipesByTags(_ context.Context, tags []string, limit int) ([]*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Recipe
	for _, r := range m.recipes {
		for _, t := range tags {
			if slices.Contains(r.Tags, t) {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) ListRecentRecipes(ctx context.Context, limit int) ([]*model.Recipe, error) {
	out, _, err := m.ListRecipes(ctx, repository.RecipeFilter{}, "", limit)
	return out, err
}

func (m *memStore) ListAllRecipesByCreator(ctx context.Context, userID string) ([]*model.Recipe, error) {
	out, _, err := m.ListRecipes(ctx, repository.RecipeFilter{CreatorUserID: userID}, "", 1000)
	return out, err
}

func (m *memStore) CountRecipesByCreator(ctx context.Context, userID string) (int, error) {
	out, err := m.ListAllRecipesByCreator(ctx, userID)
	return len(out), err
}

func (m *memStore) UpdateRecipe(_ context.Context, r *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[r.ID]; !ok {
		return repository.ErrRecipeNotFound
	}
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *memStore) DeleteRecipe(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return repository.ErrRecipeNotFound
	}
	delete(m.recipes, id)
	return nil
}

// ratings

func ratingKey(recipeID, userID string) string { return recipeID + "/" + userID }

func (m *memStore) summary(recipeID string) *model.RatingSummary {
	s := &model.RatingSummary{RecipeID: recipeID}
	var total int
	for _, r := range m.ratings {
		if r.RecipeID == recipeID && r.IsActive {
			total += r.Value
			s.Count++
		}
	}
	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}
	return s
}

func (m *memStore) UpsertRating(_ context.Context, rating *model.Rating) (*model.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[rating.RecipeID]; !ok {
		return nil, repository.ErrRecipeNotFound
	}
	cp := *rating
	cp.IsActive = true
	m.ratings[ratingKey(rating.RecipeID, rating.UserID)] = &cp
	return m.summary(rating.RecipeID), nil
}

func (m *memStore) DeactivateRating(_ context.Context, recipeID, userID string, at time.Time) (*model.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[ratingKey(recipeID, userID)]
	if !ok || !r.IsActive {
		return nil, repository.ErrRatingNotFound
	}
	r.IsActive = false
	r.UpdatedAt = at
	return m.summary(recipeID), nil
}

func (m *memStore) GetRating(_ context.Context, recipeID, userID string) (*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[ratingKey(recipeID, userID)]
	if !ok {
		return nil, repository.ErrRatingNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListActiveRatings(_ context.Context, recipeID string) ([]*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Rating{}
	for _, r := range m.ratings {
		if r.RecipeID == recipeID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

// comments

func (m *memStore) CreateComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createCommentErr != nil {
		return m.createCommentErr
	}
	if _, ok := m.recipes[c.RecipeID]; !ok {
		return repository.ErrRecipeNotFound
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memStore) GetComment(_ context.Context, recipeID, commentID string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.RecipeID != recipeID {
		return nil, repository.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListComments(_ context.Context, recipeID, _ string, _ int) ([]*model.Comment, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Comment{}
	for _, c := range m.comments {
		if c.RecipeID == recipeID {
			out = append(out, c)
		}
	}
	return out, "", nil
}

func (m *memStore) ToggleCommentLike(_ context.Context, recipeID, commentID, userID string) (*model.LikeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.RecipeID != recipeID {
		return nil, repository.ErrCommentNotFound
	}
	if i := slices.Index(c.LikedUserIDs, userID); i >= 0 {
		c.LikedUserIDs = slices.Delete(c.LikedUserIDs, i, i+1)
	} else {
		c.LikedUserIDs = append(c.LikedUserIDs, userID)
	}
	c.LikeCount = len(c.LikedUserIDs)
	return &model.LikeResult{CommentID: commentID, Liked: c.IsLikedBy(userID), LikeCount: c.LikeCount}, nil
}

func (m *memStore) DeleteComment(_ context.Context, recipeID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.RecipeID != recipeID {
		return repository.ErrCommentNotFound
	}
	delete(m.comments, commentID)
	return nil
}

// favorites

func (m *memStore) AddFavorite(_ context.Context, userID, recipeID string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addFavoriteErr != nil {
		return false, m.addFavoriteErr
	}
	if _, ok := m.recipes[recipeID]; !ok {
		return false, repository.ErrRecipeNotFound
	}
	if slices.Contains(m.favorites[userID], recipeID) {
		return false, nil
	}
	m.favorites[userID] = append(m.favorites[userID], recipeID)
	return true, nil
}

func (m *memStore) RemoveFavorite(_ context.Context, userID, recipeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.favorites[userID], recipeID)
	if i < 0 {
		return false, nil
	}
	m.favorites[userID] = slices.Delete(m.favorites[userID], i, i+1)
	return true, nil
}

func (m *memStore) IsFavorite(_ context.Context, userID, recipeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.favorites[userID], recipeID), nil
}

func (m *memStore) ListFavoriteIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.favorites[userID]), nil
}

func (m *memStore) CountFavorites(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.favorites[userID]), nil
}

// premium

func (m *memStore) UpsertSubscription(_ context.Context, s *model.PremiumSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[s.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *memStore) GetSubscription(_ context.Context, userID string) (*model.PremiumSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, repository.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateSubscription(_ context.Context, s *model.PremiumSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s.UserID]; !ok {
		return repository.ErrSubscriptionNotFound
	}
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *memStore) ListActiveSubscriptions(context.Context) ([]*model.PremiumSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.PremiumSubscription{}
	for _, s := range m.subs {
		if s.Status == model.SubscriptionActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListExpiringSubscriptions(_ context.Context, before time.Time) ([]*model.PremiumSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.PremiumSubscription{}
	for _, s := range m.subs {
		if s.Status == model.SubscriptionActive && s.EndDate != nil && !s.EndDate.After(before) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListLapsedSubscriptions(_ context.Context, now time.Time, limit int) ([]*model.PremiumSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.PremiumSubscription{}
	for _, s := range m.subs {
		if s.Status == model.SubscriptionActive && s.EndDate != nil && s.EndDate.Before(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetPremiumStatistics(_ context.Context, now time.Time) (*model.PremiumStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.PremiumStatistics{}
	for _, s := range m.subs {
		stats.TotalPremium++
		if s.IsActive(now) {
			stats.ActivePremium++
		}
		if s.Type == model.SubscriptionMonthly {
			stats.MonthlySubscriptions++
		} else {
			stats.YearlySubscriptions++
		}
		stats.TotalRevenue += s.Price
	}
	return stats, nil
}

// reminders

func (m *memStore) CreateReminder(_ context.Context, rem *model.CookingReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rem
	m.reminders[rem.ID] = &cp
	return nil
}

func (m *memStore) GetReminder(_ context.Context, userID, id string) (*model.CookingReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.reminders[id]
	if !ok || rem.UserID != userID {
		return nil, repository.ErrReminderNotFound
	}
	cp := *rem
	return &cp, nil
}

func (m *memStore) ListReminders(_ context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CookingReminder
	for _, rem := range m.reminders {
		if rem.UserID == userID && (includeInactive || rem.IsActive) {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (m *memStore) ListUpcomingReminders(_ context.Context, userID string, now time.Time) ([]*model.CookingReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CookingReminder
	for _, rem := range m.reminders {
		if rem.UserID == userID && rem.IsUpcoming(now) {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (m *memStore) UpdateReminder(_ context.Context, rem *model.CookingReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reminders[rem.ID]
	if !ok || existing.UserID != rem.UserID {
		return repository.ErrReminderNotFound
	}
	cp := *rem
	m.reminders[rem.ID] = &cp
	return nil
}

func (m *memStore) DeleteReminder(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.reminders[id]
	if !ok || rem.UserID != userID {
		return repository.ErrReminderNotFound
	}
	delete(m.reminders, id)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, userID string, unreadOnly bool, _ int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.inbox {
		if n.UserID == userID && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, userID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.inbox[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotificationNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return nil
}

// memCache is an in-memory stand-in for the Redis cache.
type memCache struct {
	mu sync.Mutex

	sessions  map[string]*model.CachedSession
	resets    map[string]string
	recipes   map[string]*model.Recipe
	negative  map[string]bool
	favorites map[string][]string

	deletedRecipes []string
	localErr       error
}

func newMemCache() *memCache {
	return &memCache{
		sessions:  make(map[string]*model.CachedSession),
		resets:    make(map[string]string),
		recipes:   make(map[string]*model.Recipe),
		negative:  make(map[string]bool),
		favorites: make(map[string][]string),
	}
}

func (c *memCache) GetSession(_ context.Context, id string) (*model.CachedSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[id], nil
}

func (c *memCache) SetSession(_ context.Context, id string, cached *model.CachedSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[id] = cached
	return nil
}

func (c *memCache) DeleteSessions(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.sessions, id)
	}
	return nil
}

func (c *memCache) StoreResetToken(_ context.Context, hash, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets[hash] = userID
	return nil
}

func (c *memCache) ConsumeResetToken(_ context.Context, hash string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID, ok := c.resets[hash]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	delete(c.resets, hash)
	return userID, nil
}

func (c *memCache) GetRecipe(_ context.Context, id string) (*model.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.recipes[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *r
	return &cp, nil
}

func (c *memCache) SetRecipe(_ context.Context, r *model.Recipe) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *r
	c.recipes[r.ID] = &cp
	return nil
}

func (c *memCache) DeleteRecipe(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recipes, id)
	c.deletedRecipes = append(c.deletedRecipes, id)
	return nil
}

func (c *memCache) IsNegativelyCached(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

func (c *memCache) SetNegativeCache(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[id] = true
	return nil
}

func (c *memCache) AddLocalFavorite(_ context.Context, userID, recipeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.localErr != nil {
		return c.localErr
	}
	if !slices.Contains(c.favorites[userID], recipeID) {
		c.favorites[userID] = append(c.favorites[userID], recipeID)
	}
	return nil
}

func (c *memCache) RemoveLocalFavorite(_ context.Context, userID, recipeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.Index(c.favorites[userID], recipeID); i >= 0 {
		c.favorites[userID] = slices.Delete(c.favorites[userID], i, i+1)
	}
	return nil
}

func (c *memCache) IsLocalFavorite(_ context.Context, userID, recipeID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.favorites[userID], recipeID), nil
}

func (c *memCache) ListLocalFavorites(_ context.Context, userID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.favorites[userID]), nil
}

func (c *memCache) MarkLocalFavorites(_ context.Context, userID string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if !slices.Contains(c.favorites[userID], id) {
			c.favorites[userID] = append(c.favorites[userID], id)
		}
	}
	return nil
}

// staticPremium answers premium checks with a fixed value.
type staticPremium bool

func (p staticPremium) IsPremiumUser(context.Context, string) bool { return bool(p) }

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []model.RecipeEventType
}

func (e *recordingEmitter) Emit(t model.RecipeEventType, _, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, t)
}

func (e *recordingEmitter) count(t model.RecipeEventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, got := range e.events {
		if got == t {
			n++
		}
	}
	return n
}

func seedUser(m *memStore, id, username string) *model.User {
	u := &model.User{
		ID:           id,
		Username:     username,
		Email:        id + "@example.com",
		Role:         model.RoleUser,
		Preferences:  map[string]any{},
		SavedRecipes: []string{},
		CreatedAt:    time.Now().UTC(),
	}
	m.users[id] = u
	return u
}

func seedRecipe(m *memStore, id, creatorID string) *model.Recipe {
	r := &model.Recipe{
		ID:            id,
		Title:         "Recipe " + id,
		Description:   "desc",
		CreatorUserID: creatorID,
		Ingredients:   []string{"Tomato, 2"},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	r.ApplyDefaults()
	m.recipes[id] = r
	return r
}
