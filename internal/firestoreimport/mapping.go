package firestoreimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recipevault/recipevault/internal/model"
)

var errInvalidValue = errors.New("invalid value")

func mapUser(doc Document, now time.Time) (*model.User, error) {
	d := doc.Data
	id := doc.ID
	if v := str(d, "userId"); v != "" {
		id = v
	}
	email := strings.ToLower(strings.TrimSpace(str(d, "email")))
	if err := required("email", email); err != nil {
		return nil, err
	}

	premium, _ := boolean(d, "isPremium", "premium")
	u := &model.User{
		ID:             id,
		Username:       strings.TrimSpace(str(d, "username")),
		Email:          email,
		AvatarURL:      str(d, "avatarUrl"),
		Bio:            str(d, "bio"),
		Role:           model.RoleUser,
		IsPremium:      premium,
		Preferences:    object(d, "preferences"),
		SavedRecipes:   stringList(d, "savedRecipes"),
		FollowingCount: int64(len(stringList(d, "followingUsers"))),
		FollowersCount: int64(len(stringList(d, "followers"))),
		CreatedAt:      timestampOr(d, now, "createdAt"),
	}
	if t, ok := timestamp(d, "premiumActivatedAt"); ok {
		u.PremiumActivatedAt = &t
	}
	if t, ok := timestamp(d, "premiumExpiredAt"); ok {
		u.PremiumExpiredAt = &t
	}
	return u, nil
}

func mapRecipe(doc Document, now time.Time) (*model.Recipe, error) {
	d := doc.Data
	title := strings.TrimSpace(str(d, "title"))
	if err := required("title", title); err != nil {
		return nil, err
	}
	creator := str(d, "creatorUserId")
	if err := required("creatorUserId", creator); err != nil {
		return nil, err
	}

	difficulty := model.Difficulty(str(d, "difficulty"))
	if !difficulty.IsValid() {
		difficulty = ""
	}
	created := timestampOr(d, now, "createdAt", "timestamp")

	r := &model.Recipe{
		ID:            doc.ID,
		Title:         title,
		Description:   str(d, "description"),
		ImageURL:      str(d, "imageUrl"),
		CookingTime:   str(d, "cookingTime"),
		Difficulty:    difficulty,
		Servings:      int(integer(d, "servings")),
		AuthorName:    str(d, "authorName"),
		CreatorUserID: creator,
		Category:      str(d, "category"),
		Ingredients:   stringList(d, "ingredients"),
		Instructions:  stringList(d, "instructions"),
		Rating:        float(d, "rating"),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	r.ApplyDefaults()
	return r, nil
}

func mapComment(recipeID string, doc Document, now time.Time) (*model.Comment, error) {
	d := doc.Data
	userID := str(d, "userId")
	if err := required("userId", userID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(str(d, "text"))
	if err := required("text", text); err != nil {
		return nil, err
	}

	id := doc.ID
	if v := str(d, "commentId"); v != "" {
		id = v
	}
	liked := stringList(d, "likedUserIds")

	return &model.Comment{
		ID:            id,
		RecipeID:      recipeID,
		UserID:        userID,
		Username:      str(d, "username"),
		UserAvatarURL: str(d, "userAvatarUrl"),
		Text:          text,
		Rating:        float(d, "rating"),
		LikeCount:     len(liked),
		LikedUserIDs:  liked,
		CreatedAt:     timestampOr(d, now, "timestamp", "createdAt"),
	}, nil
}

func mapRating(recipeID string, doc Document, now time.Time) (*model.Rating, error) {
	d := doc.Data
	userID := str(d, "userId")
	if userID == "" {
		userID = doc.ID
	}
	value := int(integer(d, "value"))
	if !model.IsValidRating(value) {
		return nil, fmt.Errorf("%w: rating %d", errInvalidValue, value)
	}

	active, ok := boolean(d, "isActive", "active")
	if !ok {
		active = true
	}
	at := timestampOr(d, now, "timestamp")

	return &model.Rating{
		RecipeID:  recipeID,
		UserID:    userID,
		Value:     value,
		IsActive:  active,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

func mapFavorite(doc Document, now time.Time) (*model.Favorite, error) {
	d := doc.Data
	userID, recipeID := str(d, "userId"), str(d, "recipeId")
	if userID == "" || recipeID == "" {
		// Keys are written as <userId>_<recipeId>.
		if u, r, ok := strings.Cut(doc.ID, "_"); ok {
			userID, recipeID = u, r
		}
	}
	if err := required("userId", userID); err != nil {
		return nil, err
	}
	if err := required("recipeId", recipeID); err != nil {
		return nil, err
	}

	return &model.Favorite{
		UserID:   userID,
		RecipeID: recipeID,
		AddedAt:  timestampOr(d, now, "addedAt"),
	}, nil
}

func mapSubscription(doc Document, now time.Time) (*model.PremiumSubscription, error) {
	d := doc.Data
	userID := str(d, "userId")
	if userID == "" {
		userID = doc.ID
	}
	t := model.SubscriptionType(str(d, "subscriptionType"))
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: subscriptionType %q", errInvalidValue, t)
	}

	status := model.SubscriptionStatus(str(d, "status"))
	switch status {
	case model.SubscriptionActive, model.SubscriptionExpired, model.SubscriptionCancelled:
	default:
		status = model.SubscriptionActive
	}

	premium, _ := boolean(d, "isPremium", "premium")
	autoRenew, _ := boolean(d, "autoRenew")
	start := timestampOr(d, now, "subscriptionStartDate")

	sub := &model.PremiumSubscription{
		UserID:        userID,
		IsPremium:     premium,
		StartDate:     start,
		Type:          t,
		AutoRenew:     autoRenew,
		PaymentMethod: str(d, "paymentMethod"),
		Price:         float(d, "price"),
		Status:        status,
		CreatedAt:     start,
		UpdatedAt:     now,
	}
	if end, ok := timestamp(d, "subscriptionEndDate"); ok {
		sub.EndDate = &end
	}
	if sub.PaymentMethod == "" {
		sub.PaymentMethod = model.DefaultPaymentMethod
	}
	if sub.Price == 0 {
		sub.Price = t.Price()
	}
	return sub, nil
}

// mapReminder imports past or completed reminders as already delivered so
// the worker does not fire stale notifications.
func mapReminder(doc Document, now time.Time) (*model.CookingReminder, error) {
	d := doc.Data
	userID, recipeID := str(d, "userId"), str(d, "recipeId")
	if err := required("userId", userID); err != nil {
		return nil, err
	}
	if err := required("recipeId", recipeID); err != nil {
		return nil, err
	}
	scheduled, ok := timestamp(d, "scheduledTime")
	if !ok {
		return nil, fmt.Errorf("missing scheduledTime")
	}

	id := doc.ID
	if v := str(d, "reminderId"); v != "" {
		id = v
	}
	rt := model.ReminderType(str(d, "type"))
	if rt == "" {
		rt = model.ReminderCook
	} else if !model.IsValidReminderType(rt) {
		rt = model.ReminderCustom
	}
	active, set := boolean(d, "isActive", "active")
	if !set {
		active = true
	}
	completed, _ := boolean(d, "isCompleted", "completed")
	created := timestampOr(d, now, "createdAt")

	rem := &model.CookingReminder{
		ID:             id,
		UserID:         userID,
		RecipeID:       recipeID,
		RecipeTitle:    str(d, "recipeTitle"),
		RecipeImageURL: str(d, "recipeImageUrl"),
		ScheduledTime:  scheduled,
		Type:           rt,
		Message:        str(d, "message"),
		IsActive:       active,
		IsCompleted:    completed,
		Metadata:       object(d, "metadata"),
		DeliveryStatus: model.DeliveryStatusPending,
		CreatedAt:      created,
		UpdatedAt:      timestampOr(d, created, "updatedAt"),
	}
	if completed || !scheduled.After(now) {
		rem.DeliveryStatus = model.DeliveryStatusDelivered
	}
	return rem, nil
}
