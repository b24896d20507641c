package firestoreimport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipevault/recipevault/internal/model"
)

// Legacy collection names.
const (
	CollectionUsers         = "users"
	CollectionRecipes       = "recipes"
	CollectionComments      = "comments"
	CollectionRatings       = "ratings"
	CollectionFavorites     = "user_favorites"
	CollectionSubscriptions = "premium_subscriptions"
	CollectionReminders     = "cooking_reminders"
)

// Sink stores imported records. *repository.Repository satisfies it.
type Sink interface {
	UpsertUser(ctx context.Context, user *model.User) error
	UpsertRecipe(ctx context.Context, recipe *model.Recipe) error
	CreateComment(ctx context.Context, c *model.Comment) error
	UpsertRatingRaw(ctx context.Context, rating *model.Rating) error
	RecomputeRating(ctx context.Context, recipeID string) (*model.RatingSummary, error)
	UpsertFavorite(ctx context.Context, fav *model.Favorite) error
	UpsertSubscription(ctx context.Context, s *model.PremiumSubscription) error
	CreateReminder(ctx context.Context, rem *model.CookingReminder) error
}

// Count tallies one collection.
type Count struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Report holds per-collection counts in import order.
type Report struct {
	Users         Count `json:"users"`
	Recipes       Count `json:"recipes"`
	Comments      Count `json:"comments"`
	Ratings       Count `json:"ratings"`
	Favorites     Count `json:"favorites"`
	Subscriptions Count `json:"subscriptions"`
	Reminders     Count `json:"reminders"`
}

// Importer copies every legacy collection into the sink.
type Importer struct {
	source Source
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Importer.
func New(source Source, sink Sink, logger *slog.Logger) *Importer {
	return &Importer{
		source: source,
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run imports users first so later collections can reference them.
// Documents that fail to map or store are logged and skipped; a read
// failure aborts the run.
func (im *Importer) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	now := im.now()

	if err := importEach(ctx, im, CollectionUsers, &report.Users, func(doc Document) error {
		u, err := mapUser(doc, now)
		if err != nil {
			return err
		}
		return im.sink.UpsertUser(ctx, u)
	}); err != nil {
		return report, err
	}

	var recipeIDs []string
	if err := importEach(ctx, im, CollectionRecipes, &report.Recipes, func(doc Document) error {
		r, err := mapRecipe(doc, now)
		if err != nil {
			return err
		}
		if err := im.sink.UpsertRecipe(ctx, r); err != nil {
			return err
		}
		recipeIDs = append(recipeIDs, r.ID)
		return nil
	}); err != nil {
		return report, err
	}

	for _, recipeID := range recipeIDs {
		if err := im.importReviews(ctx, recipeID, report, now); err != nil {
			return report, err
		}
	}

	if err := importEach(ctx, im, CollectionFavorites, &report.Favorites, func(doc Document) error {
		f, err := mapFavorite(doc, now)
		if err != nil {
			return err
		}
		return im.sink.UpsertFavorite(ctx, f)
	}); err != nil {
		return report, err
	}

	if err := importEach(ctx, im, CollectionSubscriptions, &report.Subscriptions, func(doc Document) error {
		s, err := mapSubscription(doc, now)
		if err != nil {
			return err
		}
		return im.sink.UpsertSubscription(ctx, s)
	}); err != nil {
		return report, err
	}

	if err := importEach(ctx, im, CollectionReminders, &report.Reminders, func(doc Document) error {
		rem, err := mapReminder(doc, now)
		if err != nil {
			return err
		}
		return im.sink.CreateReminder(ctx, rem)
	}); err != nil {
		return report, err
	}

	im.logger.Info("firestore import completed",
		"users", report.Users.Imported,
		"recipes", report.Recipes.Imported,
		"comments", report.Comments.Imported,
		"ratings", report.Ratings.Imported,
		"favorites", report.Favorites.Imported,
		"subscriptions", report.Subscriptions.Imported,
		"reminders", report.Reminders.Imported,
	)
	return report, nil
}

// importReviews copies a recipe's comments and ratings, then recomputes
// its rating summary.
func (im *Importer) importReviews(ctx context.Context, recipeID string, report *Report, now time.Time) error {
	base := CollectionRecipes + "/" + recipeID + "/"

	if err := importEach(ctx, im, base+CollectionComments, &report.Comments, func(doc Document) error {
		c, err := mapComment(recipeID, doc, now)
		if err != nil {
			return err
		}
		return im.sink.CreateComment(ctx, c)
	}); err != nil {
		return err
	}

	before := report.Ratings.Imported
	if err := importEach(ctx, im, base+CollectionRatings, &report.Ratings, func(doc Document) error {
		r, err := mapRating(recipeID, doc, now)
		if err != nil {
			return err
		}
		return im.sink.UpsertRatingRaw(ctx, r)
	}); err != nil {
		return err
	}

	if report.Ratings.Imported > before {
		if _, err := im.sink.RecomputeRating(ctx, recipeID); err != nil {
			im.logger.Warn("recompute rating failed", "recipe_id", recipeID, "error", err)
		}
	}
	return nil
}

// importEach applies store to every document in path, counting results.
func importEach(ctx context.Context, im *Importer, path string, count *Count, store func(Document) error) error {
	err := im.source.Each(ctx, path, func(doc Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store(doc); err != nil {
			count.Skipped++
			im.logger.Warn("document skipped",
				"collection", path,
				"document_id", doc.ID,
				"error", err,
			)
			return nil
		}
		count.Imported++
		return nil
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	im.logger.Debug("collection imported",
		"collection", path,
		"imported", count.Imported,
		"skipped", count.Skipped,
	)
	return nil
}
