// Package model defines domain entities for the application.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Difficulty is the self-declared difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DefaultAuthorName is used when the creator has no username.
const DefaultAuthorName = "Anonymous Chef"

// IsValid checks if the difficulty is one of the known values.
func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Recipe represents a shared recipe.
type Recipe struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ImageURL      string     `json:"image_url,omitempty"`
	CookingTime   string     `json:"cooking_time,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Servings      int        `json:"servings"`
	AuthorName    string     `json:"author_name"`
	CreatorUserID string     `json:"creator_user_id"`
	Category      string     `json:"category,omitempty"`
	Ingredients   []string   `json:"ingredients"`
	Instructions  []string   `json:"instructions"`
	Tags          []string   `json:"tags"`
	Rating        float64    `json:"rating"`
	RatingCount   int64      `json:"rating_count"`
	FavoriteCount int64      `json:"favorite_count"`
	ViewCount     int64      `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ApplyDefaults fills unset fields with their default values.
func (r *Recipe) ApplyDefaults() {
	if r.Difficulty == "" {
		r.Difficulty = DifficultyEasy
	}
	if strings.TrimSpace(r.AuthorName) == "" {
		r.AuthorName = DefaultAuthorName
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	r.Tags = DeriveTags(r.Ingredients)
}

// IsOwnedBy returns true if userID created the recipe.
func (r *Recipe) IsOwnedBy(userID string) bool {
	return userID != "" && r.CreatorUserID == userID
}

// DeriveTags builds search tags from ingredient lines of the form
// "name, amount". The tag is the lower-cased name; duplicates and blanks
// are dropped and first-seen order is kept.
func DeriveTags(ingredients []string) []string {
	tags := make([]string, 0, len(ingredients))
	seen := make(map[string]struct{}, len(ingredients))

	for _, ing := range ingredients {
		name := ing
		if i := strings.Index(ing, ","); i >= 0 {
			name = ing[:i]
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}

	return tags
}

// CachedRecipe represents recipe data stored in a Redis hash.
// List fields are JSON encoded; times are unix seconds.
type CachedRecipe struct {
	Title         string `redis:"title"`
	Description   string `redis:"description"`
	ImageURL      string `redis:"image_url"`
	CookingTime   string `redis:"cooking_time"`
	Difficulty    string `redis:"difficulty"`
	Servings      string `redis:"servings"`
	AuthorName    string `redis:"author_name"`
	CreatorUserID string `redis:"creator_user_id"`
	Category      string `redis:"category"`
	Ingredients   string `redis:"ingredients"`
	Instructions  string `redis:"instructions"`
	Tags          string `redis:"tags"`
	Rating        string `redis:"rating"`
	RatingCount   string `redis:"rating_count"`
	FavoriteCount string `redis:"favorite_count"`
	ViewCount     string `redis:"view_count"`
	CreatedAt     string `redis:"created_at"`
	UpdatedAt     string `redis:"updated_at"`
}

// ToRecipe converts CachedRecipe to the Recipe domain model.
func (c *CachedRecipe) ToRecipe(id string) *Recipe {
	r := &Recipe{
		ID:            id,
		Title:         c.Title,
		Description:   c.Description,
		ImageURL:      c.ImageURL,
		CookingTime:   c.CookingTime,
		Difficulty:    Difficulty(c.Difficulty),
		AuthorName:    c.AuthorName,
		CreatorUserID: c.CreatorUserID,
		Category:      c.Category,
	}

	r.Servings, _ = strconv.Atoi(c.Servings)
	r.Rating, _ = strconv.ParseFloat(c.Rating, 64)
	r.RatingCount, _ = strconv.ParseInt(c.RatingCount, 10, 64)
	r.FavoriteCount, _ = strconv.ParseInt(c.FavoriteCount, 10, 64)
	r.ViewCount, _ = strconv.ParseInt(c.ViewCount, 10, 64)

	r.Ingredients = decodeList(c.Ingredients)
	r.Instructions = decodeList(c.Instructions)
	r.Tags = decodeList(c.Tags)

	if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
		r.CreatedAt = time.Unix(ts, 0).UTC()
	}
	if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
		r.UpdatedAt = time.Unix(ts, 0).UTC()
	}

	return r
}

// ToCachedRecipe converts Recipe to CachedRecipe.
func (r *Recipe) ToCachedRecipe() *CachedRecipe {
	return &CachedRecipe{
		Title:         r.Title,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		CookingTime:   r.CookingTime,
		Difficulty:    string(r.Difficulty),
		Servings:      strconv.Itoa(r.Servings),
		AuthorName:    r.AuthorName,
		CreatorUserID: r.CreatorUserID,
		Category:      r.Category,
		Ingredients:   encodeList(r.Ingredients),
		Instructions:  encodeList(r.Instructions),
		Tags:          encodeList(r.Tags),
		Rating:        strconv.FormatFloat(r.Rating, 'f', -1, 64),
		RatingCount:   strconv.FormatInt(r.RatingCount, 10),
		FavoriteCount: strconv.FormatInt(r.FavoriteCount, 10),
		ViewCount:     strconv.FormatInt(r.ViewCount, 10),
		CreatedAt:     strconv.FormatInt(r.CreatedAt.Unix(), 10),
		UpdatedAt:     strconv.FormatInt(r.UpdatedAt.Unix(), 10),
	}
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeList(raw string) []string {
	items := []string{}
	if raw == "" {
		return items
	}
	_ = json.Unmarshal([]byte(raw), &items)
	return items
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
