package dto

// CreateRecipeRequest is the body of POST /api/v1/recipes.
type CreateRecipeRequest struct {
	Title        string   `json:"title" validate:"notblank,max=200"`
	Description  string   `json:"description" validate:"notblank,max=5000"`
	ImageURL     string   `json:"image_url,omitempty" validate:"omitempty,http_url,max=2048"`
	CookingTime  string   `json:"cooking_time,omitempty" validate:"max=100"`
	Difficulty   string   `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	Servings     int      `json:"servings,omitempty" validate:"gte=0,lte=1000"`
	Category     string   `json:"category,omitempty" validate:"max=100"`
	Ingredients  []string `json:"ingredients" validate:"max=100,dive,max=500"`
	Instructions []string `json:"instructions" validate:"max=100,dive,max=2000"`
}

// UpdateRecipeRequest is the body of PATCH /api/v1/recipes/{id}.
// Omitted fields are left unchanged.
type UpdateRecipeRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,notblank,max=5000"`
	ImageURL     *string  `json:"image_url,omitempty" validate:"omitempty,max=2048"`
	CookingTime  *string  `json:"cooking_time,omitempty" validate:"omitempty,max=100"`
	Difficulty   *string  `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	Servings     *int     `json:"servings,omitempty" validate:"omitempty,gte=0,lte=1000"`
	Category     *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Ingredients  []string `json:"ingredients,omitempty" validate:"omitempty,max=100,dive,max=500"`
	Instructions []string `json:"instructions,omitempty" validate:"omitempty,max=100,dive,max=2000"`
}

// ImageUploadResponse is returned by POST /api/v1/images.
type ImageUploadResponse struct {
	URL string `json:"url"`
}
