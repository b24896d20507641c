package dto

// ReviewRequest is the body of POST /api/v1/recipes/{id}/reviews.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Text   string `json:"text" validate:"notblank,max=2000"`
}

// CommentRequest is the body of POST /api/v1/recipes/{id}/comments.
type CommentRequest struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}

// RatingRequest is the body of PUT /api/v1/recipes/{id}/ratings/me.
type RatingRequest struct {
	Value int `json:"value" validate:"gte=1,lte=5"`
}
