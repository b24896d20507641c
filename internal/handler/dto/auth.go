package dto

// SignUpRequest is the body of POST /api/v1/auth/signup.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Username string `json:"username" validate:"notblank,max=50"`
}

// SignInRequest is the body of POST /api/v1/auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleSignInRequest carries a Google ID token obtained by the client.
type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// PasswordResetRequest asks for a reset token to be mailed.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required"`
}

// PasswordResetConfirmRequest sets a new password with a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// UpdateProfileRequest is the body of PATCH /api/v1/me.
type UpdateProfileRequest struct {
	Username    *string        `json:"username,omitempty" validate:"omitempty,notblank,max=50"`
	Bio         *string        `json:"bio,omitempty"`
	AvatarURL   *string        `json:"avatar_url,omitempty" validate:"omitempty,max=2048"`
	Preferences map[string]any `json:"preferences,omitempty"`
}
