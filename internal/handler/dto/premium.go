package dto

// SubscriptionRequest selects a billing period.
type SubscriptionRequest struct {
	Type string `json:"type" validate:"required,oneof=monthly yearly"`
}

// FeatureResponse reports access to one premium feature or limit.
type FeatureResponse struct {
	Feature   string `json:"feature"`
	HasAccess bool   `json:"has_access"`
	Limit     int    `json:"limit"`
}

// RestoreResponse reports whether premium was restored.
type RestoreResponse struct {
	Restored bool `json:"restored"`
}
