package events

import (
	"fmt"

	"github.com/recipevault/recipevault/internal/model"
)

const maxIDLength = 128

// ValidatePayload checks a stream payload before it is persisted.
func ValidatePayload(p Payload) error {
	if !model.RecipeEventType(p.Type).IsValid() {
		return fmt.Errorf("unknown event type %q", p.Type)
	}
	if p.RecipeID == "" {
		return fmt.Errorf("recipe_id is required")
	}
	if len(p.RecipeID) > maxIDLength {
		return fmt.Errorf("recipe_id too long")
	}
	if len(p.UserID) > maxIDLength {
		return fmt.Errorf("user_id too long")
	}
	if p.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}
