package model

import "time"

// Validation constants
const (
	MaxDisplayNameLength = 50
	MaxPreferenceLength  = 32
	MaxGoals             = 10
	MaxGoalLength        = 200
)

// User is the stored account record. Role and SubscriptionTier are owned by
// the billing and admin flows; profile endpoints never write them.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         *string   `json:"displayName,omitempty"`
	Role                string    `json:"role"`
	SubscriptionTier    string    `json:"subscriptionTier"`
	GamificationStyle   *string   `json:"gamificationStyle,omitempty"`
	GamificationTheme   *string   `json:"gamificationTheme,omitempty"`
	Goals               []string  `json:"goals,omitempty"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	CreatedOn           time.Time `json:"createdOn"`
	UpdatedOn           time.Time `json:"updatedOn"`
}

// OnboardingRequest lists the only fields a user may set on themselves.
// Unknown JSON keys such as role are dropped by the decoder.
type OnboardingRequest struct {
	DisplayName       *string  `json:"displayName,omitempty"`
	GamificationStyle *string  `json:"gamificationStyle,omitempty"`
	GamificationTheme *string  `json:"gamificationTheme,omitempty"`
	Goals             []string `json:"goals,omitempty"`
}
