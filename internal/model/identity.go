package model

// Identity is the verified caller attached to a request or socket connection.
// It is built from credential claims and never persisted.
type Identity struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscriptionTier"`
}

// Roles
const (
	RoleUser      = "user"
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)
