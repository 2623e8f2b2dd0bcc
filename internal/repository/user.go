package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/questline/internal/database"
	"github.com/forgo/questline/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID, returning nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]any{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseUserResult(result)
}

// UpdateOnboarding stores the onboarding answers and marks onboarding done.
// Only the fields of OnboardingRequest are ever written; role and
// subscription tier are not part of the statement. A missing user yields
// database.ErrNotFound.
func (r *UserRepository) UpdateOnboarding(ctx context.Context, id string, req model.OnboardingRequest) (*model.User, error) {
	sets := []string{"onboarding_completed = true", "updated_on = time::now()"}
	vars := map[string]any{"id": id}

	if req.DisplayName != nil {
		sets = append(sets, "display_name = $display_name")
		vars["display_name"] = *req.DisplayName
	}
	if req.GamificationStyle != nil {
		sets = append(sets, "gamification_style = $gamification_style")
		vars["gamification_style"] = *req.GamificationStyle
	}
	if req.GamificationTheme != nil {
		sets = append(sets, "gamification_theme = $gamification_theme")
		vars["gamification_theme"] = *req.GamificationTheme
	}
	if req.Goals != nil {
		sets = append(sets, "goals = $goals")
		vars["goals"] = req.Goals
	}

	query := "UPDATE type::record($id) SET " + strings.Join(sets, ", ") + " RETURN AFTER"

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("%w: display name already taken", database.ErrDuplicate)
		}
		return nil, err
	}

	return parseUserResult(result)
}

func parseUserResult(result any) (*model.User, error) {
	data, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected user record %T", database.ErrQuery, result)
	}

	return &model.User{
		ID:                  convertSurrealID(data["id"]),
		Email:               getString(data, "email"),
		DisplayName:         getStringPtr(data, "display_name"),
		Role:                getString(data, "role"),
		SubscriptionTier:    getString(data, "subscription_tier"),
		GamificationStyle:   getStringPtr(data, "gamification_style"),
		GamificationTheme:   getStringPtr(data, "gamification_theme"),
		Goals:               getStringSlice(data, "goals"),
		OnboardingCompleted: getBool(data, "onboarding_completed"),
		CreatedOn:           parseTime(data["created_on"]),
		UpdatedOn:           parseTime(data["updated_on"]),
	}, nil
}
