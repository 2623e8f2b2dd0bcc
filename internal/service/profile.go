package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/database"
	"github.com/forgo/questline/internal/model"
)

// UserRepository defines the user storage the profile service needs
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateOnboarding(ctx context.Context, id string, req model.OnboardingRequest) (*model.User, error)
}

// ProfileService handles self-service profile changes
type ProfileService struct {
	userRepo UserRepository
	tracker  Tracker
	logger   *slog.Logger
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	UserRepo UserRepository
	Tracker  Tracker
	Logger   *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewLogTracker(logger)
	}
	return &ProfileService{
		userRepo: cfg.UserRepo,
		tracker:  tracker,
		logger:   logger,
	}
}

// GetUser returns the stored user for userID
func (s *ProfileService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFound("user")
	}
	return user, nil
}

// SaveOnboarding stores the caller's onboarding answers. Only the fields of
// OnboardingRequest reach storage, so role and tier cannot be changed here.
func (s *ProfileService) SaveOnboarding(ctx context.Context, userID string, req model.OnboardingRequest) (*model.User, error) {
	req = normalizeOnboarding(req)
	if err := validateOnboarding(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateOnboarding(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, &apperror.DuplicateError{Field: "displayName", Err: err}
		case errors.Is(err, database.ErrNotFound):
			return nil, apperror.NewNotFound("user")
		}
		return nil, fmt.Errorf("save onboarding: %w", err)
	}
	if user == nil {
		return nil, apperror.NewNotFound("user")
	}

	props := map[string]any{}
	if req.GamificationStyle != nil {
		props["gamificationStyle"] = *req.GamificationStyle
	}
	if req.GamificationTheme != nil {
		props["gamificationTheme"] = *req.GamificationTheme
	}
	if err := s.tracker.Track(ctx, userID, EventOnboardingCompleted, props); err != nil {
		s.logger.Warn("failed to track event",
			slog.String("event", EventOnboardingCompleted),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

func normalizeOnboarding(req model.OnboardingRequest) model.OnboardingRequest {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	req.DisplayName = trim(req.DisplayName)
	req.GamificationStyle = trim(req.GamificationStyle)
	req.GamificationTheme = trim(req.GamificationTheme)
	if req.Goals != nil {
		goals := make([]string, 0, len(req.Goals))
		for _, g := range req.Goals {
			if g = strings.TrimSpace(g); g != "" {
				goals = append(goals, g)
			}
		}
		req.Goals = goals
	}
	return req
}

func validateOnboarding(req model.OnboardingRequest) error {
	var fields []apperror.FieldError

	if req.DisplayName != nil {
		n := utf8.RuneCountInString(*req.DisplayName)
		switch {
		case n == 0:
			fields = append(fields, apperror.FieldError{Field: "displayName", Message: "Display name cannot be empty"})
		case n > model.MaxDisplayNameLength:
			fields = append(fields, apperror.FieldError{
				Field:   "displayName",
				Message: fmt.Sprintf("Display name must be at most %d characters", model.MaxDisplayNameLength),
			})
		}
	}
	fields = appendPreferenceError(fields, "gamificationStyle", "Gamification style", req.GamificationStyle)
	fields = appendPreferenceError(fields, "gamificationTheme", "Gamification theme", req.GamificationTheme)

	if len(req.Goals) > model.MaxGoals {
		fields = append(fields, apperror.FieldError{
			Field:   "goals",
			Message: fmt.Sprintf("At most %d goals are allowed", model.MaxGoals),
		})
	}
	for _, g := range req.Goals {
		if utf8.RuneCountInString(g) > model.MaxGoalLength {
			fields = append(fields, apperror.FieldError{
				Field:   "goals",
				Message: fmt.Sprintf("Each goal must be at most %d characters", model.MaxGoalLength),
			})
			break
		}
	}

	if len(fields) > 0 {
		return apperror.NewValidation(fields...)
	}
	return nil
}

func appendPreferenceError(fields []apperror.FieldError, field, label string, value *string) []apperror.FieldError {
	if value == nil {
		return fields
	}
	n := utf8.RuneCountInString(*value)
	if n == 0 {
		return append(fields, apperror.FieldError{Field: field, Message: label + " cannot be empty"})
	}
	if n > model.MaxPreferenceLength {
		return append(fields, apperror.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", label, model.MaxPreferenceLength),
		})
	}
	return fields
}
