package service

import (
	"context"
	"log/slog"
)

// Analytics event names
const (
	EventOnboardingCompleted = "onboarding_completed"
)

// Tracker records product analytics events
type Tracker interface {
	Track(ctx context.Context, userID, event string, props map[string]any) error
}

// LogTracker writes analytics events to a structured log
type LogTracker struct {
	logger *slog.Logger
}

// NewLogTracker creates a tracker that logs to logger (slog.Default if nil)
func NewLogTracker(logger *slog.Logger) *LogTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTracker{logger: logger.With("component", "analytics")}
}

// Track logs the event at info level
func (t *LogTracker) Track(ctx context.Context, userID, event string, props map[string]any) error {
	attrs := []slog.Attr{
		slog.String("event", event),
		slog.String("user_id", userID),
	}
	if len(props) > 0 {
		attrs = append(attrs, slog.Any("props", props))
	}
	t.logger.LogAttrs(ctx, slog.LevelInfo, "analytics event", attrs...)
	return nil
}
