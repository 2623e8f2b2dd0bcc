package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/metrics"
	"github.com/forgo/questline/internal/middleware"
	"github.com/forgo/questline/internal/sanitize"
)

// DefaultMaxMessageLength is the message cap in characters
const DefaultMaxMessageLength = 1000

// Publisher fans a frame out to a channel
type Publisher interface {
	Publish(channel string, evt Outbound) int
}

// RouterConfig holds router dependencies
type RouterConfig struct {
	MaxMessageLength int
	// Limiter throttles events per connection; nil disables throttling
	Limiter *middleware.RateLimiter
	Errors  *apperror.Normalizer
	Logger  *slog.Logger
	Now     func() time.Time
}

// Router validates, sanitizes and routes inbound chat events
type Router struct {
	pub       Publisher
	maxLength int
	limiter   *middleware.RateLimiter
	errors    *apperror.Normalizer
	logger    *slog.Logger
	now       func() time.Time
}

// NewRouter creates a router publishing through pub
func NewRouter(pub Publisher, cfg RouterConfig) *Router {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}
	if cfg.Errors == nil {
		cfg.Errors = apperror.NewNormalizer(false)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Router{
		pub:       pub,
		maxLength: cfg.MaxMessageLength,
		limiter:   cfg.Limiter,
		errors:    cfg.Errors,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Handle processes one raw frame from c. Rejections are sent back to c as an
// error event and also returned; the connection stays open either way.
// A closed client yields ErrClientClosed and nothing is emitted.
func (r *Router) Handle(ctx context.Context, c *Client, raw []byte) error {
	if c.Closed() {
		return ErrClientClosed
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		return r.reject(ctx, c, "", apperror.NewBadRequest("Malformed frame"))
	}

	if r.limiter != nil {
		if d := r.limiter.Allow(c.ID); !d.Allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues("chat").Inc()
			return r.reject(ctx, c, frame.Event, apperror.NewRateLimited("Too many messages, slow down"))
		}
	}

	switch frame.Event {
	case EventSendMessage:
		return r.sendMessage(ctx, c, frame.Data)
	case EventGuildMessage:
		return r.guildMessage(ctx, c, frame.Data)
	default:
		return r.reject(ctx, c, frame.Event, apperror.NewBadRequest(fmt.Sprintf("Unknown event: %s", frame.Event)))
	}
}

// RejectOversize answers a frame that was discarded for exceeding limit
// bytes. It counts against the connection's event budget like any frame.
func (r *Router) RejectOversize(ctx context.Context, c *Client, limit int64) error {
	if c.Closed() {
		return ErrClientClosed
	}
	if r.limiter != nil {
		if d := r.limiter.Allow(c.ID); !d.Allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues("chat").Inc()
			return r.reject(ctx, c, "", apperror.NewRateLimited("Too many messages, slow down"))
		}
	}
	return r.reject(ctx, c, "", apperror.NewBadRequest(fmt.Sprintf("Frame exceeds %d bytes", limit)))
}

// Release forgets per-connection state once c has disconnected
func (r *Router) Release(c *Client) {
	if r.limiter != nil {
		r.limiter.Forget(c.ID)
	}
}

func (r *Router) sendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var req directRequest
	if err := decodePayload(data, &req); err != nil {
		return r.reject(ctx, c, EventSendMessage, err)
	}

	text, err := r.messageText(req.Message)
	if err != nil {
		return r.reject(ctx, c, EventSendMessage, err)
	}
	recipientID := strings.TrimSpace(req.RecipientID)
	if recipientID == "" {
		return r.reject(ctx, c, EventSendMessage, apperror.NewValidation(
			apperror.FieldError{Field: "recipientId", Message: "recipientId is required"}))
	}

	if sanitize.IsMarkupOnly(text) {
		r.drop(ctx, c, EventSendMessage)
		return nil
	}

	msg := DirectMessage{
		SenderID:    c.Identity.ID,
		Message:     sanitize.Escape(text),
		RecipientID: recipientID,
		Timestamp:   r.now().UTC(),
	}
	r.pub.Publish(UserChannel(recipientID), Outbound{Event: EventNewMessage, Data: msg})
	metrics.ChatEventsTotal.WithLabelValues(EventSendMessage, metrics.OutcomeRouted).Inc()
	return nil
}

func (r *Router) guildMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var req guildRequest
	if err := decodePayload(data, &req); err != nil {
		return r.reject(ctx, c, EventGuildMessage, err)
	}

	text, err := r.messageText(req.Message)
	if err != nil {
		return r.reject(ctx, c, EventGuildMessage, err)
	}
	guildID := strings.TrimSpace(req.GuildID)
	if guildID == "" {
		return r.reject(ctx, c, EventGuildMessage, apperror.NewValidation(
			apperror.FieldError{Field: "guildId", Message: "guildId is required"}))
	}
	if !c.InGuild(guildID) {
		return r.reject(ctx, c, EventGuildMessage, apperror.NewNotGuildMember())
	}

	if sanitize.IsMarkupOnly(text) {
		r.drop(ctx, c, EventGuildMessage)
		return nil
	}

	msg := GuildMessage{
		SenderID:  c.Identity.ID,
		Message:   sanitize.Escape(text),
		GuildID:   guildID,
		Timestamp: r.now().UTC(),
	}
	r.pub.Publish(GuildChannel(guildID), Outbound{Event: EventNewGuildMessage, Data: msg})
	metrics.ChatEventsTotal.WithLabelValues(EventGuildMessage, metrics.OutcomeRouted).Inc()
	return nil
}

// messageText accepts only a JSON string of at most maxLength characters
func (r *Router) messageText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	var text string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &text) != nil {
		return "", apperror.NewValidation(apperror.FieldError{Field: "message", Message: "message must be a string"})
	}
	if utf8.RuneCountInString(text) > r.maxLength {
		return "", apperror.NewValidation(apperror.FieldError{
			Field:   "message",
			Message: fmt.Sprintf("message must be at most %d characters", r.maxLength),
		})
	}
	return text, nil
}

func decodePayload(data json.RawMessage, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return apperror.NewBadRequest("Payload must be an object")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.NewBadRequest("Payload must be an object")
	}
	return nil
}

// reject sends an error event to c only
func (r *Router) reject(ctx context.Context, c *Client, event string, err error) error {
	p := r.errors.Normalize(err)
	c.Enqueue(Outbound{
		Event: EventError,
		Data: ErrorPayload{
			Event:   event,
			Code:    p.Envelope.Error,
			Message: p.Envelope.Message,
		},
	})

	label := event
	if label != EventSendMessage && label != EventGuildMessage {
		label = "unknown"
	}
	metrics.ChatEventsTotal.WithLabelValues(label, metrics.OutcomeRejected).Inc()

	level := slog.LevelDebug
	if p.Status >= 500 {
		level = slog.LevelError
	}
	r.logger.LogAttrs(ctx, level, "chat event rejected",
		slog.String("client_id", c.ID),
		slog.String("user_id", c.Identity.ID),
		slog.String("event", event),
		slog.String("code", p.Envelope.Error),
	)
	return err
}

func (r *Router) drop(ctx context.Context, c *Client, event string) {
	metrics.ChatEventsTotal.WithLabelValues(event, metrics.OutcomeDropped).Inc()
	r.logger.LogAttrs(ctx, slog.LevelDebug, "chat event dropped",
		slog.String("client_id", c.ID),
		slog.String("user_id", c.Identity.ID),
		slog.String("event", event),
	)
}
