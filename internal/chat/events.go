package chat

import (
	"encoding/json"
	"time"
)

// Event names carried in the "event" field of a frame
const (
	EventSendMessage     = "send_message"
	EventGuildMessage    = "guild_message"
	EventNewMessage      = "new_message"
	EventNewGuildMessage = "new_guild_message"
	EventError           = "error"
)

// Frame is an inbound socket frame. Data is decoded once the event is known.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is a frame written to a client
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// directRequest is the payload of send_message
type directRequest struct {
	RecipientID string          `json:"recipientId"`
	Message     json.RawMessage `json:"message"`
}

// guildRequest is the payload of guild_message
type guildRequest struct {
	GuildID string          `json:"guildId"`
	Message json.RawMessage `json:"message"`
}

// DirectMessage is delivered to the recipient as new_message
type DirectMessage struct {
	SenderID    string    `json:"senderId"`
	Message     string    `json:"message"`
	RecipientID string    `json:"recipientId"`
	Timestamp   time.Time `json:"timestamp"`
}

// GuildMessage is delivered to every guild subscriber as new_guild_message
type GuildMessage struct {
	SenderID  string    `json:"senderId"`
	Message   string    `json:"message"`
	GuildID   string    `json:"guildId"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload is sent to the originating connection when an event is rejected
type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UserChannel is the private channel of a user
func UserChannel(userID string) string {
	return "user:" + userID
}

// GuildChannel is the shared channel of a guild
func GuildChannel(guildID string) string {
	return "guild:" + guildID
}
