package handler

import (
	"net/http"

	"github.com/forgo/questline/internal/chat"
	"github.com/forgo/questline/internal/middleware"
)

// ChatHub is the read side of the realtime hub
type ChatHub interface {
	SubscriberCount(channel string) int
	Members(channel string) []string
	Stats() chat.Stats
}

// ChatHandler exposes realtime presence over HTTP
type ChatHandler struct {
	hub ChatHub
}

// NewChatHandler creates a new chat handler
func NewChatHandler(hub ChatHub) *ChatHandler {
	return &ChatHandler{hub: hub}
}

// Stats handles GET /v1/admin/chat/stats
func (h *ChatHandler) Stats(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.hub.Stats())
}

// Presence handles GET /v1/guilds/{guildId}/presence. Anyone may ask how
// many members are online; signed-in callers also learn whether they belong.
func (h *ChatHandler) Presence(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	members := h.hub.Members(chat.GuildChannel(guildID))

	data := map[string]any{
		"guildId": guildID,
		"online":  len(members),
	}
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		data["member"] = claims.InGuild(guildID)
	}
	WriteData(w, http.StatusOK, data)
}

// Roster handles GET /v1/guilds/{guildId}/roster. GuildAccess has already
// checked membership.
func (h *ChatHandler) Roster(w http.ResponseWriter, r *http.Request) {
	guildID := middleware.GetGuildID(r.Context())
	channel := chat.GuildChannel(guildID)

	WriteData(w, http.StatusOK, map[string]any{
		"guildId":     guildID,
		"members":     h.hub.Members(channel),
		"connections": h.hub.SubscriberCount(channel),
	})
}
