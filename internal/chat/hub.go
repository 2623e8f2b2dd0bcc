package chat

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/forgo/questline/internal/metrics"
)

// Stats is a snapshot of hub occupancy
type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
	Channels    int `json:"channels"`
}

// Hub tracks connected clients and fans frames out to channel subscribers
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Client // channel -> clientID -> client
	clients  map[string]*Client
	logger   *slog.Logger

	heartbeat *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub. A positive pingInterval starts the heartbeat that
// asks every connection to ping its peer.
func NewHub(pingInterval time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		channels: make(map[string]map[string]*Client),
		clients:  make(map[string]*Client),
		logger:   logger,
		done:     make(chan struct{}),
	}
	if pingInterval > 0 {
		h.heartbeat = time.NewTicker(pingInterval)
		go h.sendHeartbeats()
	}
	return h
}

// Register subscribes c to its private channel and one channel per guild
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	h.subscribe(UserChannel(c.Identity.ID), c)
	for _, g := range c.Guilds() {
		h.subscribe(GuildChannel(g), c)
	}

	h.logger.Debug("chat client registered",
		slog.String("client_id", c.ID),
		slog.String("user_id", c.Identity.ID),
		slog.Int("guilds", len(c.guilds)),
	)
}

func (h *Hub) subscribe(channel string, c *Client) {
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[string]*Client)
	}
	h.channels[channel][c.ID] = c
}

// Unregister removes c from every channel and closes it
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)

	h.unsubscribe(UserChannel(c.Identity.ID), c)
	for _, g := range c.Guilds() {
		h.unsubscribe(GuildChannel(g), c)
	}
	c.Close()

	h.logger.Debug("chat client unregistered",
		slog.String("client_id", c.ID),
		slog.String("user_id", c.Identity.ID),
	)
}

func (h *Hub) unsubscribe(channel string, c *Client) {
	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, c.ID)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Publish sends evt to every subscriber of channel and returns how many
// accepted it. Full queues are skipped so one slow reader cannot stall
// the sender.
func (h *Hub) Publish(channel string, evt Outbound) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.channels[channel] {
		if c.Enqueue(evt) {
			delivered++
			continue
		}
		if !c.Closed() {
			metrics.ChatDeliveriesDropped.Inc()
			h.logger.Warn("chat frame dropped for slow consumer",
				slog.String("client_id", c.ID),
				slog.String("channel", channel),
			)
		}
	}
	return delivered
}

// SubscriberCount returns the number of connections on channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Members returns the distinct user IDs connected to channel, sorted
func (h *Hub) Members(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, c := range h.channels[channel] {
		seen[c.Identity.ID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Stats returns current occupancy
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make(map[string]struct{})
	for _, c := range h.clients {
		users[c.Identity.ID] = struct{}{}
	}
	return Stats{
		Connections: len(h.clients),
		Users:       len(users),
		Channels:    len(h.channels),
	}
}

// sendHeartbeats asks every connection to ping on each tick
func (h *Hub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.mu.RLock()
			for _, c := range h.clients {
				c.requestPing()
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the heartbeat and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		if h.heartbeat != nil {
			h.heartbeat.Stop()
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		for id, c := range h.clients {
			c.Close()
			delete(h.clients, id)
		}
		clear(h.channels)
	})
}
