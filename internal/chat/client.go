package chat

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/forgo/questline/internal/model"
)

// ErrClientClosed is returned when routing for a disconnected client
var ErrClientClosed = errors.New("chat: client closed")

// Client is one authenticated socket connection.
// Its guild set is a snapshot of the credential taken at connect time.
type Client struct {
	ID       string
	Identity model.Identity

	guilds    map[string]struct{}
	send      chan Outbound
	pings     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client with an outbound queue of the given size
func NewClient(identity model.Identity, guilds []string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	c := &Client{
		ID:       uuid.New().String(),
		Identity: identity,
		guilds:   make(map[string]struct{}, len(guilds)),
		send:     make(chan Outbound, buffer),
		pings:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, g := range guilds {
		if g != "" {
			c.guilds[g] = struct{}{}
		}
	}
	return c
}

// InGuild reports whether the connection's snapshot includes guildID
func (c *Client) InGuild(guildID string) bool {
	_, ok := c.guilds[guildID]
	return ok
}

// Guilds returns the guild snapshot in sorted order
func (c *Client) Guilds() []string {
	out := make([]string, 0, len(c.guilds))
	for g := range c.guilds {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

// Enqueue queues a frame without blocking. It returns false when the client
// is closed or its queue is full.
func (c *Client) Enqueue(evt Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

// Outbound returns the queue drained by the write pump
func (c *Client) Outbound() <-chan Outbound {
	return c.send
}

// requestPing asks the write pump for a ping, coalescing pending requests
func (c *Client) requestPing() {
	select {
	case c.pings <- struct{}{}:
	default:
	}
}

// Pings returns the ping request signal
func (c *Client) Pings() <-chan struct{} {
	return c.pings
}

// Done is closed once the client disconnects
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close marks the client disconnected. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
