package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/metrics"
	"github.com/forgo/questline/internal/middleware"
)

// ServerConfig holds socket server settings
type ServerConfig struct {
	Verifier middleware.TokenVerifier
	Errors   *apperror.Normalizer
	Logger   *slog.Logger
	// OriginPatterns are host patterns allowed to open a socket cross-origin
	OriginPatterns []string
	SendBuffer     int
	WriteTimeout   time.Duration
	ReadLimit      int64
}

// errFrameTooLarge marks a frame that was drained and discarded
var errFrameTooLarge = errors.New("chat: frame exceeds read limit")

// Server upgrades authenticated requests to chat connections
type Server struct {
	hub    *Hub
	router *Router
	cfg    ServerConfig
	logger *slog.Logger
}

// NewServer creates a socket server
func NewServer(hub *Hub, router *Router, cfg ServerConfig) *Server {
	if cfg.Errors == nil {
		cfg.Errors = apperror.NewNormalizer(false)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 16 << 10
	}
	return &Server{hub: hub, router: router, cfg: cfg, logger: cfg.Logger}
}

// ServeHTTP verifies the credential, upgrades the connection and runs it
// until either side closes. Handshake failures get a 401 envelope and no
// upgrade.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, claims, err := middleware.Authenticate(s.cfg.Verifier, handshakeCredential(r))
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			metrics.AuthFailuresTotal.WithLabelValues(appErr.Code).Inc()
		}
		s.cfg.Errors.WriteError(w, r, err)
		return
	}

	// Server-wide read/write timeouts would otherwise cut long-lived sockets
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.OriginPatterns,
	})
	if err != nil {
		s.logger.Warn("chat upgrade failed",
			slog.String("user_id", identity.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	// Frames are capped in readFrame so an oversized one is answered, not fatal
	conn.SetReadLimit(-1)

	client := NewClient(*identity, claims.Guilds, s.cfg.SendBuffer)
	s.hub.Register(client)
	metrics.ChatConnections.Inc()
	s.logger.Info("chat connected",
		slog.String("client_id", client.ID),
		slog.String("user_id", identity.ID),
	)

	// The request context ends with the handler, so the connection gets its own
	ctx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.writePump(ctx, conn, client)
		// unblock the reader when the pump stops first (hub shutdown, write failure)
		cancel()
	}()

	s.readLoop(ctx, conn, client)

	s.hub.Unregister(client)
	s.router.Release(client)
	cancel()
	<-pumpDone
	metrics.ChatConnections.Dec()
	_ = conn.Close(websocket.StatusNormalClosure, "closed")

	s.logger.Info("chat disconnected",
		slog.String("client_id", client.ID),
		slog.String("user_id", identity.ID),
	)
}

// readLoop hands each frame to the router until the socket fails or the
// client is closed. Raw reads are used so a malformed frame is answered with
// an error event instead of closing the socket.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		data, err := s.readFrame(ctx, conn)
		if errors.Is(err, errFrameTooLarge) {
			if err := s.router.RejectOversize(ctx, client, s.cfg.ReadLimit); errors.Is(err, ErrClientClosed) {
				return
			}
			continue
		}
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
				s.logger.Debug("chat read ended",
					slog.String("client_id", client.ID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		if err := s.router.Handle(ctx, client, data); errors.Is(err, ErrClientClosed) {
			return
		}
	}
}

// readFrame reads one message, buffering at most ReadLimit bytes. The rest
// of a longer message is drained so the connection stays usable.
func (s *Server) readFrame(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	_, r, err := conn.Reader(ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.ReadLimit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) <= s.cfg.ReadLimit {
		return data, nil
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return nil, errFrameTooLarge
}

// writePump drains the client's queue and answers heartbeat ping requests
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case evt := <-client.Outbound():
			writeCtx, cancelWrite := context.WithTimeout(ctx, s.cfg.WriteTimeout)
			err := wsjson.Write(writeCtx, conn, evt)
			cancelWrite()
			if err != nil {
				s.logger.Debug("chat write failed",
					slog.String("client_id", client.ID),
					slog.String("error", err.Error()),
				)
				_ = conn.CloseNow()
				return
			}
		case <-client.Pings():
			pingCtx, cancelPing := context.WithTimeout(ctx, s.cfg.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				s.logger.Debug("chat ping failed",
					slog.String("client_id", client.ID),
					slog.String("error", err.Error()),
				)
				_ = conn.CloseNow()
				return
			}
		}
	}
}

// handshakeCredential reads the Authorization header, falling back to the
// token query parameter for browsers that cannot set socket headers.
func handshakeCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return header
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return "Bearer " + token
	}
	return ""
}
