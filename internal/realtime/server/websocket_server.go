package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
	"platewire/internal/core/services"
	"platewire/internal/realtime/dispatch"
	"platewire/pkg/config"
	apperrors "platewire/pkg/errors"
	"platewire/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebSocketServer owns the connection lifecycle: handshake authentication,
// registration with the room manager, the per-connection read loop, and the
// connected/disconnected announcements around it. Event semantics live in
// the dispatch registry; this layer only moves frames.
type WebSocketServer struct {
	rooms    ports.RoomManager
	auth     services.AuthService
	registry *dispatch.Registry

	upgrader websocket.Upgrader

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxMsgSize   int64
	msgPerSecond float64
	burst        int

	logger *zap.SugaredLogger
}

func NewWebSocketServer(
	rooms ports.RoomManager,
	auth services.AuthService,
	registry *dispatch.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) *WebSocketServer {
	s := &WebSocketServer{
		rooms:        rooms,
		auth:         auth,
		registry:     registry,
		pingInterval: cfg.Realtime.PingInterval,
		pongTimeout:  cfg.Realtime.PongTimeout,
		readTimeout:  cfg.Realtime.ReadTimeout,
		writeTimeout: cfg.Realtime.WriteTimeout,
		maxMsgSize:   cfg.Realtime.MaxMessageSizeBytes,
		msgPerSecond: cfg.Realtime.MessagesPerSecond,
		burst:        cfg.Realtime.Burst,
		logger:       logger.Sugar(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Auth.AllowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowedSet[origin]
		return ok
	}
}

// tokenFromRequest accepts the handshake token either as a query parameter
// (browser websocket clients cannot set headers) or a bearer header.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		s.logger.Warnw("handshake rejected", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	identity := claims.Identity()
	identity.ConnectionID = domain.ConnectionID(uuid.NewString())

	conn := newConnection(identity, wsConn, s.writeTimeout)
	defer conn.close()

	if err := s.rooms.Register(conn); err != nil {
		s.logger.Errorw("connection registration failed",
			"user_id", identity.UserID,
			"error", err,
		)
		return
	}

	ctx := r.Context()
	if err := s.rooms.UpdateUserStatus(ctx, identity.UserID, domain.PresenceOnline); err != nil {
		s.logger.Errorw("failed to record online presence", "user_id", identity.UserID, "error", err)
	}
	s.announce(identity, "user:connected")

	s.readLoop(ctx, conn, wsConn)

	last, err := s.rooms.Unregister(context.Background(), identity.ConnectionID)
	if err != nil {
		s.logger.Errorw("connection unregistration failed",
			"connection_id", identity.ConnectionID,
			"error", err,
		)
	}
	// The departure is announced only when the user's last socket closed;
	// a second tab going away is invisible to everyone else.
	if last {
		s.announce(identity, "user:disconnected")
	}

	s.logger.Infow("websocket closed",
		"connection_id", identity.ConnectionID,
		"user_id", identity.UserID,
		"last", last,
	)
}

func (s *WebSocketServer) announce(identity *domain.Connection, event string) {
	env := domain.StaffEnvelope{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		Timestamp:   utils.Now(),
	}
	s.rooms.EmitToRooms([]domain.RoomName{domain.RoomAllStaff, domain.RoomAdmin}, event, env)
}

// readLoop runs until the socket errors or the request context ends. One
// reader goroutine feeds a select loop that also drives the keepalive
// ticker, so the socket never has concurrent readers.
func (s *WebSocketServer) readLoop(ctx context.Context, conn *connection, wsConn *websocket.Conn) {
	identity := conn.Identity()

	if s.maxMsgSize > 0 {
		wsConn.SetReadLimit(s.maxMsgSize)
	}
	wsConn.SetReadDeadline(time.Now().Add(s.readTimeout))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(s.msgPerSecond), s.burst)

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan dispatch.EventMessage, 10)
	errorChan := make(chan error, 1)

	// done lets the reader exit even when messageChan is full and this loop
	// has already returned (ping failure, context cancellation).
	done := make(chan struct{})
	defer close(done)

	go s.readMessages(wsConn, messageChan, errorChan, done)

	for {
		select {
		case msg := <-messageChan:
			if !limiter.Allow() {
				s.logger.Warnw("rate limit exceeded",
					"connection_id", identity.ConnectionID,
					"user_id", identity.UserID,
				)
				conn.Send(dispatch.ErrorEvent(msg.Type), dispatch.ErrorPayload{
					Message: "rate limit exceeded",
					Code:    apperrors.CodeInvalidData,
				})
				continue
			}
			s.registry.Dispatch(ctx, conn, msg)

		case <-pingTicker.C:
			if err := conn.ping(); err != nil {
				s.logger.Infow("ping failed",
					"connection_id", identity.ConnectionID,
					"error", err,
				)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("read failed",
					"connection_id", identity.ConnectionID,
					"error", err,
				)
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// readMessages feeds the select loop from the socket. Every send races the
// done channel so the goroutine never outlives its loop.
func (s *WebSocketServer) readMessages(wsConn *websocket.Conn, messages chan<- dispatch.EventMessage, errs chan<- error, done <-chan struct{}) {
	for {
		var msg dispatch.EventMessage
		if err := wsConn.ReadJSON(&msg); err != nil {
			select {
			case errs <- err:
			case <-done:
			}
			return
		}
		wsConn.SetReadDeadline(time.Now().Add(s.readTimeout))
		select {
		case messages <- msg:
		case <-done:
			return
		}
	}
}
