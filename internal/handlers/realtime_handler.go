package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/civic_be/internal/realtime"
)

var errWSUnauthenticated = apperr.New(apperr.CodeUnauthenticated, "Valid token query parameter required")

type RealtimeHandler struct {
	Hub    *realtime.Hub
	Tokens middleware.AccessVerifier
	Log    *slog.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, tokens middleware.AccessVerifier, log *slog.Logger) *RealtimeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RealtimeHandler{Hub: hub, Tokens: tokens, Log: log}
}

// Upgrade authenticates the ?token= access token before switching protocols.
// Browsers cannot set headers on a WebSocket handshake.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tok := c.Query("token")
	if tok == "" {
		return errWSUnauthenticated
	}
	claims, err := h.Tokens.VerifyAccessToken(tok)
	if err != nil {
		return errWSUnauthenticated
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return errWSUnauthenticated
	}

	c.Locals(middleware.LocalUserID, uid)
	return c.Next()
}

// Stream pushes notification events to the connected user until either side closes.
func (h *RealtimeHandler) Stream(conn *websocket.Conn) {
	uid, ok := conn.Locals(middleware.LocalUserID).(uuid.UUID)
	if !ok {
		_ = conn.Close()
		return
	}

	client := realtime.NewClient(uid, realtime.NewWebSocketConn(conn))
	if !h.Hub.RegisterClient(client) {
		_ = conn.Close()
		return
	}
	h.Log.Info("websocket: connected", "user_id", uid, "client_id", client.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Conn.WritePump(client); err != nil {
			h.Log.Debug("websocket: write stopped", "client_id", client.ID, "err", err)
		}
	}()

	if err := client.Conn.ReadPump(); err != nil {
		h.Log.Debug("websocket: read stopped", "client_id", client.ID, "err", err)
	}

	h.Hub.UnregisterClient(client)
	<-done
	h.Log.Info("websocket: disconnected", "user_id", uid, "client_id", client.ID)
}
