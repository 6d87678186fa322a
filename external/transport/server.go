package transport

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/foxseedlab/kugirin/internal/config"
	"github.com/foxseedlab/kugirin/internal/session"
)

// Server exposes the transcription worker over a websocket. Each connection
// gets its own session controller; messages on one connection are handled
// in arrival order except long-running ones, which run on their own
// goroutine so cancel and memory queries stay responsive.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	factory session.Factory
}

func NewServer(cfg *config.Config, factory session.Factory) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(fiberrecover.New())

	s := &Server{app: app, cfg: cfg, factory: factory}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleSession))

	return s
}

func (s *Server) Listen() error {
	slog.Info("listening", "addr", s.cfg.ListenAddr)
	return s.app.Listen(s.cfg.ListenAddr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleSession(conn *websocket.Conn) {
	id := uuid.New().String()
	sink := &wsSink{conn: conn}
	ctrl := s.factory(id, sink)
	slog.Info("session connected", "session_id", id)

	var inflight sync.WaitGroup
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("session disconnected", "session_id", id, "reason", err.Error())
			break
		}

		cmd, err := DecodeCommand(data, s.cfg)
		if err != nil {
			slog.Warn("rejected malformed message", "session_id", id, "error", err)
			sink.Send(session.NewErrorEvent(err.Error(), ""))
			continue
		}

		if cmd.Type.IsLongRunning() {
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				ctrl.Handle(context.Background(), cmd)
			}()
			continue
		}
		ctrl.Handle(context.Background(), cmd)
	}

	inflight.Wait()
	if err := ctrl.Close(); err != nil {
		slog.Warn("session close failed", "session_id", id, "error", err)
	}
}

// wsSink serializes event writes; the controller and the read loop can both
// emit on the same connection.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(event any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(event); err != nil {
		slog.Warn("failed to write event", "error", err)
	}
}
