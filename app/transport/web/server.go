package web

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"yubot/app/client/engine"
	"yubot/app/config"
	"yubot/app/service/turn"

	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

//go:embed index.html
var indexPage []byte

const sessionCookie = "session_id"

// Server is the stateless HTTP transport. The client holds its own history
// and resends it on every call, so no SessionStore bookkeeping happens here;
// dialogue length is likewise not enforced on this surface.
type Server struct {
	cfg    *config.Config
	engine engine.Engine
	app    *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*engine.Client](di),
	), nil
}

func NewServer(cfg *config.Config, eng engine.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/", s.handleHome)
	app.Get("/healthz", s.handleHealthz)
	app.Post("/message", s.handleMessage)

	s.app = app

	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			slog.Error("Failed to shut down web server", "error", err)
		}
	}()

	slog.Info("Web transport listening", "addr", s.cfg.Web.Addr)

	if err := s.app.Listen(s.cfg.Web.Addr); err != nil {
		return err
	}

	return nil
}

func (s *Server) handleHome(c *fiber.Ctx) error {
	token := uuid.NewString()

	if err := s.engine.Register(c.UserContext(), token); err != nil {
		slog.Error("Failed to register session with engine", "error", err)
		return fiber.ErrInternalServerError
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HTTPOnly: true,
	})

	slog.Info("Bootstrapped web session", "session_id", token)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Send(indexPage)
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.SendString("ok")
}

type messageResponse struct {
	Context string   `json:"context"`
	Reply   string   `json:"reply"`
	History []string `json:"history"`
}

func (s *Server) handleMessage(c *fiber.Ctx) error {
	token := c.Cookies(sessionCookie)
	if token == "" {
		return fiber.ErrUnauthorized
	}

	history := strings.Split(string(c.Body()), ";")
	window := turn.ContextWindow(history)

	reply, err := s.replyWithRetry(c.UserContext(), window, token)
	if err != nil {
		slog.Error("Engine call failed", "session_id", token, "error", err)

		if errors.Is(err, engine.ErrUnavailable) {
			return fiber.ErrBadGateway
		}

		return fiber.ErrInternalServerError
	}

	slog.Debug("Processed web turn",
		"session_id", token,
		"context", window,
		"reply", reply)

	return c.JSON(messageResponse{
		Context: window,
		Reply:   reply,
		History: history,
	})
}

// replyWithRetry retries a failed engine call once; the client resends
// history each turn, so a retried call is harmless.
func (s *Server) replyWithRetry(ctx context.Context, window, token string) (string, error) {
	reply, err := s.engine.Reply(ctx, window, token)
	if err == nil {
		return reply, nil
	}

	slog.Warn("Retrying engine call", "session_id", token, "error", err)

	return s.engine.Reply(ctx, window, token)
}
