package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/park285/chess-engine-http/internal/adapter/chesspresenter"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"
	contentTypePNG  = "image/png"

	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	maxBodySize            = 4 * 1024
)

type Config struct {
	Addr string
	// RequestTimeout bounds one session operation, engine turn included.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server exposes the single chess session over HTTP. Domain errors are
// rendered as text with status 200.
type Server struct {
	cfg       Config
	session   *game.Session
	presenter *chesspresenter.Presenter
	logger    *zap.Logger
	http      *fasthttp.Server
}

func NewServer(cfg Config, session *game.Session, presenter *chesspresenter.Presenter, logger *zap.Logger) (*Server, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if presenter == nil {
		return nil, errors.New("presenter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:       cfg,
		session:   session,
		presenter: presenter,
		logger:    logger,
	}
	s.http = &fasthttp.Server{
		Name:               "chess-engine-http",
		Handler:            s.Handler(),
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       cfg.RequestTimeout + 5*time.Second,
		MaxRequestBodySize: maxBodySize,
		NoDefaultDate:      true,
	}
	return s, nil
}

// Handler routes requests. Exposed for tests and embedding.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		s.route(ctx)
		s.logger.Debug("http request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/start":
		if !allowMethod(ctx, fasthttp.MethodGet, fasthttp.MethodPost) {
			return
		}
		s.handleStart(ctx)
	case "/move":
		if !allowMethod(ctx, fasthttp.MethodPost) {
			return
		}
		s.handleMove(ctx)
	case "/status":
		if !allowMethod(ctx, fasthttp.MethodGet) {
			return
		}
		s.handleStatus(ctx)
	case "/board", "/board.png":
		if !allowMethod(ctx, fasthttp.MethodGet) {
			return
		}
		s.handleBoard(ctx)
	case "/healthz":
		if !allowMethod(ctx, fasthttp.MethodGet) {
			return
		}
		writeText(ctx, fasthttp.StatusOK, "ok")
	default:
		writeText(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleStart(ctx *fasthttp.RequestCtx) {
	opCtx, cancel := s.opContext()
	defer cancel()
	reply := s.session.Start(opCtx)
	writeText(ctx, fasthttp.StatusOK, s.presenter.Text(reply, nil))
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	input := strings.TrimSpace(string(ctx.PostBody()))

	opCtx, cancel := s.opContext()
	defer cancel()
	reply, err := s.session.Input(opCtx, input)
	if err != nil {
		s.logger.Info("move rejected",
			zap.String("input", input),
			zap.String("kind", game.KindOf(err).String()),
			zap.Error(err),
		)
	}
	writeText(ctx, fasthttp.StatusOK, s.presenter.Text(reply, err))
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	body, err := json.Marshal(s.presenter.State(s.session))
	if err != nil {
		s.logger.Error("encode status", zap.Error(err))
		writeText(ctx, fasthttp.StatusInternalServerError, "internal error")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(body)
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	opCtx, cancel := s.opContext()
	defer cancel()
	img, err := s.presenter.Board(opCtx, s.session)
	if err != nil {
		s.logger.Error("render board", zap.Error(err))
		writeText(ctx, fasthttp.StatusInternalServerError, "board unavailable")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentTypePNG)
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-store")
	ctx.SetBody(img)
}

func (s *Server) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.http.Serve(ln)
}

// ListenAndServe runs the server until ctx ends, then shuts it down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ln, err := net.Listen("tcp4", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	serveErr := make(chan error, 1)
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.http.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.ShutdownWithContext(ctx)
}

func allowMethod(ctx *fasthttp.RequestCtx, methods ...string) bool {
	method := string(ctx.Method())
	for _, m := range methods {
		if method == m {
			return true
		}
	}
	ctx.Response.Header.Set(fasthttp.HeaderAllow, strings.Join(methods, ", "))
	writeText(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeText(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeText)
	ctx.SetBodyString(body)
}
