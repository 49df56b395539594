package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"leadbot-backend/internal/analytics"
	"leadbot-backend/internal/chat"
	"leadbot-backend/internal/config"
	"leadbot-backend/internal/dialog"
	"leadbot-backend/internal/leads"
	"leadbot-backend/internal/llm"
	"leadbot-backend/internal/metrics"
	"leadbot-backend/internal/notify"
	"leadbot-backend/internal/store"
	"leadbot-backend/internal/types"
)

type Server struct {
	router  *chi.Mux
	cfg     config.Config
	chat    *chat.Service
	funnel  *analytics.Funnel
	logger  *zap.Logger
	closers []func() error
}

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Chat   *chat.Service
	Funnel *analytics.Funnel
	Logger *zap.Logger
}

// New wires the router around already built collaborators.
func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	funnel := deps.Funnel
	if funnel == nil {
		funnel = analytics.NewFunnel(analytics.NewMemoryRepo(), logger)
	}
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: cfg.AllowedOrigin != "*",
		MaxAge:           300,
	}))
	s := &Server{
		router: r,
		cfg:    cfg,
		chat:   deps.Chat,
		funnel: funnel,
		logger: logger,
	}
	r.Use(middleware.RequestID)
	// observe sits outside Recoverer so recovered panics are counted as 500s.
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	s.routes()
	return s
}

// NewServer builds every collaborator named by cfg and returns the server.
// Close releases what it opened.
func NewServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var closers []func() error
	fail := func(err error) (*Server, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	sessions, closeSessions, err := openSessions(ctx, cfg.Session, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeSessions)

	generator, err := llm.Open(ctx, cfg.LLM, cfg.Widget.FallbackMessage, logger)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize reply generator: %w", err))
	}

	sink, closeSink := leads.Open(ctx, cfg.Leads, logger)
	closers = append(closers, closeSink)
	notifier, err := notify.New(ctx, cfg.Notify)
	if err != nil {
		logger.Warn("lead notifications disabled", zap.Error(err))
	} else if notifier != nil {
		sink = leads.Notifying{Sink: sink, Notifier: notifier, Logger: logger}
	}

	funnelRepo, closeFunnel, err := openFunnelRepo(cfg.AnalyticsDSN)
	if err != nil {
		return fail(fmt.Errorf("failed to open analytics store: %w", err))
	}
	closers = append(closers, closeFunnel)
	funnel := analytics.NewFunnel(funnelRepo, logger)

	industry, ok := dialog.ParseIndustry(cfg.DefaultIndustry)
	if !ok {
		logger.Warn("DEFAULT_INDUSTRY is not a known industry, using hotel", zap.String("industry", cfg.DefaultIndustry))
		industry = dialog.Hotel
	}

	svc := chat.NewService(chat.Options{
		Store:           sessions,
		Replier:         generator,
		Sink:            sink,
		Funnel:          funnel,
		DefaultIndustry: industry,
		SinkTimeout:     cfg.Leads.Timeout,
		Logger:          logger,
	})

	s := New(cfg, Deps{Chat: svc, Funnel: funnel, Logger: logger})
	s.closers = closers
	return s, nil
}

func openSessions(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (store.SessionStore, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(), func() error { return nil }, nil
	case "redis":
		client, err := store.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("redis session store connected", zap.String("addr", cfg.RedisAddr))
		return store.NewRedisStore(client, cfg.TTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

func openFunnelRepo(dsn string) (analytics.Repository, func() error, error) {
	if dsn == "" {
		return analytics.NewMemoryRepo(), func() error { return nil }, nil
	}
	repo, err := analytics.NewSQLiteRepo(dsn)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

// Close releases stores and clients opened by NewServer.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Server) Router() http.Handler { return s.router }

// observe logs each request and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
