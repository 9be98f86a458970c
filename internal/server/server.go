package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	httpapi "notes-sync/internal/api/http"
	"notes-sync/internal/api/http/middleware"
	"notes-sync/internal/config"
	"notes-sync/internal/logger"
	"notes-sync/internal/repository/memory"
	notesService "notes-sync/internal/service/notes"
)

// Server эталонный HTTP сервер заметок
type Server struct {
	HTTPAddr string
	Listener net.Listener
	Config   *config.Config

	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer создает сервер и занимает порт из конфигурации (0 - любой свободный)
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	log = logger.OrDefault(log)
	if cfg.Server == nil || cfg.Gateway == nil {
		d := config.Default()
		if cfg.Server == nil {
			cfg.Server = d.Server
		}
		if cfg.Gateway == nil {
			cfg.Gateway = d.Gateway
		}
	}

	httpAddr := "0.0.0.0:" + strconv.Itoa(cfg.Server.PortHTTP)
	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", httpAddr, err)
	}

	return &Server{
		HTTPAddr: listener.Addr().String(),
		Listener: listener,
		Config:   cfg,
		logger:   log,
	}, nil
}

// Initialize собирает компоненты (Repository → Service → Handler) и middleware
func (s *Server) Initialize() {
	noteRepo := memory.NewRepository()
	noteSvc := notesService.NewNoteService(noteRepo)

	mux := http.NewServeMux()
	httpapi.NewHandler(noteSvc, s.logger).Register(mux)

	// CORS → logging → rate limit
	var handler http.Handler = mux
	handler = middleware.RateLimit(handler, s.Config.Gateway.RateLimitRPS, s.Config.Gateway.RateLimitBurst, s.logger)
	handler = middleware.Logging(handler, s.logger)
	handler = setupCORS(s.Config.Gateway).Handler(handler)

	sc := s.Config.Server
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadTimeout:       seconds(sc.HTTPReadTimeout),
		WriteTimeout:      seconds(sc.HTTPWriteTimeout),
		IdleTimeout:       seconds(sc.HTTPIdleTimeout),
		ReadHeaderTimeout: seconds(sc.HTTPReadHeaderTimeout),
	}
	s.logger.Info("server initialized", "addr", s.HTTPAddr, "cors_origins", s.Config.Gateway.CORSAllowedOrigins)
}

// Start запускает HTTP сервер в горутине.
// Возвращает канал ошибок для отслеживания ошибок сервера.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.HTTPAddr)
		if err := s.httpServer.Serve(s.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	return errChan
}

// Shutdown выполняет graceful shutdown сервера
func (s *Server) Shutdown() error {
	s.logger.Info("starting graceful shutdown")

	timeout := seconds(s.Config.Server.GracefulShutdownTimeout)
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown timeout, forcing stop", "error", err)
		_ = s.httpServer.Close()
		return err
	}
	s.logger.Info("http server stopped gracefully")
	return nil
}

// setupCORS настраивает CORS middleware используя конфигурацию
func setupCORS(cfg *config.ConfigGateway) *cors.Cors {
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	maxAge := cfg.CORSMaxAge
	if maxAge == 0 {
		maxAge = 86400 // 24 часа по умолчанию
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"Cache-Control",
			"X-Requested-With",
		},
		MaxAge: maxAge,
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
