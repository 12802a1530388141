// Package gateway provides the HTTP gateway server.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	v1 "mentord/api/v1"
	"mentord/internal/config"
	"mentord/internal/gateway/handlers"
	"mentord/internal/gateway/middleware"
	"mentord/pkg/logger"
)

// Server represents the HTTP gateway server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	cfg        *config.Config
}

// NewServer creates a gateway server and mounts the v1 API routes.
func NewServer(cfg *config.Config, apiRouter *v1.Router) *Server {
	router := mux.NewRouter()

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, http.StatusNotFound, handlers.ErrCodeNotFound, "not found")
	})

	apiRouter.RegisterRoutes(router)

	// Middleware chain: Recovery -> RequestID -> Logging -> CORS
	handler := middleware.Recovery(
		middleware.RequestID(
			middleware.Logging(
				middleware.CORS(router),
			),
		),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
			Handler:      handler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: cfg.Assistant.TurnTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router: router,
		cfg:    cfg,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("gateway server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info().Msg("gateway server shutting down")
	return s.httpServer.Shutdown(ctx)
}
