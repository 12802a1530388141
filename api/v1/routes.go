package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mentord/internal/runner"
)

// TurnRunner executes one chat turn. Implemented by *runner.Runner.
type TurnRunner interface {
	RunTurn(ctx context.Context, threadID, userText string) (*runner.TurnResult, error)
}

// RouterDeps holds dependencies for the v1 API router.
type RouterDeps struct {
	Runner      TurnRunner
	TurnTimeout time.Duration
	Version     string
}

// Router wraps v1 API dependencies.
type Router struct {
	runner      TurnRunner
	turnTimeout time.Duration
	version     string
	startedAt   time.Time
}

// NewRouter creates a new v1 API router.
func NewRouter(deps *RouterDeps) *Router {
	if deps == nil {
		deps = &RouterDeps{}
	}
	if deps.TurnTimeout <= 0 {
		deps.TurnTimeout = 5 * time.Minute
	}
	return &Router{
		runner:      deps.Runner,
		turnTimeout: deps.TurnTimeout,
		version:     deps.Version,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes registers the v1 API routes on the router.
func (r *Router) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/mentor/chat", r.HandleChat).Methods(http.MethodPost)
	api.HandleFunc("/health", r.HandleHealth).Methods(http.MethodGet)

	// The dashboard fires a wake-up GET at this unversioned path.
	router.HandleFunc("/api/health", r.HandleHealth).Methods(http.MethodGet)
}
