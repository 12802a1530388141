package v1

import (
	"net/http"
	"time"

	"mentord/internal/gateway/handlers"
)

// HandleHealth reports gateway liveness. Also serves as the wake-up target
// for frontends hosted on autosleeping platforms.
func (r *Router) HandleHealth(w http.ResponseWriter, req *http.Request) {
	handlers.SendJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       r.version,
		UptimeSeconds: int64(time.Since(r.startedAt).Seconds()),
	})
}
