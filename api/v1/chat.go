package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"mentord/internal/gateway/handlers"
)

// HandleChat handles one synchronous mentor-chat turn.
func (r *Router) HandleChat(w http.ResponseWriter, req *http.Request) {
	var chatReq ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&chatReq); err != nil {
		handlers.SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if chatReq.Message == "" {
		handlers.SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Message is required")
		return
	}

	if r.runner == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Turn runner not available")
		return
	}

	// Bound the turn: a run stuck in_progress would otherwise poll forever.
	ctx, cancel := context.WithTimeout(req.Context(), r.turnTimeout)
	defer cancel()

	result, err := r.runner.RunTurn(ctx, chatReq.ThreadID, chatReq.Message)
	if err != nil {
		handlers.SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	handlers.SendJSON(w, http.StatusOK, ChatResponse{
		ThreadID: result.ThreadID,
		Text:     result.Text,
	})
}
