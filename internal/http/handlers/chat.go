package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type chatRequest struct {
	Query string `json:"query"`
}

// Chat answers a support question about the platform. The responder itself
// degrades to canned answers, so provider outages never surface here.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "query is required")
		return
	}

	reply, err := a.Responder.Reply(r.Context(), req.Query)
	if err != nil {
		a.Logger.Error().Err(err).Msg("chat reply failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	a.bumpCounters(r.Context(), map[string]int{"chat_messages": 1})
	a.json(w, http.StatusOK, map[string]string{"response": reply})
}
