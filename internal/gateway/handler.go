package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/repsquad/repsquad/internal/challenge"
	"github.com/repsquad/repsquad/internal/sessionid"
)

// Handler serves the WebSocket upgrade endpoint plus the small REST
// surface the client uses before entering a session.
type Handler struct {
	hub     *Hub
	catalog *challenge.Catalog
}

func NewHandler(hub *Hub, catalog *challenge.Catalog) *Handler {
	return &Handler{hub: hub, catalog: catalog}
}

// HandleWS upgrades a client to WebSocket. The connection carries no
// identity yet; it binds to a session with its first join-session
// command.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Upgrade(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// ChallengeSummary is one row of the challenge listing.
type ChallengeSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Days int    `json:"days"`
}

// HandleChallenges handles GET /api/challenges and
// GET /api/challenges/{id}.
func (h *Handler) HandleChallenges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/challenges")
	id = strings.Trim(id, "/")

	if id == "" {
		summaries := make([]ChallengeSummary, 0, h.catalog.Len())
		for _, ch := range h.catalog.Challenges() {
			summaries = append(summaries, ChallengeSummary{ID: ch.ID, Name: ch.Name, Days: len(ch.Data)})
		}
		writeJSON(w, summaries)
		return
	}

	ch, ok := h.catalog.ChallengeByID(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, ch)
}

// HandleNewSessionID handles GET /api/session-id: mints a readable
// session id the client can share as a room code.
func (h *Handler) HandleNewSessionID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"sessionId": sessionid.New()})
}

// HandleStats handles GET /ws/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	connections, sessions := h.hub.Stats()
	writeJSON(w, map[string]int{
		"total_connections": connections,
		"active_sessions":   sessions,
	})
}

// RegisterRoutes attaches all gateway routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/ws/stats", h.HandleStats)
	mux.HandleFunc("/api/challenges", h.HandleChallenges)
	mux.HandleFunc("/api/challenges/", h.HandleChallenges)
	mux.HandleFunc("/api/session-id", h.HandleNewSessionID)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
