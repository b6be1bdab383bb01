package server

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status      string `json:"status"`
	Routes      int    `json:"routes"`
	UpdatedTime int64  `json:"updated_time"`
	LoadedAt    string `json:"loaded_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	idx := snap.Index()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Routes:      len(idx.RouteKeys()),
		UpdatedTime: idx.UpdatedTime(),
		LoadedAt:    idx.BuiltAt().UTC().Format(time.RFC3339),
	})
}
