package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/act-community/steward/internal/routing"
	signalservices "github.com/act-community/steward/modules/signals/services"
)

func handleSignalsScore(w http.ResponseWriter, r *http.Request) {
	var input signalservices.PortfolioInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, signalservices.Score(input))
}

func handleSignalsPatterns(w http.ResponseWriter, r *http.Request, detector *signalservices.Detector) {
	var req struct {
		Observed []string `json:"observed"`
		Project  string   `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if len(req.Observed) == 0 {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "observed signals required")
		return
	}
	matches := detector.Detect(req.Observed, strings.TrimSpace(req.Project))
	if matches == nil {
		matches = []signalservices.PatternMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}
