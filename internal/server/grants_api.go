package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/act-community/steward/internal/routing"
	grantservices "github.com/act-community/steward/modules/grants/services"
)

type grantsMatchRequest struct {
	Project       string                      `json:"project"`
	Opportunities []grantservices.Opportunity `json:"opportunities"`
}

func handleGrantsMatch(w http.ResponseWriter, r *http.Request, catalog *grantservices.Catalog) {
	var req grantsMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	project := strings.TrimSpace(req.Project)
	if project == "" {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "project required")
		return
	}

	ranked, err := catalog.Rank(project, req.Opportunities)
	if err != nil {
		if grantservices.IsUnknownProject(err) {
			routing.WriteError(w, r, http.StatusBadRequest, "UNKNOWN_PROJECT", err.Error())
			return
		}
		routing.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	if ranked == nil {
		ranked = []grantservices.ScoredOpportunity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project":       project,
		"opportunities": ranked,
		"count":         len(ranked),
	})
}
