package server

import (
	"encoding/json"
	"net/http"

	"github.com/act-community/steward/internal/routing"
	impactservices "github.com/act-community/steward/modules/impact/services"
)

type impactSROIRequest struct {
	Investment float64        `json:"investment"`
	Outcomes   map[string]int `json:"outcomes"`
}

func handleImpactSROI(w http.ResponseWriter, r *http.Request, calc *impactservices.Calculator) {
	var req impactSROIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if len(req.Outcomes) == 0 {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "outcomes required")
		return
	}

	report, err := calc.Calculate(req.Investment, req.Outcomes)
	if err != nil {
		if impactservices.IsUnknownOutcome(err) {
			routing.WriteError(w, r, http.StatusBadRequest, "UNKNOWN_OUTCOME", err.Error())
			return
		}
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}
