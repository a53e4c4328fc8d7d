package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/act-community/steward/internal/routing"
	connectorservices "github.com/act-community/steward/modules/connector/services"
)

func handleConnectorOpportunities(w http.ResponseWriter, r *http.Request, connector *connectorservices.Connector) {
	id := routing.PathParam(r, "id")
	opportunities, err := connector.FindForContact(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if opportunities == nil {
		opportunities = []connectorservices.Opportunity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contact_id":    id,
		"opportunities": opportunities,
		"count":         len(opportunities),
	})
}

func handleConnectorHandoff(w http.ResponseWriter, r *http.Request, connector *connectorservices.Connector) {
	var req struct {
		ContactID string `json:"contact_id"`
		Target    string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	req.ContactID = strings.TrimSpace(req.ContactID)
	req.Target = strings.TrimSpace(req.Target)
	if req.ContactID == "" || req.Target == "" {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "contact_id and target required")
		return
	}
	handoff, err := connector.CreateHandoff(r.Context(), req.ContactID, req.Target)
	if err != nil {
		if noOpp, ok := errors.AsType[*connectorservices.NoOpportunityError](err); ok {
			routing.WriteError(w, r, http.StatusConflict, "NO_OPPORTUNITY", noOpp.Error())
			return
		}
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handoff)
}
