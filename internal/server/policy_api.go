package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/act-community/steward/internal/routing"
	"github.com/act-community/steward/modules/contacts/domain/types"
	contactservices "github.com/act-community/steward/modules/contacts/services"
	"github.com/act-community/steward/pkg/fieldpolicy"
)

func handlePolicyFields(w http.ResponseWriter, r *http.Request, policy *fieldpolicy.Registry) {
	writeJSON(w, http.StatusOK, policy.Snapshot())
}

// handlePolicyCheck answers a single field/action question. Denials are
// part of the answer, not a failure of the request, so they come back
// as 200 with allowed=false and the violation code.
func handlePolicyCheck(w http.ResponseWriter, r *http.Request, policy *fieldpolicy.Registry) {
	var req struct {
		Field  string `json:"field"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	field := strings.TrimSpace(req.Field)
	if field == "" {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "field name required")
		return
	}
	action := fieldpolicy.Action(strings.ToLower(strings.TrimSpace(req.Action)))

	resp := map[string]any{
		"field":  field,
		"action": action,
		"tier":   policy.Tier(field),
	}
	if err := policy.Check(field, action); err != nil {
		violation, ok := fieldpolicy.AsViolation(err)
		if !ok {
			routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		resp["allowed"] = false
		resp["code"] = violation.Code()
		resp["message"] = violation.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp["allowed"] = true
	writeJSON(w, http.StatusOK, resp)
}

func handleReviewClassify(w http.ResponseWriter, r *http.Request, classifier *contactservices.Classifier) {
	var req struct {
		ID     string         `json:"id"`
		Tags   []string       `json:"tags"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	contact := types.Contact{
		ID:     strings.TrimSpace(req.ID),
		Tags:   req.Tags,
		Fields: req.Fields,
	}
	writeJSON(w, http.StatusOK, classifier.Classify(contact))
}
