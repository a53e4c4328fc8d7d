package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/act-community/steward/internal/routing"
	contactservices "github.com/act-community/steward/modules/contacts/services"
	"github.com/act-community/steward/pkg/fieldpolicy"
	"github.com/act-community/steward/pkg/httperr"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeStoreError maps guarded store errors onto the envelope. Policy
// violations keep their own codes so callers can tell the tiers apart.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := fieldpolicy.AsViolation(err); ok {
		routing.WriteError(w, r, http.StatusForbidden, v.Code(), v.Error())
		return
	}
	if nf, ok := errors.AsType[*contactservices.NotFoundError](err); ok {
		routing.WriteError(w, r, http.StatusNotFound, nf.Code(), nf.Error())
		return
	}
	if httperr.IsBadRequest(err) {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if isPgInvalidInput(err) {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", pgErrorMessage(err))
		return
	}
	routing.WriteError(w, r, http.StatusInternalServerError, "STORE_ERROR", "store error")
}
