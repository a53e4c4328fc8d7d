package server

import (
	"net/http"

	cleanupservices "github.com/act-community/steward/modules/cleanup/services"
)

func handleCleanupPreview(w http.ResponseWriter, r *http.Request, cleaner *cleanupservices.Cleaner) {
	report, err := cleaner.Preview(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func handleCleanupApply(w http.ResponseWriter, r *http.Request, cleaner *cleanupservices.Cleaner) {
	report, err := cleaner.Apply(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
