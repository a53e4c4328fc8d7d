package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/act-community/steward/internal/audit"
	"github.com/act-community/steward/internal/routing"
)

// withAPIKey guards the public API with a shared key. Ops routes stay
// open for probes, and an empty key disables the check entirely so the
// service can run keyless in development.
func withAPIKey(classifier *routing.Classifier, key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if classifier != nil && classifier.Classify(r.URL.Path) == routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}

		if key != "" {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				routing.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid api key")
				return
			}
		}

		if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
			r = r.WithContext(audit.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
