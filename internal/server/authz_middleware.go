package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/act-community/steward/internal/routing"
	"github.com/act-community/steward/pkg/authz"
)

func loadAuthorizer(modelPath string, policyPath string) (*authz.Authorizer, error) {
	if modelPath == "" {
		modelPath = os.Getenv("STEWARD_AUTHZ_MODEL_PATH")
	}
	if modelPath == "" {
		p, err := defaultConfigPath("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	if policyPath == "" {
		policyPath = os.Getenv("STEWARD_AUTHZ_POLICY_PATH")
	}
	if policyPath == "" {
		p, err := defaultConfigPath("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

// withAuthz checks the caller's roles against the casbin policy. Roles
// arrive in the X-Roles header, any allowed role passes the request.
// In shadow mode decisions are computed but never enforced.
func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if classifier != nil && classifier.Classify(r.URL.Path) == routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, r.URL.Path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		allowed := false
		enforced := false
		for _, subject := range authz.SubjectsFromHeader(r.Header.Get("X-Roles")) {
			ok, enf, err := a.Authorize(subject, authz.DomainGlobal, object, action)
			if err != nil {
				routing.WriteError(w, r, http.StatusInternalServerError, "AUTHZ_ERROR", "authz error")
				return
			}
			enforced = enf
			if ok {
				allowed = true
				break
			}
		}
		if enforced && !allowed {
			routing.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	// Literal routes match before templates: /api/v1/contacts/search
	// would otherwise bind to the {id} segment.
	switch path {
	case "/api/v1/contacts/search":
		if method == http.MethodPost {
			return authz.ObjectContactRecords, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/cleanup/preview":
		if method == http.MethodPost {
			return authz.ObjectCleanupSweeps, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/cleanup/apply":
		if method == http.MethodPost {
			return authz.ObjectCleanupSweeps, authz.ActionAdmin, true
		}
		return "", "", false
	case "/api/v1/grants/match":
		if method == http.MethodPost {
			return authz.ObjectGrantMatches, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/impact/sroi":
		if method == http.MethodPost {
			return authz.ObjectImpactReports, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/signals/score", "/api/v1/signals/patterns":
		if method == http.MethodPost {
			return authz.ObjectSignalReports, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/connector/handoff":
		if method == http.MethodPost {
			return authz.ObjectConnectorHandoffs, authz.ActionAdmin, true
		}
		return "", "", false
	case "/api/v1/policy/fields":
		if method == http.MethodGet {
			return authz.ObjectPolicyRegistry, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/policy/check":
		if method == http.MethodPost {
			return authz.ObjectPolicyRegistry, authz.ActionRead, true
		}
		return "", "", false
	case "/api/v1/review/classify":
		if method == http.MethodPost {
			return authz.ObjectReviewClassifier, authz.ActionRead, true
		}
		return "", "", false
	}

	if pathMatchRouteTemplate(path, "/api/v1/contacts/{id}") {
		if method == http.MethodGet {
			return authz.ObjectContactRecords, authz.ActionRead, true
		}
		if method == http.MethodPatch {
			return authz.ObjectContactRecords, authz.ActionAdmin, true
		}
		return "", "", false
	}
	if pathMatchRouteTemplate(path, "/api/v1/contacts/{id}/tags") {
		if method == http.MethodPost {
			return authz.ObjectContactRecords, authz.ActionAdmin, true
		}
		return "", "", false
	}
	if pathMatchRouteTemplate(path, "/api/v1/contacts/{id}/tags/{tag}") {
		if method == http.MethodDelete {
			return authz.ObjectContactRecords, authz.ActionAdmin, true
		}
		return "", "", false
	}
	if pathMatchRouteTemplate(path, "/api/v1/connector/opportunities/{id}") {
		if method == http.MethodGet {
			return authz.ObjectConnectorHandoffs, authz.ActionRead, true
		}
		return "", "", false
	}

	return "", "", false
}

func pathMatchRouteTemplate(path string, template string) bool {
	in := splitRouteSegments(path)
	want := splitRouteSegments(template)
	if len(in) != len(want) {
		return false
	}
	for i := range want {
		w := want[i]
		g := in[i]
		if g == "" {
			return false
		}
		if routeTemplateIsParamSegment(w) {
			continue
		}
		if g != w {
			return false
		}
	}
	return true
}

func splitRouteSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func routeTemplateIsParamSegment(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2
}
