package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/act-community/steward/internal/audit"
	"github.com/act-community/steward/internal/routing"
	"github.com/act-community/steward/modules/contacts/domain/ports"
	contactpersistence "github.com/act-community/steward/modules/contacts/infrastructure/persistence"
	contactservices "github.com/act-community/steward/modules/contacts/services"
	grantservices "github.com/act-community/steward/modules/grants/services"
	impactservices "github.com/act-community/steward/modules/impact/services"
	signalservices "github.com/act-community/steward/modules/signals/services"
)

func NewHandler() (*Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

type HandlerOptions struct {
	Logger *zap.Logger
	Store  ports.ContactStore
	Pool   *pgxpool.Pool
	Audit  *audit.Log

	APIKey          string
	AllowlistPath   string
	PolicyPath      string
	RulesPath       string
	GrantsPath      string
	AuthzModelPath  string
	AuthzPolicyPath string

	Authorizer authorizer
}

// Handler is the HTTP surface of the service. The policy engine behind
// it is swappable at runtime, see Reload.
type Handler struct {
	logger *zap.Logger
	chain  http.Handler
	engine atomic.Pointer[engine]

	store      ports.ContactStore
	sink       contactservices.AuditSink
	policyPath string
	rulesPath  string

	grants  *grantservices.Catalog
	impact  *impactservices.Calculator
	signals *signalservices.Detector
}

func NewHandlerWithOptions(opts HandlerOptions) (*Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allowlistPath := opts.AllowlistPath
	if allowlistPath == "" {
		allowlistPath = os.Getenv("STEWARD_ALLOWLIST_PATH")
	}
	if allowlistPath == "" {
		p, err := defaultConfigPath("config/routing/allowlist.yaml")
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		pool := opts.Pool
		if pool == nil && databaseConfigured() {
			p, err := pgxpool.New(context.Background(), dbDSNFromEnv())
			if err != nil {
				return nil, err
			}
			pool = p
		}
		if pool != nil {
			store = contactpersistence.NewContactPGStore(pool)
		} else {
			mem := contactpersistence.NewContactMemoryStore()
			mem.SeedDemo()
			store = mem
			logger.Info("no database configured, serving the seeded in-memory store")
		}
	}

	auditLog := opts.Audit
	if auditLog == nil {
		if path := os.Getenv("STEWARD_AUDIT_LOG"); path != "" {
			l, err := audit.Open(path)
			if err != nil {
				return nil, err
			}
			auditLog = l
		}
	}
	var sink contactservices.AuditSink
	if auditLog != nil {
		sink = audit.NewSink(auditLog)
	}

	h := &Handler{
		logger:     logger,
		store:      store,
		sink:       sink,
		policyPath: optionalConfigPath(opts.PolicyPath, "STEWARD_POLICY_CONFIG", "config/policy/fields.yaml"),
		rulesPath:  optionalConfigPath(opts.RulesPath, "STEWARD_RULES_CONFIG", "config/policy/review_rules.yaml"),
	}

	eng, err := buildEngine(store, h.policyPath, h.rulesPath, sink, logger)
	if err != nil {
		return nil, err
	}
	h.engine.Store(eng)

	grantsPath := optionalConfigPath(opts.GrantsPath, "STEWARD_GRANTS_CONFIG", "config/grants/catalog.yaml")
	grants, err := grantservices.LoadCatalog(grantsPath)
	if err != nil {
		return nil, err
	}
	h.grants = grants
	h.impact = impactservices.Default()
	h.signals = signalservices.DefaultDetector()

	authorizer := opts.Authorizer
	if authorizer == nil {
		az, err := loadAuthorizer(opts.AuthzModelPath, opts.AuthzPolicyPath)
		if err != nil {
			return nil, err
		}
		authorizer = az
	}

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("STEWARD_API_KEY")
	}
	if apiKey == "" {
		logger.Warn("STEWARD_API_KEY not set, api key auth disabled")
	}

	router := routing.NewRouter(classifier, logger)
	h.registerRoutes(router)
	h.chain = withAPIKey(classifier, apiKey, withAuthz(classifier, authorizer, router))
	return h, nil
}

func MustNewHandler(opts HandlerOptions) *Handler {
	h, err := NewHandlerWithOptions(opts)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) current() *engine {
	return h.engine.Load()
}

// Reload rebuilds the policy engine from the config files and swaps it
// in. The previous engine keeps serving requests already holding it.
func (h *Handler) Reload() error {
	next, err := buildEngine(h.store, h.policyPath, h.rulesPath, h.sink, h.logger)
	if err != nil {
		return err
	}
	h.engine.Store(next)
	h.logger.Info("policy engine reloaded",
		zap.String("policy_config", h.policyPath),
		zap.String("rules_config", h.rulesPath),
	)
	return nil
}

// WatchPaths lists the config files a Reloader should watch.
func (h *Handler) WatchPaths() []string {
	var out []string
	if h.policyPath != "" {
		out = append(out, h.policyPath)
	}
	if h.rulesPath != "" {
		out = append(out, h.rulesPath)
	}
	return out
}

func (h *Handler) registerRoutes(router *routing.Router) {
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodGet, "/api/v1/contacts/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleContactGet(w, r, h.current().guarded)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/contacts/search", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleContactSearch(w, r, h.current().guarded)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPatch, "/api/v1/contacts/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleContactPatch(w, r, h.current().guarded)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/contacts/{id}/tags", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleContactTagAdd(w, r, h.current().guarded)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodDelete, "/api/v1/contacts/{id}/tags/{tag}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleContactTagRemove(w, r, h.current().guarded)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/cleanup/preview", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupPreview(w, r, h.current().cleaner)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/cleanup/apply", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCleanupApply(w, r, h.current().cleaner)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/grants/match", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGrantsMatch(w, r, h.grants)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/impact/sroi", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleImpactSROI(w, r, h.impact)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/signals/score", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSignalsScore(w, r)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/signals/patterns", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSignalsPatterns(w, r, h.signals)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodGet, "/api/v1/connector/opportunities/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleConnectorOpportunities(w, r, h.current().connector)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/connector/handoff", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleConnectorHandoff(w, r, h.current().connector)
	}))

	router.Handle(routing.RouteClassPublicAPI, http.MethodGet, "/api/v1/policy/fields", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlePolicyFields(w, r, h.current().policy)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/policy/check", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlePolicyCheck(w, r, h.current().policy)
	}))
	router.Handle(routing.RouteClassPublicAPI, http.MethodPost, "/api/v1/review/classify", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleReviewClassify(w, r, h.current().classifier)
	}))
}

func databaseConfigured() bool {
	return os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != ""
}

func defaultConfigPath(rel string) (string, error) {
	path := rel
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: config file not found: " + rel)
}

// optionalConfigPath resolves a config file that the service can run
// without: explicit option, then env var, then the conventional repo
// location. Empty means the built-in defaults apply.
func optionalConfigPath(explicit string, env string, rel string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if p, err := defaultConfigPath(rel); err == nil {
		return p
	}
	return ""
}
