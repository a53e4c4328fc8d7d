package routing

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

type Router struct {
	classifier *Classifier
	logger     *zap.Logger
	routes     map[string]map[string]routeEntry
	patterns   []*patternRoutes
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type patternRoutes struct {
	pattern PathPattern
	methods map[string]routeEntry
}

func NewRouter(classifier *Classifier, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		classifier: classifier,
		logger:     logger,
		routes:     make(map[string]map[string]routeEntry),
	}
}

// Handle registers a handler for method and path. Paths may contain
// {param} segments; captured values are exposed through PathParam.
// Registration panics when the declared route class disagrees with the
// allowlist, so class drift surfaces at startup rather than in traffic.
func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	if r.classifier != nil {
		if got := r.classifier.Classify(path); got != rc {
			panic(fmt.Sprintf("routing: route %s %s declared class %s, allowlist says %s", method, path, rc, got))
		}
	}

	entry := routeEntry{rc: rc, handler: r.recovered(rc, h)}

	if p, ok := parsePathPattern(path); ok {
		for _, pr := range r.patterns {
			if pr.pattern.raw == path {
				pr.methods[method] = entry
				return
			}
		}
		r.patterns = append(r.patterns, &patternRoutes{
			pattern: p,
			methods: map[string]routeEntry{method: entry},
		})
		return
	}

	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = entry
}

func (r *Router) recovered(rc RouteClass, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.String("route_class", string(rc)),
					zap.ByteString("stack", debug.Stack()),
				)
				WriteError(w, req, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			}
		}()
		h.ServeHTTP(w, req)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if methods, ok := r.routes[req.URL.Path]; ok {
		entry, ok := methods[req.Method]
		if !ok {
			WriteError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		entry.handler.ServeHTTP(w, req)
		return
	}

	for _, pr := range r.patterns {
		params, ok := pr.pattern.Params(req.URL.Path)
		if !ok {
			continue
		}
		entry, ok := pr.methods[req.Method]
		if !ok {
			WriteError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		entry.handler.ServeHTTP(w, req.WithContext(withPathParams(req.Context(), params)))
		return
	}

	WriteError(w, req, http.StatusNotFound, "ROUTE_NOT_FOUND", "route not found")
}

type pathParamsKey struct{}

func withPathParams(ctx context.Context, params map[string]string) context.Context {
	if len(params) == 0 {
		return ctx
	}
	return context.WithValue(ctx, pathParamsKey{}, params)
}

// PathParam returns the value captured for a {name} segment of the
// matched route, or "" when the request carries no such parameter.
func PathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(pathParamsKey{}).(map[string]string)
	return params[name]
}
