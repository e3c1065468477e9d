package httpapi

import (
	"net/http"
	"strings"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"
	"github.com/Emzykings/PallyOps-Tracker/internal/store"

	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// Router uses the standard http.ServeMux; path parameters are cut with
// strings.TrimPrefix inside the Register* functions.
type Router struct {
	mux     *http.ServeMux
	auth    service.AuthService
	limiter store.RateLimiter
	logger  *zap.Logger
}

func NewRouter(auth service.AuthService, limiter store.RateLimiter, logger *zap.Logger) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) public(h http.HandlerFunc) http.HandlerFunc {
	return rateLimit(r.limiter, r.logger, h)
}

func (r *Router) protected(h http.HandlerFunc) http.HandlerFunc {
	return requireAuth(r.auth, r.logger, rateLimit(r.limiter, r.logger, h))
}

func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

func (r *Router) RegisterAuthRoutes(a *AuthHandler) {
	base := apiPrefix + "/auth"
	r.Handle(base+"/register", only(http.MethodPost, r.public(a.Register)))
	r.Handle(base+"/login", only(http.MethodPost, r.public(a.Login)))
	r.Handle(base+"/logout", only(http.MethodPost, r.protected(a.Logout)))
	r.Handle(base+"/me", only(http.MethodGet, r.protected(a.Me)))
	r.Handle(base+"/verify", only(http.MethodGet, r.protected(a.Verify)))
}

func (r *Router) RegisterOperationRoutes(o *OperationsHandler) {
	base := apiPrefix + "/operations"
	r.Handle(base+"/start", only(http.MethodPost, r.protected(o.Start)))
	r.Handle(base+"/end", only(http.MethodPost, r.protected(o.End)))
	r.Handle(base+"/end-driver", only(http.MethodPost, r.protected(o.EndDriver)))
	r.Handle(base+"/check-previous", only(http.MethodGet, r.protected(o.CheckPrevious)))

	// {date}/{batch}/{role}
	r.Handle(base+"/", only(http.MethodGet, r.protected(func(w http.ResponseWriter, req *http.Request) {
		parts := strings.Split(strings.TrimPrefix(req.URL.Path, base+"/"), "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		o.Get(w, req, parts[0], parts[1], parts[2])
	})))
}

func (r *Router) RegisterBatchRoutes(b *BatchesHandler) {
	base := apiPrefix + "/batches"
	r.Handle(base, only(http.MethodGet, r.protected(b.List)))
	r.Handle(base+"/summary/daily", only(http.MethodGet, r.protected(b.DailySummary)))
	r.Handle(base+"/summary/export", only(http.MethodGet, r.protected(b.Export)))

	// {batch}, {batch}/roles, {batch}/initialize
	r.Handle(base+"/", r.protected(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, base+"/")
		batch, action, _ := strings.Cut(rest, "/")
		if batch == "" || strings.Contains(action, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch action {
		case "":
			only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) { b.Get(w, req, batch) })(w, req)
		case "roles":
			only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) { b.Roles(w, req, batch) })(w, req)
		case "initialize":
			only(http.MethodPost, func(w http.ResponseWriter, req *http.Request) { b.Initialize(w, req, batch) })(w, req)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// RegisterHealthRoutes mounts probes outside the API prefix and the rate limit.
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/health", only(http.MethodGet, h.Live))
	r.Handle("/health/ready", only(http.MethodGet, h.Ready))
	r.Handle("/health/info", only(http.MethodGet, h.Info))
}
