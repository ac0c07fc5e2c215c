// Package httpapi is the HTTP surface over the identity services. Authorized
// operations take the acting subject from the X-Actor-Id header; request
// authentication itself lives at the edge proxy, not here.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/perm"
	"gatehouse.org/internal/tenant"
	"gatehouse.org/internal/user"
)

// ReadyProbe reports process readiness, pinging the database when one is
// configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	users   *user.Service
	perms   *perm.Service
	tenants *tenant.Service

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

func New(rp ReadyProbe, version string, users *user.Service, perms *perm.Service, tenants *tenant.Service) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		users:        users,
		perms:        perms,
		tenants:      tenants,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// identity surface
	a.mux.HandleFunc("/api/auth", a.handleSignIn)
	a.mux.HandleFunc("/api/auth/sign-up", a.handleSignUp)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/permissions/", a.handlePermissionResource)
	a.mux.HandleFunc("/api/tenants", a.handleTenants)
	a.mux.HandleFunc("/api/tenants/", a.handleTenantResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetLimits overrides the default rate limiting and body size caps.
func (a *API) SetLimits(burst, perSec int, maxBody int64) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
	if maxBody > 0 {
		a.maxBodyBytes = maxBody
	}
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestContext(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gatehouse-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "gatehouse-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
