package status

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/eventatlas/eventatlas/pkg/accesslog"
	"github.com/eventatlas/eventatlas/pkg/http/middlewares"
	"github.com/eventatlas/eventatlas/pkg/http/response"
	"github.com/eventatlas/eventatlas/status/health"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type API struct {
	startedAt      time.Time
	debugEndpoints bool
	tracing        bool
	accessLogger   accesslog.AccessLogger
	reporter       *Reporter
}

func statusCode(status health.Status) int {
	if status == health.StatusUp {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	report := api.reporter.Report(r.Context())
	response.JSON(w, http.StatusOK, newStatusResponse(api.startedAt, report))
}

// Live answers as long as the process serves HTTP
func (api *API) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, HealthResponse{Status: health.StatusUp})
}

// Ready runs every dependency check
func (api *API) Ready(w http.ResponseWriter, r *http.Request) {
	status, components := api.reporter.Health(r.Context())
	response.JSON(w, statusCode(status), HealthResponse{Status: status, Components: components})
}

func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.RequestID)
	if api.accessLogger != nil {
		r.Use(accesslog.NewMiddleware(api.accessLogger))
	}
	if api.tracing {
		r.Use(otelhttp.NewMiddleware("status"))
	}
	r.Use(middlewares.PanicRecovery)

	r.HandleFunc("/", api.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", api.Ready).Methods(http.MethodGet)
	r.HandleFunc("/health/live", api.Live).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", api.Ready).Methods(http.MethodGet)

	if api.debugEndpoints {
		debug := r.PathPrefix("/debug/pprof").Subrouter()
		debug.HandleFunc("/profile", pprof.Profile)
		debug.HandleFunc("/symbol", pprof.Symbol)
		debug.HandleFunc("/trace", pprof.Trace)
		debug.HandleFunc("/cmdline", pprof.Cmdline)
		debug.PathPrefix("/").HandlerFunc(pprof.Index)
	}

	return r
}
