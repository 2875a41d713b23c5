package api

import (
	"net/http"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/status/health"
)

type IndexResponse struct {
	Version string `json:"version"`
	Message string `json:"message"`
}

func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	api.json(200, w, IndexResponse{
		Version: config.VERSION,
		Message: "Welcome to EventAtlas",
	})
}

// Status reports store and queue reachability, queue depth and the index degraded flag
func (api *API) Status(w http.ResponseWriter, r *http.Request) {
	report := api.reporter.Report(r.Context())
	code := 200
	if report.Status != health.StatusUp {
		code = 503
	}
	api.json(code, w, report)
}
