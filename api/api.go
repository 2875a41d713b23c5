package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eventatlas/eventatlas/db/dao"
	"github.com/eventatlas/eventatlas/db/query"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/http/middlewares"
	"github.com/eventatlas/eventatlas/pkg/http/response"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/status"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	MsgNotFound       = "not found"
	MsgSearchFailed   = "search failed"
	MsgInternalError  = "internal error"
	MsgValidation     = "Request Validation"
	MsgSourceNotFound = "source not found"
)

// SourceInvalidator drops cached source lookups
type SourceInvalidator interface {
	Invalidate(code string)
}

type API struct {
	collection  string
	maxBodySize int64
	engine      search.Engine
	sources     dao.SourceDAO
	invalidator SourceInvalidator
	queue       taskqueue.TaskQueue
	reporter    *status.Reporter
	middlewares []mux.MiddlewareFunc
	log         *zap.SugaredLogger
}

type Options struct {
	Collection  string
	MaxBodySize int64
	Engine      search.Engine
	Sources     dao.SourceDAO
	Invalidator SourceInvalidator
	Queue       taskqueue.TaskQueue
	Reporter    *status.Reporter
	Middlewares []mux.MiddlewareFunc
}

func NewAPI(opts Options) *API {
	return &API{
		collection:  opts.Collection,
		maxBodySize: opts.MaxBodySize,
		engine:      opts.Engine,
		sources:     opts.Sources,
		invalidator: opts.Invalidator,
		queue:       opts.Queue,
		reporter:    opts.Reporter,
		middlewares: opts.Middlewares,
		log:         zap.S().Named("api"),
	}
}

// param returns the value of an url variable
func (api *API) param(r *http.Request, variable string) string {
	return mux.Vars(r)[variable]
}

func (api *API) json(code int, w http.ResponseWriter, data interface{}) {
	response.JSON(w, code, data)
}

func (api *API) bindQuery(r *http.Request, q *query.Query) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page_no"))
	if page <= 0 {
		page = 1
	}

	pagesize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pagesize <= 0 {
		pagesize = 20
	}

	q.Page(uint64(page), uint64(pagesize))
}

func (api *API) error(code int, w http.ResponseWriter, err error) {
	var e *errs.ValidateError
	if errors.As(err, &e) {
		api.json(code, w, response.ErrorResponse{
			Message: MsgValidation,
			Error:   e,
		})
		return
	}
	api.json(code, w, response.ErrorResponse{Message: err.Error()})
}

func (api *API) assert(err error) {
	if err != nil {
		panic(err)
	}
}

// limitBody caps the request body, reads past the limit fail
func (api *API) limitBody(w http.ResponseWriter, r *http.Request) {
	if api.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, api.maxBodySize)
	}
}

// Handler returns a http.Handler
func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, MsgNotFound)
	})

	for _, m := range api.middlewares {
		r.Use(m)
	}
	r.Use(middlewares.RequestID, middlewares.PanicRecovery)

	r.HandleFunc("/", api.Index).Methods("GET")
	r.HandleFunc("/status", api.Status).Methods("GET")

	r.HandleFunc("/events", api.SearchEvents).Methods("GET")

	r.HandleFunc("/sources", api.ListSources).Methods("GET")
	r.HandleFunc("/sources/{code}", api.GetSource).Methods("GET")
	r.HandleFunc("/sources/{code}", api.PutSource).Methods("PUT")
	r.HandleFunc("/sources/{code}/events", api.IngestEvents).Methods("POST")

	return r
}
