package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/eventatlas/eventatlas/feed"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/http/response"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/worker"
)

func (api *API) SearchEvents(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := req.Bind(r); err != nil {
		api.error(400, w, err)
		return
	}

	result, err := api.engine.Search(r.Context(), api.collection, req.Query())
	if err != nil {
		api.log.Warnw("search failed", "error", err)
		api.json(502, w, response.ErrorResponse{Message: MsgSearchFailed})
		return
	}

	api.json(200, w, SearchResponse{
		Events: result.Documents,
		Pagination: PageInfo{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      result.Found,
			TotalPages: search.TotalPages(result.Found, req.Limit),
		},
	})
}

// IngestEvents enqueues one ingest task per payload, payloads are validated by the worker
func (api *API) IngestEvents(w http.ResponseWriter, r *http.Request) {
	code := api.param(r, "code")
	source, err := api.sources.Get(r.Context(), code)
	api.assert(err)
	if source == nil {
		api.json(404, w, response.ErrorResponse{Message: MsgSourceNotFound})
		return
	}

	api.limitBody(w, r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.json(413, w, response.ErrorResponse{Message: "request body too large"})
			return
		}
		api.error(400, w, err)
		return
	}

	payloads, err := feed.Split(body)
	if err != nil {
		api.error(400, w, errs.NewValidateFieldsError(errs.ErrRequestValidate, map[string]interface{}{"$": err.Error()}))
		return
	}
	if len(payloads) == 0 {
		api.error(400, w, errs.NewValidateFieldsError(errs.ErrRequestValidate, map[string]interface{}{"$": "no events"}))
		return
	}

	tasks := make([]*taskqueue.TaskMessage, 0, len(payloads))
	for _, payload := range payloads {
		tasks = append(tasks, taskqueue.NewTaskMessage(taskqueue.TaskKindIngest, &worker.IngestData{
			SourceCode: source.Code,
			RawPayload: payload,
		}))
	}
	api.assert(api.queue.Add(r.Context(), tasks))

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	api.log.Debugw("enqueued ingest tasks", "source", source.Code, "count", len(ids))
	api.json(202, w, IngestResponse{Tasks: ids})
}
