package api

import (
	"encoding/json"
	"net/http"

	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/db/query"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/http/response"
	"github.com/eventatlas/eventatlas/utils"
)

var sourceSortColumns = []string{"code", "name", "created_at", "updated_at"}

func (api *API) ListSources(w http.ResponseWriter, r *http.Request) {
	order, err := query.ParseOrder(utils.DefaultIfZero(r.URL.Query().Get("sort"), "code"), sourceSortColumns...)
	if err != nil {
		api.error(400, w, errs.NewValidateFieldsError(errs.ErrRequestValidate, map[string]interface{}{"sort": err.Error()}))
		return
	}
	q := query.New().OrderBy(order)
	api.bindQuery(r, q)
	list, total, err := api.sources.Page(r.Context(), q)
	api.assert(err)

	api.json(200, w, NewPagination(total, list))
}

func (api *API) GetSource(w http.ResponseWriter, r *http.Request) {
	source, err := api.sources.Get(r.Context(), api.param(r, "code"))
	api.assert(err)

	if source == nil {
		api.json(404, w, response.ErrorResponse{Message: MsgSourceNotFound})
		return
	}

	api.json(200, w, source)
}

// PutSource creates or replaces the source addressed by code
func (api *API) PutSource(w http.ResponseWriter, r *http.Request) {
	api.limitBody(w, r)

	var source entities.Source
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		api.error(400, w, err)
		return
	}
	source.Code = api.param(r, "code")
	source.Normalize()

	if err := source.Validate(); err != nil {
		api.error(400, w, err)
		return
	}

	created, err := api.sources.Upsert(r.Context(), &source)
	api.assert(err)
	if api.invalidator != nil {
		api.invalidator.Invalidate(source.Code)
	}

	code := 200
	if created {
		code = 201
	}
	api.json(code, w, source)
}
