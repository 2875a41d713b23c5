package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/go-playground/form"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

var decoder = form.NewDecoder()

// SearchRequest is the query string of GET /events
type SearchRequest struct {
	Q       string   `form:"q" validate:"max=256"`
	Country string   `form:"country" validate:"omitempty,country_alpha2"`
	Types   []string `form:"type" validate:"dive,oneof=RUN WEEK CRUISE RESORT PARTY"`
	Page    int      `form:"page" validate:"gte=1"`
	Limit   int      `form:"limit" validate:"gte=1,lte=100"`
}

// Bind decodes and validates the query string, absent parameters take their defaults
func (req *SearchRequest) Bind(r *http.Request) error {
	req.Page = DefaultPage
	req.Limit = DefaultLimit

	if err := decoder.Decode(req, r.URL.Query()); err != nil {
		return decodeError(err)
	}
	req.Q = strings.TrimSpace(req.Q)
	req.Types = utils.SplitCSV(req.Types)

	return utils.Validate(req)
}

func (req *SearchRequest) Query() *search.Query {
	return &search.Query{
		Q:       req.Q,
		Country: req.Country,
		Types:   req.Types,
		Page:    req.Page,
		Limit:   req.Limit,
	}
}

func decodeError(err error) error {
	decodeErrs, ok := err.(form.DecodeErrors)
	if !ok {
		return errs.NewValidateFieldsError(errs.ErrRequestValidate, map[string]interface{}{"$": err.Error()})
	}

	keys := make([]string, 0, len(decodeErrs))
	for key := range decodeErrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		name, _, _ := strings.Cut(key, "[")
		fields[name] = fmt.Sprintf("invalid value: %s", decodeErrs[key])
	}
	return errs.NewValidateFieldsError(errs.ErrRequestValidate, fields)
}
