package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const headerAPIKey = "X-TYPESENSE-API-KEY"

// Typesense is an Engine speaking the Typesense REST API
type Typesense struct {
	c   *resty.Client
	log *zap.SugaredLogger
}

func NewTypesense(cfg modules.SearchConfig) *Typesense {
	c := resty.New().
		SetBaseURL(cfg.URL()).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader(headerAPIKey, cfg.APIKey.Reveal()).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport))

	return &Typesense{
		c:   c,
		log: zap.S().Named("search"),
	}
}

func (t *Typesense) request(ctx context.Context) *resty.Request {
	return t.c.R().SetContext(ctx)
}

func (t *Typesense) execute(req *resty.Request, method string, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, errs.NewTransientError(err)
	}
	if resp.IsError() {
		return resp, responseError(resp)
	}
	return resp, nil
}

func responseError(resp *resty.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode(),
		Message: gjson.GetBytes(resp.Body(), "message").String(),
	}
	if apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	if apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests {
		return errs.NewTransientError(apiErr)
	}
	return apiErr
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func (t *Typesense) Health(ctx context.Context) error {
	resp, err := t.execute(t.request(ctx), http.MethodGet, "/health")
	if err != nil {
		return err
	}
	if !gjson.GetBytes(resp.Body(), "ok").Bool() {
		return errs.Transientf("search server is not healthy: %s", resp.String())
	}
	return nil
}

func (t *Typesense) CreateCollection(ctx context.Context, schema *CollectionSchema) error {
	_, err := t.execute(t.request(ctx).SetBody(schema), http.MethodPost, "/collections")
	return err
}

func (t *Typesense) GetCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	info := &CollectionInfo{}
	_, err := t.execute(t.request(ctx).SetResult(info), http.MethodGet, collectionPath(name))
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (t *Typesense) DropCollection(ctx context.Context, name string) error {
	_, err := t.execute(t.request(ctx), http.MethodDelete, collectionPath(name))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (t *Typesense) Import(ctx context.Context, collection string, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			return err
		}
	}

	req := t.request(ctx).
		SetQueryParam("action", "upsert").
		SetHeader("Content-Type", "text/plain").
		SetBody(body.Bytes())
	resp, err := t.execute(req, http.MethodPost, collectionPath(collection)+"/documents/import")
	if err != nil {
		return err
	}

	var failures []ImportFailure
	i := 0
	for _, line := range bytes.Split(bytes.TrimSpace(resp.Body()), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		result := gjson.ParseBytes(line)
		if !result.Get("success").Bool() {
			id := ""
			if i < len(docs) {
				id = docs[i].ID
			}
			failures = append(failures, ImportFailure{ID: id, Error: result.Get("error").String()})
		}
		i++
	}
	if len(failures) > 0 {
		return &ImportError{Failures: failures}
	}
	if i != len(docs) {
		return errs.Transientf("import acknowledged %d of %d documents", i, len(docs))
	}
	return nil
}

type searchResponse struct {
	Found int64 `json:"found"`
	Hits  []struct {
		Document *Document `json:"document"`
	} `json:"hits"`
}

func (t *Typesense) Search(ctx context.Context, collection string, q *Query) (*Result, error) {
	res := &searchResponse{}
	req := t.request(ctx).SetQueryParams(q.Params()).SetResult(res)
	_, err := t.execute(req, http.MethodGet, collectionPath(collection)+"/documents/search")
	if err != nil {
		return nil, err
	}

	result := &Result{
		Documents: make([]*Document, 0, len(res.Hits)),
		Found:     res.Found,
	}
	for _, hit := range res.Hits {
		if hit.Document != nil {
			result.Documents = append(result.Documents, hit.Document)
		}
	}
	return result, nil
}

func (t *Typesense) UpsertAlias(ctx context.Context, alias string, collection string) error {
	body := map[string]string{"collection_name": collection}
	_, err := t.execute(t.request(ctx).SetBody(body), http.MethodPut, "/aliases/"+url.PathEscape(alias))
	return err
}

func (t *Typesense) GetAlias(ctx context.Context, alias string) (string, error) {
	resp, err := t.execute(t.request(ctx), http.MethodGet, "/aliases/"+url.PathEscape(alias))
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(resp.Body(), "collection_name").String(), nil
}

func (t *Typesense) DeleteAlias(ctx context.Context, alias string) error {
	_, err := t.execute(t.request(ctx), http.MethodDelete, "/aliases/"+url.PathEscape(alias))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
