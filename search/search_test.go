package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTypesense(t *testing.T, handler http.HandlerFunc) *Typesense {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	ts := NewTypesense(modules.SearchConfig{APIKey: "secret", Timeout: 5})
	ts.c.SetBaseURL(server.URL)
	return ts
}

func TestNewDocument(t *testing.T) {
	startsAt := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	event := &entities.Event{
		Hash:     "abc",
		Name:     "Bear Week",
		Type:     entities.EventTypeWeek,
		StartsAt: startsAt,
		EndsAt:   startsAt.Add(7 * 24 * time.Hour),
		Country:  "ES",
		City:     utils.Pointer("Sitges"),
		Vibe:     entities.Strings{"bears"},
	}
	doc := NewDocument(event)
	assert.Equal(t, &Document{
		ID:        "abc",
		Name:      "Bear Week",
		Type:      "WEEK",
		StartsAt:  1752537600000,
		EndsAt:    1753142400000,
		Country:   "ES",
		Region:    "",
		City:      "Sitges",
		Vibe:      []string{"bears"},
		Amenities: []string{},
	}, doc)

	b, err := json.Marshal(doc)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","name":"Bear Week","type":"WEEK","startsAt":1752537600000,"endsAt":1753142400000,
		"country":"ES","region":"","city":"Sitges","vibe":["bears"],"amenities":[]}`, string(b))
}

func TestEventsSchema(t *testing.T) {
	schema := EventsSchema("events")
	assert.Equal(t, "events", schema.Name)
	assert.Equal(t, "startsAt", schema.DefaultSortingField)
	assert.Len(t, schema.Fields, 10)
	b, err := json.Marshal(schema.Fields[2])
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"type","type":"string","facet":true}`, string(b))
}

func TestQuery(t *testing.T) {
	q := &Query{Page: 2, Limit: 20}
	assert.Equal(t, "", q.FilterBy())
	assert.Equal(t, map[string]string{
		"q":        "*",
		"query_by": "name",
		"sort_by":  "startsAt:asc",
		"page":     "2",
		"per_page": "20",
	}, q.Params())

	q = &Query{Q: " bear ", Country: "DE", Types: []string{"RUN", "WEEK"}, Page: 1, Limit: 5}
	assert.Equal(t, "country:=DE && type:=[RUN,WEEK]", q.FilterBy())
	params := q.Params()
	assert.Equal(t, "bear", params["q"])
	assert.Equal(t, "country:=DE && type:=[RUN,WEEK]", params["filter_by"])

	q = &Query{Types: []string{"PARTY"}}
	assert.Equal(t, "type:=[PARTY]", q.FilterBy())
}

func TestTotalPages(t *testing.T) {
	assert.EqualValues(t, 3, TotalPages(45, 20))
	assert.EqualValues(t, 2, TotalPages(40, 20))
	assert.EqualValues(t, 0, TotalPages(0, 20))
	assert.EqualValues(t, 1, TotalPages(1, 100))
	assert.EqualValues(t, 0, TotalPages(10, 0))
}

func TestTypesenseImport(t *testing.T) {
	var body string
	ts := newTestTypesense(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/events/documents/import", r.URL.Path)
		assert.Equal(t, "upsert", r.URL.Query().Get("action"))
		assert.Equal(t, "secret", r.Header.Get(headerAPIKey))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = w.Write([]byte("{\"success\":true}\n{\"success\":true}"))
	})

	docs := []*Document{
		{ID: "a", Vibe: []string{}, Amenities: []string{}},
		{ID: "b", Vibe: []string{}, Amenities: []string{}},
	}
	assert.NoError(t, ts.Import(context.Background(), "events", docs))
	assert.Contains(t, body, `"id":"a"`)
	assert.Contains(t, body, "}\n{")

	assert.NoError(t, ts.Import(context.Background(), "events", nil))
}

func TestTypesenseImportFailures(t *testing.T) {
	ts := newTestTypesense(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"success\":true}\n{\"success\":false,\"error\":\"Field `startsAt` must be an int64.\",\"document\":\"{}\"}\n"))
	})

	err := ts.Import(context.Background(), "events", []*Document{{ID: "a"}, {ID: "b"}})
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, []ImportFailure{{ID: "b", Error: "Field `startsAt` must be an int64."}}, importErr.Failures)
	assert.Equal(t, "failed to import 1 document(s) [b]: Field `startsAt` must be an int64.", err.Error())
	assert.False(t, errs.IsTransient(err))
}

func TestTypesenseSearch(t *testing.T) {
	ts := newTestTypesense(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/events/documents/search", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("q"))
		assert.Equal(t, "name", r.URL.Query().Get("query_by"))
		assert.Equal(t, "startsAt:asc", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "country:=DE", r.URL.Query().Get("filter_by"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"found":45,"page":1,"hits":[{"document":{"id":"a","name":"Folsom","type":"PARTY","startsAt":1,"endsAt":2,"country":"DE","region":"","city":"Berlin","vibe":[],"amenities":[]}}]}`))
	})

	result, err := ts.Search(context.Background(), "events", &Query{Country: "DE", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 45, result.Found)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "Folsom", result.Documents[0].Name)
	assert.Equal(t, "Berlin", result.Documents[0].City)
}

func TestTypesenseErrors(t *testing.T) {
	status := http.StatusNotFound
	ts := newTestTypesense(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"oops"}`))
	})
	ctx := context.Background()

	_, err := ts.GetCollection(ctx, "events")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, ts.DropCollection(ctx, "events"))
	assert.NoError(t, ts.DeleteAlias(ctx, "events"))
	_, err = ts.GetAlias(ctx, "events")
	assert.True(t, errors.Is(err, ErrNotFound))

	status = http.StatusServiceUnavailable
	_, err = ts.Search(ctx, "events", &Query{Page: 1, Limit: 1})
	assert.True(t, errs.IsTransient(err))
	assert.EqualError(t, err, "search server responded 503: oops")

	status = http.StatusBadRequest
	err = ts.CreateCollection(ctx, EventsSchema("events"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.False(t, errs.IsTransient(err))
}

func TestTypesenseUnreachable(t *testing.T) {
	ts := NewTypesense(modules.SearchConfig{Host: "127.0.0.1", Port: 1, Protocol: "http", Timeout: 1})
	err := ts.Health(context.Background())
	assert.True(t, errs.IsTransient(err))
}

func TestTypesenseCollectionsAndAliases(t *testing.T) {
	ts := newTestTypesense(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /health":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "POST /collections":
			var schema CollectionSchema
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&schema))
			assert.Equal(t, "events_1", schema.Name)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		case "GET /collections/events_1":
			_, _ = w.Write([]byte(`{"name":"events_1","num_documents":7,"created_at":1}`))
		case "PUT /aliases/events":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "events_1", body["collection_name"])
			_, _ = w.Write([]byte(`{"name":"events","collection_name":"events_1"}`))
		case "GET /aliases/events":
			_, _ = w.Write([]byte(`{"name":"events","collection_name":"events_1"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	assert.NoError(t, ts.Health(ctx))
	assert.NoError(t, ts.CreateCollection(ctx, EventsSchema("events_1")))
	info, err := ts.GetCollection(ctx, "events_1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, info.NumDocuments)
	assert.NoError(t, ts.UpsertAlias(ctx, "events", "events_1"))
	name, err := ts.GetAlias(ctx, "events")
	assert.NoError(t, err)
	assert.Equal(t, "events_1", name)
}

func TestMemoryEngine(t *testing.T) {
	ctx := context.Background()
	engine := NewMemoryEngine()
	require.NoError(t, engine.CreateCollection(ctx, EventsSchema("events_1")))
	assert.Error(t, engine.CreateCollection(ctx, EventsSchema("events_1")))
	require.NoError(t, engine.UpsertAlias(ctx, "events", "events_1"))

	docs := []*Document{
		{ID: "c", Name: "Folsom Europe", Type: "PARTY", Country: "DE", StartsAt: 3},
		{ID: "a", Name: "Bear Week", Type: "WEEK", Country: "ES", StartsAt: 1},
		{ID: "b", Name: "Bear Run", Type: "RUN", Country: "DE", StartsAt: 2},
	}
	require.NoError(t, engine.Import(ctx, "events", docs))
	assert.Equal(t, []string{"a", "b", "c"}, engine.IDs("events"))

	result, err := engine.Search(ctx, "events", &Query{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.Found)
	assert.Len(t, result.Documents, 2)
	assert.Equal(t, "a", result.Documents[0].ID)

	result, err = engine.Search(ctx, "events", &Query{Q: "bear", Country: "DE", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Found)
	assert.Equal(t, "b", result.Documents[0].ID)

	result, err = engine.Search(ctx, "events", &Query{Types: []string{"PARTY", "WEEK"}, Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Found)
	assert.Equal(t, "c", result.Documents[0].ID)

	result, err = engine.Search(ctx, "events", &Query{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)

	info, err := engine.GetCollection(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "events_1", info.Name)
	assert.EqualValues(t, 3, info.NumDocuments)

	_, err = engine.Search(ctx, "missing", &Query{Page: 1, Limit: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
