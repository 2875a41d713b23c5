package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/status"
	"github.com/eventatlas/eventatlas/status/health"
	"github.com/eventatlas/eventatlas/test/fakes"
	"github.com/eventatlas/eventatlas/test/mocks"
	"github.com/eventatlas/eventatlas/worker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type invalidations struct {
	codes []string
}

func (i *invalidations) Invalidate(code string) {
	i.codes = append(i.codes, code)
}

// documents returns n documents, even ones in DE and odd ones in ES,
// types cycling RUN, WEEK, PARTY
func documents(n int) []*search.Document {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	types := []string{"RUN", "WEEK", "PARTY"}
	docs := make([]*search.Document, 0, n)
	for i := 0; i < n; i++ {
		country := "DE"
		if i%2 == 1 {
			country = "ES"
		}
		starts := base.AddDate(0, 0, i)
		docs = append(docs, &search.Document{
			ID:        fmt.Sprintf("%040d", i),
			Name:      fmt.Sprintf("Event %d", i),
			Type:      types[i%3],
			StartsAt:  starts.UnixMilli(),
			EndsAt:    starts.Add(24 * time.Hour).UnixMilli(),
			Country:   country,
			Vibe:      []string{},
			Amenities: []string{},
		})
	}
	return docs
}

func do(h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var v map[string]interface{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())
	return v
}

func fields(rec *httptest.ResponseRecorder) map[string]interface{} {
	body := decode(rec)
	Expect(body["message"]).To(Equal(MsgValidation))
	e := body["error"].(map[string]interface{})
	Expect(e["message"]).To(Equal("request validation"))
	return e["fields"].(map[string]interface{})
}

var _ = Describe("API", func() {
	var (
		ctx         = context.Background()
		ctrl        *gomock.Controller
		engine      *search.MemoryEngine
		sources     *fakes.SourceStore
		queue       *mocks.MockTaskQueue
		invalidated *invalidations
		handler     http.Handler
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		engine = search.NewMemoryEngine()
		Expect(engine.CreateCollection(ctx, search.EventsSchema("events"))).To(Succeed())
		Expect(engine.Import(ctx, "events", documents(45))).To(Succeed())
		sources = fakes.NewSourceStore(&entities.Source{Code: "manual", Name: "Manual"})
		queue = mocks.NewMockTaskQueue(ctrl)
		invalidated = &invalidations{}

		handler = NewAPI(Options{
			Collection:  "events",
			MaxBodySize: 4096,
			Engine:      engine,
			Sources:     sources,
			Invalidator: invalidated,
			Queue:       queue,
			Reporter: status.NewReporter(status.ReporterOptions{
				Indicators: []*health.Indicator{
					{Name: "database", Check: func(ctx context.Context) error { return nil }},
				},
				Queue: queue,
			}),
		}).Handler()
	})

	Context("GET /events", func() {
		get := func(query string) (*httptest.ResponseRecorder, *SearchResponse) {
			rec := do(handler, "GET", "/events"+query, "")
			if rec.Code != 200 {
				return rec, nil
			}
			var resp SearchResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			return rec, &resp
		}

		It("applies default paging", func() {
			rec, resp := get("")
			Expect(rec.Code).To(Equal(200))
			Expect(resp.Events).To(HaveLen(20))
			Expect(resp.Pagination).To(Equal(PageInfo{Page: 1, Limit: 20, Total: 45, TotalPages: 3}))
			Expect(resp.Events[0].Name).To(Equal("Event 0"))
			Expect(resp.Events[19].Name).To(Equal("Event 19"))
		})

		It("returns the last partial page", func() {
			_, resp := get("?page=3")
			Expect(resp.Events).To(HaveLen(5))
			Expect(resp.Events[0].Name).To(Equal("Event 40"))
			Expect(resp.Pagination.TotalPages).To(Equal(int64(3)))
		})

		It("returns an empty page beyond the end", func() {
			_, resp := get("?page=4")
			Expect(resp.Events).To(BeEmpty())
			Expect(resp.Pagination.Total).To(Equal(int64(45)))
		})

		It("filters by country", func() {
			_, resp := get("?country=DE&limit=100")
			Expect(resp.Events).To(HaveLen(23))
			for _, e := range resp.Events {
				Expect(e.Country).To(Equal("DE"))
			}
		})

		It("filters by comma separated and repeated types", func() {
			_, resp := get("?type=RUN,WEEK&limit=100")
			Expect(resp.Pagination.Total).To(Equal(int64(30)))

			_, resp = get("?type=RUN&type=PARTY&limit=100")
			Expect(resp.Pagination.Total).To(Equal(int64(30)))
			for _, e := range resp.Events {
				Expect(e.Type).To(BeElementOf("RUN", "PARTY"))
			}
		})

		It("matches free text over names", func() {
			_, resp := get("?q=event%204")
			Expect(resp.Pagination.Total).To(Equal(int64(6)))
		})

		It("combines filters", func() {
			_, resp := get("?country=ES&type=WEEK&limit=100")
			for _, e := range resp.Events {
				Expect(e.Country).To(Equal("ES"))
				Expect(e.Type).To(Equal("WEEK"))
			}
			// odd i with i%3==1
			Expect(resp.Pagination.Total).To(Equal(int64(8)))
		})

		It("accepts the limit boundary", func() {
			rec, resp := get("?limit=100")
			Expect(rec.Code).To(Equal(200))
			Expect(resp.Events).To(HaveLen(45))
			Expect(resp.Pagination.TotalPages).To(Equal(int64(1)))
		})

		DescribeTable("rejects invalid parameters",
			func(query string, field string, message string) {
				rec, _ := get(query)
				Expect(rec.Code).To(Equal(400))
				Expect(fields(rec)).To(HaveKeyWithValue(field, message))
			},
			Entry("lowercase country", "?country=de", "country", "invalid country code: de"),
			Entry("three letter country", "?country=DEU", "country", "invalid country code: DEU"),
			Entry("numeric country", "?country=276", "country", "invalid country code: 276"),
			Entry("limit above 100", "?limit=101", "limit", "value must be <= 100"),
			Entry("limit zero", "?limit=0", "limit", "value must be >= 1"),
			Entry("page zero", "?page=0", "page", "value must be >= 1"),
			Entry("unknown type", "?type=RUN,FOO", "type", "[1] invalid value: FOO"),
		)

		It("accepts any two letter uppercase country", func() {
			rec, resp := get("?country=ZZ")
			Expect(rec.Code).To(Equal(200))
			Expect(resp.Events).To(BeEmpty())
			Expect(resp.Pagination.Total).To(Equal(int64(0)))
		})

		It("rejects non numeric paging", func() {
			rec, _ := get("?page=abc")
			Expect(rec.Code).To(Equal(400))
			Expect(fields(rec)).To(HaveKey("page"))
		})

		It("responds 502 when the index is unavailable", func() {
			Expect(engine.DropCollection(ctx, "events")).To(Succeed())
			rec, _ := get("")
			Expect(rec.Code).To(Equal(502))
			Expect(decode(rec)).To(Equal(map[string]interface{}{"message": MsgSearchFailed}))
		})
	})

	Context("POST /sources/{code}/events", func() {
		It("enqueues one ingest task per payload", func() {
			var added []*taskqueue.TaskMessage
			queue.EXPECT().Add(gomock.Any(), gomock.Len(2)).DoAndReturn(
				func(ctx context.Context, tasks []*taskqueue.TaskMessage) error {
					added = tasks
					return nil
				})

			rec := do(handler, "POST", "/sources/manual/events", `[{"name":"A"},{"name":"B"}]`)
			Expect(rec.Code).To(Equal(202))

			var resp IngestResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Tasks).To(Equal([]string{added[0].ID, added[1].ID}))

			Expect(added[0].Kind).To(Equal(taskqueue.TaskKindIngest))
			data := added[1].Data.(*worker.IngestData)
			Expect(data.SourceCode).To(Equal("manual"))
			Expect(string(data.RawPayload)).To(Equal(`{"name":"B"}`))
		})

		It("accepts a single object", func() {
			queue.EXPECT().Add(gomock.Any(), gomock.Len(1)).Return(nil)
			rec := do(handler, "POST", "/sources/manual/events", `{"name":"A"}`)
			Expect(rec.Code).To(Equal(202))
		})

		It("responds 404 for an unknown source", func() {
			rec := do(handler, "POST", "/sources/nope/events", `{"name":"A"}`)
			Expect(rec.Code).To(Equal(404))
			Expect(decode(rec)["message"]).To(Equal(MsgSourceNotFound))
		})

		It("rejects malformed bodies", func() {
			rec := do(handler, "POST", "/sources/manual/events", `{"name":`)
			Expect(rec.Code).To(Equal(400))
			Expect(fields(rec)).To(HaveKeyWithValue("$", "invalid json"))

			rec = do(handler, "POST", "/sources/manual/events", `[]`)
			Expect(rec.Code).To(Equal(400))
			Expect(fields(rec)).To(HaveKeyWithValue("$", "no events"))
		})

		It("rejects bodies over the size limit", func() {
			body := `{"name":"` + strings.Repeat("x", 5000) + `"}`
			rec := do(handler, "POST", "/sources/manual/events", body)
			Expect(rec.Code).To(Equal(413))
		})

		It("responds 500 when the queue is unavailable", func() {
			queue.EXPECT().Add(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			rec := do(handler, "POST", "/sources/manual/events", `{"name":"A"}`)
			Expect(rec.Code).To(Equal(500))
			Expect(decode(rec)).To(Equal(map[string]interface{}{"message": MsgInternalError}))
		})
	})

	Context("sources", func() {
		It("creates then replaces a source", func() {
			rec := do(handler, "PUT", "/sources/partner", `{"name":"Partner Feed","url":"https://partner.example.com/feed.json"}`)
			Expect(rec.Code).To(Equal(201))
			Expect(decode(rec)["code"]).To(Equal("partner"))

			rec = do(handler, "PUT", "/sources/partner", `{"name":"Partner"}`)
			Expect(rec.Code).To(Equal(200))

			src, err := sources.Get(ctx, "partner")
			Expect(err).To(BeNil())
			Expect(src.Name).To(Equal("Partner"))
			Expect(src.URL).To(BeNil())
			Expect(invalidated.codes).To(Equal([]string{"partner", "partner"}))
		})

		It("uses the code from the path", func() {
			rec := do(handler, "PUT", "/sources/partner", `{"code":"other","name":"Partner"}`)
			Expect(rec.Code).To(Equal(201))
			src, _ := sources.Get(ctx, "other")
			Expect(src).To(BeNil())
		})

		It("validates the source", func() {
			rec := do(handler, "PUT", "/sources/partner", `{"url":"not a url"}`)
			Expect(rec.Code).To(Equal(400))
			f := fields(rec)
			Expect(f).To(HaveKeyWithValue("name", "required field missing"))
			Expect(f).To(HaveKey("url"))
			Expect(invalidated.codes).To(BeEmpty())
		})

		It("lists and gets sources", func() {
			do(handler, "PUT", "/sources/partner", `{"name":"Partner"}`)

			rec := do(handler, "GET", "/sources", "")
			Expect(rec.Code).To(Equal(200))
			body := decode(rec)
			Expect(body["total"]).To(BeNumerically("==", 2))
			data := body["data"].([]interface{})
			Expect(data[0].(map[string]interface{})["code"]).To(Equal("manual"))

			rec = do(handler, "GET", "/sources/partner", "")
			Expect(rec.Code).To(Equal(200))
			rec = do(handler, "GET", "/sources/nope", "")
			Expect(rec.Code).To(Equal(404))
		})

		It("rejects an unknown sort column", func() {
			rec := do(handler, "GET", "/sources?sort=-secret", "")
			Expect(rec.Code).To(Equal(400))
			Expect(fields(rec)).To(HaveKeyWithValue("sort", "invalid sort column: secret"))
		})
	})

	Context("GET /status", func() {
		It("reports queue depth", func() {
			queue.EXPECT().Size(gomock.Any()).Return(int64(3), nil)
			queue.EXPECT().DeadLetterSize(gomock.Any()).Return(int64(1), nil)

			rec := do(handler, "GET", "/status", "")
			Expect(rec.Code).To(Equal(200))
			var report status.Report
			Expect(json.Unmarshal(rec.Body.Bytes(), &report)).To(Succeed())
			Expect(report.Status).To(Equal(health.StatusUp))
			Expect(report.Queue).To(Equal(&status.QueueStats{Size: 3, DeadLetters: 1}))
		})

		It("responds 503 when the queue is unreachable", func() {
			queue.EXPECT().Size(gomock.Any()).Return(int64(0), errors.New("connection refused"))
			rec := do(handler, "GET", "/status", "")
			Expect(rec.Code).To(Equal(503))
		})
	})

	It("responds 404 for unknown routes", func() {
		rec := do(handler, "GET", "/nope", "")
		Expect(rec.Code).To(Equal(404))
		Expect(decode(rec)["message"]).To(Equal(MsgNotFound))
	})

	It("serves the index", func() {
		rec := do(handler, "GET", "/", "")
		Expect(rec.Code).To(Equal(200))
		Expect(decode(rec)).To(HaveKey("version"))
	})
})
