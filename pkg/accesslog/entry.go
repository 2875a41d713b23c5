package accesslog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eventatlas/eventatlas/utils"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Entry describes a served request
type Entry struct {
	RequestID string
	ClientIP  string
	Method    string
	Route     string
	Path      string
	Query     string
	Proto     string
	UserAgent string
	Referer   string
	Status    int
	Size      int
	Latency   time.Duration
}

func NewEntry(r *http.Request) *Entry {
	return &Entry{
		ClientIP:  clientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Proto:     r.Proto,
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	}
}

func (m *Entry) MarshalZerologObject(e *zerolog.Event) {
	e.Str("request_id", m.RequestID).
		Str("client_ip", m.ClientIP).
		Str("method", m.Method).
		Str("route", m.Route).
		Str("path", m.Path).
		Str("query", m.Query).
		Str("proto", m.Proto).
		Int("status", m.Status).
		Int("size", m.Size).
		Int64("latency_ms", m.Latency.Milliseconds()).
		Str("user_agent", m.UserAgent).
		Str("referer", m.Referer)

	if sc := trace.SpanContextFromContext(e.GetCtx()); sc.IsValid() {
		e.Str("trace_id", sc.TraceID().String())
	}
}

func (m *Entry) String() string {
	return m.format(false)
}

func (m *Entry) format(colored bool) string {
	target := m.Path
	if m.Query != "" {
		target += "?" + m.Query
	}
	return fmt.Sprintf(`%s "%s %s %s" %s %d %dms "%s" "%s" %s`,
		m.ClientIP,
		m.Method,
		target,
		m.Proto,
		utils.Colorize(m.Status, utils.StatusColor(m.Status), colored),
		m.Size,
		m.Latency.Milliseconds(),
		utils.DefaultIfZero(m.Referer, "-"),
		utils.DefaultIfZero(m.UserAgent, "-"),
		utils.DefaultIfZero(m.RequestID, "-"),
	)
}
