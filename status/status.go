package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/pkg/accesslog"
	"go.uber.org/zap"
)

// Server serves health, readiness and runtime state to operators
type Server struct {
	listen modules.Listen
	debug  bool
	s      *http.Server
	log    *zap.SugaredLogger
}

type Options struct {
	AccessLog accesslog.AccessLogger
	Reporter  *Reporter
	Tracing   bool
}

func NewServer(cfg modules.StatusConfig, opts Options) *Server {
	api := &API{
		startedAt:      time.Now(),
		debugEndpoints: cfg.DebugEndpoints,
		tracing:        opts.Tracing,
		accessLogger:   opts.AccessLog,
		reporter:       opts.Reporter,
	}
	return &Server{
		listen: cfg.Listen,
		debug:  cfg.DebugEndpoints,
		s: &http.Server{
			Handler:           api.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// pprof profiles stream for up to 30s by default
			WriteTimeout: 60 * time.Second,
		},
		log: zap.S().Named("status"),
	}
}

func (s *Server) Name() string {
	return "status"
}

func (s *Server) Handler() http.Handler {
	return s.s.Handler
}

// Start binds the listener before returning so address errors surface to the caller
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", string(s.listen))
	if err != nil {
		return fmt.Errorf("failed to start status server: %w", err)
	}
	go func() {
		if err := s.s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("status server stopped: %v", err)
		}
	}()

	s.log.Infow("listening", "address", s.listen.URL())
	if s.debug {
		s.log.Infow("serving debug endpoints", "pprof", s.listen.URL()+"/debug/pprof/")
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}
