package api

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/utils"
	"go.uber.org/zap"
)

// Server is the public HTTP server of the query and ingestion API
type Server struct {
	cfg *modules.APIConfig
	s   *http.Server
	log *zap.SugaredLogger
}

func NewServer(cfg modules.APIConfig, handler http.Handler) *Server {
	s := &http.Server{
		Handler: handler,
		Addr:    string(cfg.Listen),

		ReadTimeout:  utils.Seconds(cfg.TimeoutRead),
		WriteTimeout: utils.Seconds(cfg.TimeoutWrite),
	}

	return &Server{
		cfg: &cfg,
		s:   s,
		log: zap.S().Named("api"),
	}
}

func (s *Server) Name() string {
	return "api"
}

// Start starts an HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", string(s.cfg.Listen))
	if err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}
	go func() {
		if err := s.s.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("api server stopped: %v", err)
		}
	}()
	s.log.Infof(`listening on address "%s"`, s.cfg.Listen)
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}
