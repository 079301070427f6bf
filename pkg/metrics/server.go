package metrics

import (
	"context"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"imgcache/pkg/logger"
)

// Server exposes a Prometheus registry over HTTP on a fasthttp.Server
// with a graceful shutdown path.
type Server struct {
	srv *fasthttp.Server
	log *logger.Logger
	ln  string
}

// NewServer builds an admin server serving /metrics for registry on
// addr. Listening does not start until Start is called.
func NewServer(addr string, registry *prometheus.Registry, log *logger.Logger) *Server {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{
		srv: &fasthttp.Server{Handler: handler},
		log: log,
		ln:  addr,
	}
}

// Start begins serving in the background. Errors after startup are
// logged, matching engine.Run's treatment of ListenAndServe failures.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.ln)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.ln, err)
	}
	s.ln = ln.Addr().String()

	go func() {
		if err := s.srv.Serve(ln); err != nil {
			s.log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	s.log.Info("metrics server listening", zap.String("addr", s.ln))
	return nil
}

// Addr returns the address the server actually bound to, useful when the
// configured address was ":0".
func (s *Server) Addr() string { return s.ln }

// Shutdown stops accepting new connections and waits for in-flight ones
// to finish, mirroring engine.Run's server.Shutdown() call.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.srv.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
