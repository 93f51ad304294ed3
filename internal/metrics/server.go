package metrics

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/prom2json"

	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/logging"
)

// Server exposes a registry over HTTP.
type Server struct {
	server *http.Server
	mux    *http.ServeMux
	reg    *prometheus.Registry
	addr   string
	logger *logging.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer returns a metrics server for reg listening on addr. Go runtime
// and build info collectors are added to reg.
func NewServer(addr string, reg *prometheus.Registry, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	mux := http.NewServeMux()
	s := &Server{
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		mux:    mux,
		reg:    reg,
		addr:   addr,
		logger: logger.WithComponent("metrics"),
	}
	registerRuntime(reg)
	s.registerHandlers()
	return s
}

// registerRuntime adds the Go runtime and build info collectors, tolerating
// a registry that already has them.
func registerRuntime(reg *prometheus.Registry) {
	for _, c := range []prometheus.Collector{
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll),
		),
	} {
		var are prometheus.AlreadyRegisteredError
		if err := reg.Register(c); err != nil && !errors.As(err, &are) {
			panic(err)
		}
	}
}

func (s *Server) registerHandlers() {
	s.mux.Handle("/metrics", promhttp.HandlerFor(
		s.reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Timeout:           10 * time.Second,
		},
	))
	s.mux.Handle("/metrics/json", http.HandlerFunc(s.serveJSON))
}

func (s *Server) serveJSON(w http.ResponseWriter, _ *http.Request) {
	g := prometheus.ToTransactionalGatherer(s.reg)
	mfs, done, err := g.Gather()
	defer done()
	if err != nil {
		msg := "could not gather metrics"
		s.logger.Warn(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}
	result := make([]*prom2json.Family, 0, len(mfs))
	for _, mf := range mfs {
		result = append(result, prom2json.NewFamily(mf))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("could not encode metrics", "error", err)
	}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("metrics server listening", "addr", listener.Addr().String())
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down within one second.
func (s *Server) Stop() error {
	s.mu.Lock()
	started := s.listener != nil
	s.mu.Unlock()
	if !started {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Run starts the server and stops it when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}
