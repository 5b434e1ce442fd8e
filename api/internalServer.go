package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
)

// InternalServer serves health and metrics on a private port.
type InternalServer struct {
	ctx    context.Context
	logger logging.Logger
	mux    *http.ServeMux
	server *http.Server
	ready  atomic.Bool
}

func NewInternalServer(ctx context.Context, logger logging.Logger, addr string) *InternalServer {
	if addr == "" {
		addr = ":9453"
	}
	server := &InternalServer{
		logger: logger,
		ctx:    ctx,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthCheckup", server.OnQueryHealthCheckup)
	mux.Handle("/metrics", promhttp.Handler())
	server.mux = mux
	server.server = &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 25,
		Handler:      mux,
	}
	return server
}

// SetReady flips the health answer once the service is wired.
func (s *InternalServer) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler exposes the mux.
func (s *InternalServer) Handler() http.Handler {
	return s.mux
}

func (s *InternalServer) OnQueryHealthCheckup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "alive"})
}

func (s *InternalServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *InternalServer) Run() error {
	s.logger.Info("Starting vault internal httpserver on %s", s.server.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-s.ctx.Done():
		s.ready.Store(false)
		s.logger.Info("Internal server receives shutdown signal.")
		return s.Shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("Internal server closed unexpected: %s", err)
		return err
	}
}
