package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Serve runs the main listener on listenAddr and, if prometheusAddr is
// non-empty, a second listener exposing /metrics - mirroring cl.httpd's
// B10E_CLHTTPD_PROMETHEUS_PORT pattern of a separate metrics port that
// only comes up when configured. It blocks until ctx is cancelled, then
// shuts both servers down gracefully.
func (s *Server) Serve(ctx context.Context, listenAddr, prometheusAddr string) error {
	main := &http.Server{
		Addr:    listenAddr,
		Handler: s.NewRouter(),
	}

	var metrics *http.Server
	if prometheusAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metrics = &http.Server{Addr: prometheusAddr, Handler: mux}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.Log.Error("prometheus listener failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("listening", zap.String("addr", listenAddr))
		if err := main.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metrics != nil {
			_ = metrics.Shutdown(shutdownCtx)
		}
		return main.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
