package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/chainorders/upwood-sub002/client/pkg/config"
	corelog "github.com/chainorders/upwood-sub002/internal/core/infrastructure/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

// metricsModule metrics.listen 非空时在命令执行期间暴露 /metrics
func metricsModule() fx.Option {
	return fx.Module("metrics",
		fx.Invoke(registerMetricsServer),
	)
}

func registerMetricsServer(lc fx.Lifecycle, cfg *config.Config, logger logInterface.Logger) {
	if cfg.Metrics.Listen == "" {
		return
	}
	log := corelog.NewModuleLogger(logger, "metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen metrics: %w", err)
			}
			log.Infof("metrics listening on %s", ln.Addr())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("metrics server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
