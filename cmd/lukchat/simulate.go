package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/internal/simulation"
	"github.com/nspcc-dev/lukchat/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run a local cluster of nodes",
		Long: `Run simulation.nodes in-process nodes, simulation.miners of them propose
chat message blocks every simulation.interval. All nodes share the
configured store. The run lasts simulation.duration or until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if d := a.cfg.Simulation.Duration; d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			opts := simulation.Options{
				Nodes:    a.cfg.Simulation.Nodes,
				Miners:   a.cfg.Simulation.Miners,
				Interval: a.cfg.Simulation.Interval,
				Job:      a.job,
				Logger:   a.log,
			}

			if a.cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				opts.Metrics = func(name string) lukchat.Metrics {
					return metrics.New(reg, prometheus.Labels{"node": name})
				}

				srv := serveMetrics(a.cfg.Metrics.Address, reg, a.log)
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
			}

			res, err := simulation.Run(ctx, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range res {
				tail, _ := r.Chain.Tail()
				fmt.Fprintf(out, "%-8s %-5s length=%d rejected=%d switches=%d tail=%s\n",
					r.Name, r.Role, r.Chain.Len(), r.Rejected, r.Switches, tail.Hash())
			}

			return nil
		},
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		log.Info("serving metrics", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
