// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/lazarus"
	"github.com/blinklabs-io/lazarus/internal/config"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// Options control a single recovery run
type Options struct {
	TrimIncomplete bool
	ValidateOnly   bool
}

func newNode(
	cfg *config.Config,
	logger *slog.Logger,
	opts Options,
) (*lazarus.Node, error) {
	committee, err := cfg.Committee()
	if err != nil {
		return nil, err
	}
	validate := cfg.ValidateStates
	if opts.ValidateOnly {
		validate = true
	}
	return lazarus.New(
		lazarus.NewConfig(
			lazarus.WithLogger(logger),
			lazarus.WithDatabasePath(cfg.DatabasePath),
			lazarus.WithBlobPlugin(cfg.BlobPlugin),
			lazarus.WithMetadataPlugin(cfg.MetadataPlugin),
			lazarus.WithColdStorePlugin(cfg.ColdStorePlugin),
			lazarus.WithNodeRole(recovery.NodeRole(cfg.NodeRole)),
			lazarus.WithEpochSize(cfg.EpochSize),
			lazarus.WithRetentionEpochs(cfg.RetentionEpochs),
			lazarus.WithInitialCommittee(committee),
			// Validation never deletes persisted blocks
			lazarus.WithTrimIncomplete(
				(cfg.TrimIncomplete || opts.TrimIncomplete) &&
					!opts.ValidateOnly,
			),
			lazarus.WithValidateStates(validate),
			lazarus.WithResyncOnFailure(
				cfg.ResyncOnFailure && !opts.ValidateOnly,
			),
			lazarus.WithTracing(cfg.Tracing),
			lazarus.WithTracingStdout(cfg.TracingStdout),
			// Enable metrics with default prometheus registry
			lazarus.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
}

// Run recovers the node state from the configured stores. When a metrics
// port is configured, metrics stay available until an interrupt is received
func Run(cfg *config.Config, logger *slog.Logger, opts Options) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	n, err := newNode(cfg, logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	var metricsServer *http.Server
	metricsErrChan := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		// Metrics and debug listener
		http.Handle("/metrics", promhttp.Handler())
		logger.Info(
			"serving prometheus metrics on "+fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErrChan <- fmt.Errorf(
					"failed to start metrics listener: %w",
					err,
				)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	//nolint:contextcheck
	if err := n.Recover(signalCtx); err != nil {
		logger.Error("recovery failed", "error", err)
		return err
	}
	logger.Info("recovery complete", "component", "node")

	if metricsServer == nil {
		return nil
	}
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		return nil
	case err := <-metricsErrChan:
		logger.Error("metrics server error", "error", err)
		return err
	}
}

// Clean wipes every persisted record in the configured stores
func Clean(cfg *config.Config, logger *slog.Logger) error {
	n, err := newNode(cfg, logger, Options{})
	if err != nil {
		return err
	}
	if err := n.CleanAll(); err != nil {
		_ = n.Close()
		return err
	}
	return n.Close()
}
