// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/stevedore/cmd/stevedore/config"
	"github.com/AleutianAI/stevedore/pkg/ux"
	"github.com/AleutianAI/stevedore/server"
	"github.com/AleutianAI/stevedore/telemetry"
	"github.com/spf13/cobra"
)

// runServe is the CLI handler for the "stevedore serve" command.
//
// It starts the HTTP solve API and blocks until the process receives
// SIGINT or SIGTERM, then drains in-flight requests before exiting.
//
// # Exit Codes
//
//   - 0: Server shut down cleanly
//   - 2: Error (bad configuration, bind failure)
func runServe(cmd *cobra.Command, args []string) {
	logger := newRunLogger()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Global.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    "stevedore",
			ServiceVersion: version,
			Environment:    config.Global.Telemetry.Environment,
			TraceExporter:  config.Global.Telemetry.TraceExporter,
			MetricExporter: config.Global.Telemetry.MetricExporter,
			OTLPEndpoint:   config.Global.Telemetry.OTLPEndpoint,
			OTLPInsecure:   true,
			SampleRate:     config.Global.Telemetry.SampleRate,
			AllowDegraded:  true,
		})
		if err != nil {
			ux.Error(fmt.Sprintf("Telemetry init failed: %v", err))
			os.Exit(CLIExitError)
		}
		defer func() {
			// A fresh context: ctx is already canceled by the time the
			// server has drained.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	cfg := server.Config{
		Addr:            config.Global.Server.Addr,
		GinMode:         config.Global.Server.GinMode,
		SolveTimeout:    config.Global.Server.SolveTimeout.Std(),
		MaxNodes:        config.Global.Server.MaxNodes,
		RateLimit:       config.Global.Server.RateLimit,
		RateBurst:       config.Global.Server.RateBurst,
		ShutdownTimeout: config.Global.Server.ShutdownTimeout.Std(),
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}

	srv, err := server.New(cfg, server.WithLogger(logger.Slog()))
	if err != nil {
		ux.Error(fmt.Sprintf("Server setup failed: %v", err))
		os.Exit(CLIExitError)
	}

	ux.Info(fmt.Sprintf("Serving on %s (Ctrl-C to stop)", cfg.Addr))
	logger.Info("server starting", "addr", cfg.Addr, "gin_mode", cfg.GinMode)

	if err := srv.Run(ctx); err != nil {
		ux.Error(fmt.Sprintf("Server failed: %v", err))
		os.Exit(CLIExitError)
	}
	logger.Info("server stopped")
}

// runVersion is the CLI handler for the "stevedore version" command.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("stevedore %s\n", version)
}
