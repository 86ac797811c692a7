/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package main is the entry point for rucat-server, the HTTP control
// plane: it loads a ServerConfig, wires up a store.Store, and serves
// internal/httpapi until terminated. Grounded on
// cmd/agent/main.go's flag + zap.Options + ctrl.SetupSignalHandler
// shape, with the controller-runtime manager replaced by a plain
// net/http.Server since this process runs no reconciler of its own.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rucat.dev/rucat/internal/auth"
	"rucat.dev/rucat/internal/config"
	"rucat.dev/rucat/internal/httpapi"
	"rucat.dev/rucat/internal/logging"
	"rucat.dev/rucat/internal/store"
	"rucat.dev/rucat/internal/store/etcdstore"
	"rucat.dev/rucat/internal/store/memstore"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "/etc/rucat/server.json", "path to the server JSON config file")

	var logOpts logging.Options
	logOpts.BindFlags(flag.CommandLine)
	flag.Parse()

	log := logging.Must(logOpts)
	defer log.Sync() //nolint:errcheck

	if err := run(configPath, log); err != nil {
		log.Error("rucat-server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(configPath string, log *zap.Logger) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, closeStore, err := newStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("constructing store: %w", err)
	}
	defer closeStore()

	opts := httpapi.Options{AuthEnable: cfg.AuthEnable}
	if cfg.AuthEnable {
		opts.Authenticator = auth.NewStaticAuthenticator(cfg.StaticUsers)
	}
	router := httpapi.NewRouter(s, opts, log)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("rucat-server listening", zap.String("addr", cfg.ListenAddr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newStore constructs the configured store.Store backend and returns a
// cleanup func the caller must defer, matching etcdstore.Store's Close
// method (memstore has nothing to close).
func newStore(dbCfg config.DatabaseConfig) (store.Store, func(), error) {
	switch dbCfg.Variant {
	case config.DatabaseVariantEmbedded:
		return memstore.New(), func() {}, nil
	case config.DatabaseVariantEtcd:
		opts := etcdstore.Options{Endpoints: dbCfg.Endpoints}
		if dbCfg.Credentials != nil {
			opts.Credentials = *dbCfg.Credentials
		}
		s, err := etcdstore.Dial(opts)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database variant %q", dbCfg.Variant)
	}
}
