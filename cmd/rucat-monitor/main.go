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

// Package main is the entry point for rucat-monitor, the
// reconciliation loop: it loads a MonitorConfig, wires a store.Store to
// a Kubernetes-backed resource.Manager, and runs internal/monitor until
// terminated. Grounded on cmd/agent/main.go's flag + zap.Options +
// ctrl.SetupSignalHandler shape, with controller-runtime's manager
// replaced directly by internal/monitor.Monitor.Run.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/record"

	corev1 "k8s.io/api/core/v1"

	"rucat.dev/rucat/internal/config"
	"rucat.dev/rucat/internal/logging"
	"rucat.dev/rucat/internal/monitor"
	"rucat.dev/rucat/internal/resource/k8s"
	"rucat.dev/rucat/internal/store"
	"rucat.dev/rucat/internal/store/etcdstore"
	"rucat.dev/rucat/internal/store/memstore"
)

func main() {
	var configPath string
	var kubeconfigPath string
	var namespace string
	var metricsAddr string
	flag.StringVar(&configPath, "config", "/etc/rucat/monitor.json", "path to the monitor JSON config file")
	flag.StringVar(&kubeconfigPath, "kubeconfig", "", "path to a kubeconfig file; empty uses in-cluster config")
	flag.StringVar(&namespace, "namespace", "default", "namespace engines' Spark resources are created in")
	flag.StringVar(&metricsAddr, "metrics-addr", ":8081", "address the Prometheus /metrics endpoint listens on")

	var logOpts logging.Options
	logOpts.BindFlags(flag.CommandLine)
	flag.Parse()

	log := logging.Must(logOpts)
	defer log.Sync() //nolint:errcheck

	if err := run(configPath, kubeconfigPath, namespace, metricsAddr, log); err != nil {
		log.Error("rucat-monitor exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(configPath, kubeconfigPath, namespace, metricsAddr string, log *zap.Logger) error {
	cfg, err := config.LoadMonitorConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, closeStore, err := newStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("constructing store: %w", err)
	}
	defer closeStore()

	clientset, err := newClientset(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("constructing kubernetes client: %w", err)
	}
	manager := k8s.New(clientset, namespace)
	events := monitor.NewEventRecorder(newEventRecorder(clientset, namespace), namespace)

	monitorCfg := monitor.Config{
		CheckInterval:  time.Duration(cfg.CheckIntervalSecs) * time.Second,
		TriggerTimeout: time.Duration(cfg.TriggerStateTimeoutSecs) * time.Second,
	}
	m := monitor.New(s, manager, monitorCfg, log, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSrv := newMetricsServer(metricsAddr)
	go func() {
		log.Info("monitor metrics listening", zap.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer metricsSrv.Close() //nolint:errcheck

	log.Info("rucat-monitor starting",
		zap.Duration("check_interval", monitorCfg.CheckInterval),
		zap.Duration("trigger_timeout", monitorCfg.TriggerTimeout))
	m.Run(ctx)
	log.Info("rucat-monitor stopped")
	return nil
}

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

// newClientset builds a Kubernetes clientset from an explicit
// kubeconfig path if given, falling back to in-cluster config the way
// cmd/agent/main.go's ctrl.GetConfigOrDie does inside a pod.
func newClientset(kubeconfigPath string) (kubernetes.Interface, error) {
	var restCfg *rest.Config
	var err error
	if kubeconfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	} else {
		restCfg, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(restCfg)
}

// newEventRecorder wires a client-go event broadcaster against the
// cluster's core/v1 Events API, the same construction
// mgr.GetEventRecorderFor hides behind controller-runtime's manager.
func newEventRecorder(clientset kubernetes.Interface, namespace string) record.EventRecorder {
	broadcaster := record.NewBroadcaster()
	broadcaster.StartRecordingToSink(&record.EventSinkImpl{
		Interface: clientset.CoreV1().Events(namespace),
	})
	return broadcaster.NewRecorder(scheme.Scheme, corev1.EventSource{Component: "rucat-monitor"})
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(monitor.Registry, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
