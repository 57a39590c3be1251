package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snowfield/config"
	"snowfield/server"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Console = true
	}
	return cfg, nil
}

func serveCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Serve.Addr != "" {
		cfg.Server.Addr = CLI.Serve.Addr
	}
	if err := server.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer server.SyncLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetrics(reg)

	var events server.EventSink = server.NopEvents{}
	if cfg.Events.NATSURL != "" {
		nats, err := server.NewNATSEvents(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return err
		}
		events = nats
		server.Log.Infof("publishing events to %s on %s.*", cfg.Events.NATSURL, cfg.Events.Subject)
	}

	relay := server.NewRelay(cfg, metrics, events)

	mux := http.NewServeMux()
	mux.HandleFunc("/connect", relay.HandleConnect)
	mux.HandleFunc("/admin/config", relay.HandleAdminConfig)
	mux.HandleFunc("/admin/sessions", relay.HandleAdminSessions)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		server.Log.Infof("snowfield relay listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		server.Log.Errorf("listen: %v", err)
		return err
	}

	server.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(ctx)
	if rerr := relay.Shutdown(ctx); rerr != nil {
		server.Log.Warnf("relay shutdown: %v", rerr)
	}
	return err
}
