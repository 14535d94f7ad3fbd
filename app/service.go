// Package app wires the allocation engine to its collaborators: route
// master, movement store, metric sinks, event listeners and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/dockyard/api/docks"
	"github.com/kilianp07/dockyard/config"
	"github.com/kilianp07/dockyard/core/dock"
	"github.com/kilianp07/dockyard/core/dock/logging"
	coremetrics "github.com/kilianp07/dockyard/core/metrics"
	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/core/routes"
	"github.com/kilianp07/dockyard/infra/logger"
	"github.com/kilianp07/dockyard/infra/metrics"
	"github.com/kilianp07/dockyard/infra/mqtt"
	"github.com/kilianp07/dockyard/internal/eventbus"
)

// Service orchestrates the dock manager, the HTTP surface and the
// rebalance timer.
type Service struct {
	Manager *dock.Manager
	bus     *eventbus.TypedBus[model.Snapshot]
	store   logging.Store
	mqttPub *mqtt.StatusPublisher
	srv     *http.Server
	log     logger.Logger
	cfg     *config.Config
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	table, err := routes.Load(cfg.Routes.Path)
	if err != nil {
		return nil, fmt.Errorf("route master: %w", err)
	}
	logg.Infof("route master loaded: %d sources", table.Len())

	manager, err := dock.NewManager(cfg.Dock, table, logger.New("dock-manager"))
	if err != nil {
		return nil, fmt.Errorf("dock manager: %w", err)
	}

	bus := eventbus.New[model.Snapshot](0)
	manager.SetEventBus(bus)

	var store logging.Store
	switch cfg.Persistence.Backend {
	case "sqlite":
		store, err = logging.NewSQLiteStore(cfg.Persistence.Path)
	default:
		store, err = logging.NewJSONLStore(cfg.Persistence.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("movement store: %w", err)
	}
	manager.SetStore(store)

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	if len(sinks) == 1 {
		manager.SetSink(sinks[0])
	} else if len(sinks) > 1 {
		manager.SetSink(metrics.NewMultiSink(sinks...))
	}

	var mqttPub *mqtt.StatusPublisher
	if cfg.MQTT.Enabled {
		mqttPub, err = mqtt.NewStatusPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	mux := http.NewServeMux()
	docks.New(manager, logger.New("api")).Register(mux)
	mux.Handle("/ws", docks.NewStreamHandler(manager, bus, logger.New("ws")))

	return &Service{
		Manager: manager,
		bus:     bus,
		store:   store,
		mqttPub: mqttPub,
		srv:     &http.Server{Addr: cfg.HTTP.Addr, Handler: mux},
		log:     logg,
		cfg:     cfg,
	}, nil
}

// Run starts the service and blocks until the context is cancelled or the
// HTTP server fails.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.mqttPub != nil {
		go s.mqttPub.Run(ctx, s.bus.Subscribe())
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.mqttPub != nil {
		s.mqttPub.Close()
	}
	if err := s.Manager.Close(); err != nil {
		return err
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
