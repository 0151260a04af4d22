// Package app wires the configuration into the HTTP service and the
// training workflow.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	auditapi "github.com/MelomanCat/getaround-project/api/audit"
	"github.com/MelomanCat/getaround-project/api/dashboard"
	"github.com/MelomanCat/getaround-project/api/predict"
	"github.com/MelomanCat/getaround-project/config"
	coredataset "github.com/MelomanCat/getaround-project/core/dataset"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	coremon "github.com/MelomanCat/getaround-project/core/monitoring"
	"github.com/MelomanCat/getaround-project/core/registry"
	"github.com/MelomanCat/getaround-project/infra/audit"
	"github.com/MelomanCat/getaround-project/infra/cache"
	"github.com/MelomanCat/getaround-project/infra/dataset"
	"github.com/MelomanCat/getaround-project/infra/logger"
	"github.com/MelomanCat/getaround-project/infra/metrics"
	"github.com/MelomanCat/getaround-project/infra/mqtt"
)

const setupTimeout = 10 * time.Second

// Service serves predictions and dashboard analytics.
type Service struct {
	cfg      *config.Config
	log      logger.Logger
	Snapshot *coredataset.Snapshot
	Registry registry.Registry
	Holder   *ModelHolder

	sink   coremetrics.MetricsSink
	cache  cache.Cache
	audit  audit.Store
	mqtt   *mqtt.PahoClient
	server *http.Server
}

// New loads the datasets and opens every backend. Nothing is served until
// Run is called.
func New(cfg *config.Config) (*Service, error) {
	sink, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, log: logger.New("service"), sink: sink}
	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	cfg := s.cfg
	snap, err := dataset.Load(cfg.Data.RentalsPath, cfg.Data.PricingPath)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	s.Snapshot = snap

	if s.Registry, err = OpenRegistry(cfg.Registry); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if s.cache, err = cache.New(ctx, cfg.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if s.audit, err = audit.Open(cfg.Audit); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}

	s.Holder = NewModelHolder(cfg.Training.ModelName, s.Registry, s.sink, logger.New("model_holder"))
	if s.mqtt, err = ConnectMQTT(cfg.MQTT); err != nil {
		return err
	}
	if s.mqtt != nil {
		if err := s.mqtt.SubscribeModelRegistered(s.Holder.HandleNotification); err != nil {
			return fmt.Errorf("subscribe model notifications: %w", err)
		}
	}

	dash, err := dashboard.New(dashboard.Options{
		Snapshot:   snap,
		Thresholds: cfg.Dashboard.Thresholds,
		Cache:      s.cache,
		TTL:        cfg.Cache.TTL,
		Sink:       s.sink,
		Log:        logger.New("dashboard"),
	})
	if err != nil {
		return err
	}
	router := NewRouter(RouterOptions{
		Predict: predict.NewHandler(predict.Options{
			Predictor: s.Holder,
			Sink:      s.sink,
			Audit:     s.audit,
			MaxBatch:  cfg.API.MaxBatch,
			Log:       logger.New("predict"),
		}),
		Dashboard:      dash,
		Audit:          auditapi.NewHandler(s.audit),
		Metrics:        metrics.Handler(),
		Holder:         s.Holder,
		ModelName:      cfg.Training.ModelName,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Log:            logger.New("http"),
	})
	s.server = &http.Server{
		Addr:              cfg.API.Address,
		Handler:           router,
		ReadTimeout:       cfg.API.ReadTimeout,
		ReadHeaderTimeout: cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
	}
	return nil
}

// Handler returns the API router.
func (s *Service) Handler() http.Handler { return s.server.Handler }

// Run loads the latest model and serves HTTP until ctx is canceled. A
// missing model is not fatal: /predict answers 503 until one is registered.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.Holder.Reload(ctx, SourceStartup); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.log.Warnf("no registered %s model yet, run the train command", s.cfg.Training.ModelName)
		} else {
			s.log.Errorf("initial model load: %v", err)
			coremon.CaptureException(err, map[string]string{"module": "service"})
		}
	}
	if d := s.cfg.API.ModelPollInterval; d > 0 {
		go coremon.Guard(func() { s.Holder.Poll(ctx, d) })
	}
	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.API.ShutdownTimeout)
	defer cancel()
	s.log.Infof("shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.Registry != nil {
		errs = append(errs, s.Registry.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	CloseSink(s.sink)
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
