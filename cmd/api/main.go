package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/config"
	"github.com/imrishuroy/go-catalog-orders/internal/datastore"
	"github.com/imrishuroy/go-catalog-orders/internal/handlers"
	"github.com/imrishuroy/go-catalog-orders/internal/health"
	"github.com/imrishuroy/go-catalog-orders/internal/logging"
	"github.com/imrishuroy/go-catalog-orders/internal/metrics"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
)

const version = "1.0.0"

func setupRouter(ctx context.Context, cfg config.Config, stores *datastore.Stores, logger *log.Entry) (*gin.Engine, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orderOpts := []orders.Option{
		orders.WithMaxLimit(cfg.MaxPageLimit),
		orders.WithLookupConcurrency(cfg.LookupConcurrency),
		orders.WithRecorder(metrics.NewEnrichmentMetrics(reg)),
	}
	if cfg.OrdersQueueURL != "" {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return nil, err
		}
		orderOpts = append(orderOpts, orders.WithPublisher(aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)))
	}

	hh := health.NewHandler(version, 0)
	hh.RegisterChecker("store", health.NewPingChecker(stores.Backend, stores.Ping))

	return handlers.NewRouter(handlers.RouterConfig{
		Products:       products.NewService(stores.Products, logger, products.WithMaxLimit(cfg.MaxPageLimit)),
		Orders:         orders.NewService(stores.Orders, stores.Products, logger, orderOpts...),
		Health:         hh,
		Metrics:        metrics.NewHTTPMetrics(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}), nil
}

func main() {
	cfg, warnings, err := config.Load()
	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "catalog-api",
		Env:     cfg.AppEnv,
	})
	for _, w := range warnings {
		logger.Warn(w)
	}
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.WithError(err).Fatal("catalog api stopped")
	}
}

// run owns the store for the lifetime of the process and closes it before
// returning, so main only exits once everything is released.
func run(ctx context.Context, cfg config.Config, logger *log.Entry) error {
	stores, err := datastore.Open(ctx, cfg.StoreURL, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := stores.Close(context.Background()); cerr != nil {
			logger.WithError(cerr).Warn("failed to close store")
		}
	}()

	r, err := setupRouter(ctx, cfg, stores, logger)
	if err != nil {
		return fmt.Errorf("init aws clients: %w", err)
	}

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		return serve(ctx, cfg, r, logger)
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
	return nil
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, h http.Handler, logger *log.Entry) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("running local server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
