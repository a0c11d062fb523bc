package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/config"
	"github.com/imrishuroy/go-catalog-orders/internal/datastore"
	"github.com/imrishuroy/go-catalog-orders/internal/logging"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
)

func main() {
	cfg, warnings, err := config.Load()
	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "catalog-worker",
		Env:     cfg.AppEnv,
	})
	for _, w := range warnings {
		logger.Warn(w)
	}
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Fatal("catalog worker stopped")
	}
}

// errLocalBatchFailed reports a simulated message the processor rejected.
var errLocalBatchFailed = errors.New("local message was not processed")

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

	svc := orders.NewService(stores.Orders, stores.Products, logger,
		orders.WithLookupConcurrency(cfg.LookupConcurrency),
	)

	var metrics emitter
	if !cfg.RunLocal {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return fmt.Errorf("init aws clients: %w", err)
		}
		metrics = aws.NewMetricEmitter(clients.CloudWatch, cfg.MetricsNamespace)
	}
	p := NewProcessor(stores.Orders, svc, metrics, cfg.AppEnv, logger)

	// RUN_LOCAL=true processes one simulated message taken from LOCAL_SQS_BODY.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			return errors.New("LOCAL_SQS_BODY must hold an order.created message when RUN_LOCAL is set")
		}
		resp, _ := p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}})
		if len(resp.BatchItemFailures) > 0 {
			return errLocalBatchFailed
		}
		return nil
	}

	lambda.Start(p.Handle)
	return nil
}
