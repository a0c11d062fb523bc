package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/aws"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
)

// ErrOrderNotFound means the event names an order the store does not hold.
var ErrOrderNotFound = errors.New("order not found")

type orderFinder interface {
	FindByID(ctx context.Context, id string) (*orders.Order, error)
}

type resolver interface {
	Resolve(ctx context.Context, o orders.Order) (orders.Resolution, error)
}

type emitter interface {
	Emit(ctx context.Context, dims map[string]string, metrics ...aws.Metric) error
}

// Processor audits created orders: it joins each one against the catalog and
// reports how many of its lines already point at missing products.
type Processor struct {
	orders   orderFinder
	resolver resolver
	metrics  emitter
	dims     map[string]string
	logger   *log.Entry
}

// NewProcessor wires the processor. metrics may be nil to only log.
func NewProcessor(store orderFinder, r resolver, metrics emitter, env string, logger *log.Entry) *Processor {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Processor{
		orders:   store,
		resolver: r,
		metrics:  metrics,
		dims:     map[string]string{"Environment": env},
		logger:   logger.WithField("component", "order-audit"),
	}
}

// Handle processes a batch and reports failed messages individually, so only
// those are redelivered (and eventually dead-lettered) by SQS.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	p.logger.WithField("records", len(ev.Records)).Debug("received SQS batch")

	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.WithError(err).WithField("message_id", rec.MessageId).Error("failed to process message")
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	if attr, ok := rec.MessageAttributes[eventTypeAttribute]; ok && attr.StringValue != nil && *attr.StringValue != orders.EventOrderCreated {
		p.logger.WithField("event_type", *attr.StringValue).Info("ignoring unrelated event")
		return nil
	}

	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}
	entry := p.logger.WithFields(log.Fields{"order_id": msg.OrderID, "user_id": msg.UserID})

	order, err := p.orders.FindByID(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, msg.OrderID)
	}

	res, err := p.resolver.Resolve(ctx, *order)
	if err != nil {
		return fmt.Errorf("failed to resolve order: %w", err)
	}

	entry = entry.WithFields(log.Fields{
		"resolved": len(res.Order.Items),
		"dangling": len(res.Dangling),
		"total":    res.Order.Total,
	})
	if len(res.Dangling) > 0 {
		entry.WithField("dangling_ids", res.Dangling).Warn("order references missing products")
	} else {
		entry.Info("order audited")
	}

	if p.metrics == nil {
		return nil
	}
	err = p.metrics.Emit(ctx, p.dims,
		aws.Metric{Name: metricResolvedItems, Value: float64(len(res.Order.Items))},
		aws.Metric{Name: metricDanglingReferences, Value: float64(len(res.Dangling))},
		aws.Metric{Name: metricOrderTotal, Value: res.Order.Total, Unit: cwtypes.StandardUnitNone},
	)
	if err != nil {
		return fmt.Errorf("failed to emit metrics: %w", err)
	}
	return nil
}
