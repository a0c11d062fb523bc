package main

import "github.com/imrishuroy/go-catalog-orders/internal/orders"

// WorkerMessage is the payload the api publishes to SQS after an order insert.
type WorkerMessage = orders.OrderCreatedEvent

// eventTypeAttribute is the SQS message attribute naming the event.
const eventTypeAttribute = "event_type"

// CloudWatch metric names emitted per audited order.
const (
	metricResolvedItems      = "ResolvedItems"
	metricDanglingReferences = "DanglingReferences"
	metricOrderTotal         = "OrderTotal"
)
