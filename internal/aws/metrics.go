package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricEmitter publishes custom metrics to CloudWatch under one namespace.
type MetricEmitter struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetricEmitter returns an emitter for namespace.
func NewMetricEmitter(cw CloudWatchAPI, namespace string) *MetricEmitter {
	return &MetricEmitter{CloudWatch: cw, Namespace: namespace, nowFunc: time.Now}
}

// Metric is a single datum.
type Metric struct {
	Name  string
	Value float64
	Unit  cwtypes.StandardUnit
}

// Emit sends all metrics in one PutMetricData call, each tagged with dims.
func (e *MetricEmitter) Emit(ctx context.Context, dims map[string]string, metrics ...Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dimensions := make([]cwtypes.Dimension, 0, len(keys))
	for _, k := range keys {
		dimensions = append(dimensions, cwtypes.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dims[k])})
	}

	now := e.nowFunc()
	data := make([]cwtypes.MetricDatum, 0, len(metrics))
	for _, m := range metrics {
		unit := m.Unit
		if unit == "" {
			unit = cwtypes.StandardUnitCount
		}
		data = append(data, cwtypes.MetricDatum{
			MetricName: sdkaws.String(m.Name),
			Value:      sdkaws.Float64(m.Value),
			Unit:       unit,
			Timestamp:  sdkaws.Time(now),
			Dimensions: dimensions,
		})
	}

	_, err := e.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(e.Namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
