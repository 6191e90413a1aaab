package services

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "micro-missions/services"

// gatewayMetrics counts submissions by outcome and coins credited. Without a
// configured MeterProvider the global no-op provider swallows everything.
type gatewayMetrics struct {
	submissions metric.Int64Counter
	coins       metric.Int64Counter
}

func newGatewayMetrics() *gatewayMetrics {
	meter := otel.Meter(meterName)

	submissions, err := meter.Int64Counter("missions.submissions",
		metric.WithDescription("Mission completion submissions by outcome"))
	if err != nil {
		log.Printf("[Metrics] failed to create submissions counter: %v", err)
	}
	coins, err := meter.Int64Counter("missions.coins_credited",
		metric.WithDescription("Coins credited to wallets"),
		metric.WithUnit("{coin}"))
	if err != nil {
		log.Printf("[Metrics] failed to create coins counter: %v", err)
	}
	return &gatewayMetrics{submissions: submissions, coins: coins}
}

func (m *gatewayMetrics) recordSubmission(ctx context.Context, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *gatewayMetrics) recordCoins(ctx context.Context, amount int64, source string) {
	if m == nil || m.coins == nil || amount <= 0 {
		return
	}
	m.coins.Add(ctx, amount, metric.WithAttributes(attribute.String("source", source)))
}
