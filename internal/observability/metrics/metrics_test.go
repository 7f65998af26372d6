package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("owner_type", "users"),
		attribute.String("owner_id", "456"),
		attribute.String("result", "ok"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "owner_id" {
			t.Fatalf("expected owner_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSubscribe(context.Background(), "users", "ok")
	m.RecordCancel(context.Background(), "users")
	m.RecordEntitlementCheck(context.Background(), "feature_exists", "true")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordSubscribe(context.Background(), "users", "ok")
	m.RecordCatalogSync(context.Background(), "ok")
}
