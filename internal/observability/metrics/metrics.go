package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	subscribe    metric.Int64Counter
	cancel       metric.Int64Counter
	entitlement  metric.Int64Counter
	usageRecords metric.Int64Counter
	catalogSyncs metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "entitlements"
	}
	meter := provider.Meter(name)

	subscribe, err := meter.Int64Counter("entitlements_subscribe_total")
	if err != nil {
		return nil, err
	}
	cancel, err := meter.Int64Counter("entitlements_cancel_total")
	if err != nil {
		return nil, err
	}
	entitlement, err := meter.Int64Counter("entitlements_check_total")
	if err != nil {
		return nil, err
	}
	usageRecords, err := meter.Int64Counter("entitlements_usage_records_total")
	if err != nil {
		return nil, err
	}
	catalogSyncs, err := meter.Int64Counter("entitlements_catalog_syncs_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		subscribe:    subscribe,
		cancel:       cancel,
		entitlement:  entitlement,
		usageRecords: usageRecords,
		catalogSyncs: catalogSyncs,
	}, nil
}

// RecordSubscribe counts subscribe attempts by outcome.
func (m *Metrics) RecordSubscribe(ctx context.Context, ownerType, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("owner_type", strings.TrimSpace(ownerType)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.subscribe.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCancel counts cancellations.
func (m *Metrics) RecordCancel(ctx context.Context, ownerType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("owner_type", strings.TrimSpace(ownerType)))
	m.cancel.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEntitlementCheck counts entitlement queries by operation and outcome.
func (m *Metrics) RecordEntitlementCheck(ctx context.Context, op, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("op", strings.TrimSpace(op)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.entitlement.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUsage counts usage counter writes.
func (m *Metrics) RecordUsage(ctx context.Context, op string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("op", strings.TrimSpace(op)))
	m.usageRecords.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCatalogSync counts catalog synchronisations by outcome.
func (m *Metrics) RecordCatalogSync(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.catalogSyncs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"owner_type": {},
	"op":         {},
	"result":     {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
