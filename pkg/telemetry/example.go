// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ExampleMandatoryUsage demonstrates the mandatory telemetry usage pattern for services in this repo.
// Every service in this repo MUST generate telemetry data through this package.
func ExampleMandatoryUsage() error {
	ctx := context.Background()

	// MANDATORY: Initialize telemetry before generating any data
	// With no exporter option the NoOp exporter type is used and nothing is exported
	shutdown, err := Setup(ctx,
		WithServiceName("example-service"), // REQUIRED: Service identification
		WithServiceVersion("1.0.0"),
		WithMetrics(true), // REQUIRED: At least one signal must be enabled
		WithTraces(true),
		WithLogs(true),
		// No OTLP endpoint - telemetry stays in-process and is not exported
		// WithOTLPHTTP, WithOTLPgRPC or WithDualOTLP would enable export
	)
	if err != nil {
		// Telemetry setup failure should be treated as a critical error
		return fmt.Errorf("CRITICAL: telemetry setup failed - service cannot start: %w", err)
	}
	defer shutdown(ctx)

	// Get logger with automatic telemetry context integration
	logger := GetLogger("example-service")

	// Create metrics on the configured provider
	requestCounter, err := Counter("example-service", "requests_total",
		"Total number of requests", "1")
	if err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	requestDuration, err := Histogram("example-service", "request_duration_seconds",
		"Request duration in seconds", "s")
	if err != nil {
		return fmt.Errorf("failed to create histogram: %w", err)
	}

	// Example service operation with mandatory telemetry generation
	return ExampleServiceOperation(ctx, logger, requestCounter, requestDuration)
}

// ExampleServiceOperation demonstrates a typical service operation with mandatory telemetry.
// This shows the enforced pattern that all services must follow for observability.
func ExampleServiceOperation(ctx context.Context, logger *slog.Logger, counter metric.Int64Counter, histogram metric.Float64Histogram) error {
	// MANDATORY: All operations must be traced - use abstracted span functions
	return WithSpan(ctx, "example-service", "process_request", func(spanCtx context.Context) error {
		start := time.Now()

		// REQUIRED: Add meaningful span attributes for observability
		SetSpanAttributes(spanCtx,
			StringAttr("operation", "process_request"),
			StringAttr("user_id", "user123"),
			StringAttr("service.component", "modem"),
		)

		// MANDATORY: Log with telemetry context (automatic trace/span ID inclusion)
		InfoWithContext(spanCtx, logger, "Processing request",
			slog.String("operation", "process_request"),
			slog.String("user_id", "user123"),
		)

		// REQUIRED: All operations must be metered
		IncrementCounter(spanCtx, counter, 1,
			StringAttr("method", "POST"),
			StringAttr("endpoint", "/api/v1/example"),
			StringAttr("service", "example-service"),
		)

		// Perform business logic with telemetry context
		err := performWork(spanCtx, logger)
		if err != nil {
			// MANDATORY: All errors must be recorded in telemetry
			RecordError(spanCtx, err, "Work failed")
			ErrorWithContext(spanCtx, logger, "Operation failed", err,
				slog.String("operation", "process_request"),
			)
			return err
		}

		// REQUIRED: Set span status for successful operations
		SetSpanStatus(spanCtx, StatusOK(), "Request processed successfully")
		AddSpanEvent(spanCtx, "request_completed",
			StringAttr("result", "success"),
		)

		// MANDATORY: Record operation duration for performance monitoring
		duration := time.Since(start).Seconds()
		RecordDuration(spanCtx, histogram, duration,
			StringAttr("method", "POST"),
			StringAttr("endpoint", "/api/v1/example"),
			StringAttr("status", "success"),
		)

		InfoWithContext(spanCtx, logger, "Request processed successfully",
			slog.Duration("duration", time.Since(start)),
			slog.String("result", "success"),
		)

		return nil
	})
}

// performWork simulates modem-controller work with mandatory telemetry patterns.
func performWork(ctx context.Context, logger *slog.Logger) error {
	// MANDATORY: Create child spans for all sub-operations
	return WithSpan(ctx, "example-service", "perform_work", func(workCtx context.Context) error {
		DebugWithContext(workCtx, logger, "Starting modem work operation",
			slog.String("step", "initialization"),
		)

		// Simulate modem work steps with full telemetry coverage
		for i := 0; i < 3; i++ {
			stepName := fmt.Sprintf("modem_operation_%d", i+1)

			// REQUIRED: Record operation start events
			AddSpanEvent(workCtx, "modem_operation_started",
				StringAttr("step", stepName),
				IntAttr("step_number", i+1),
				StringAttr("component", "modem"),
			)

			// Simulate modem processing time
			time.Sleep(10 * time.Millisecond)

			// REQUIRED: Record operation completion events
			AddSpanEvent(workCtx, "modem_operation_completed",
				StringAttr("step", stepName),
				BoolAttr("success", true),
				IntAttr("duration_ms", 10),
			)

			DebugWithContext(workCtx, logger, "Completed modem operation step",
				slog.String("step", stepName),
				slog.Int("step_number", i+1),
			)
		}

		return nil
	})
}

// ExampleCentralCollectorPattern demonstrates the normal pattern where services
// generate telemetry without configuring an exporter.
func ExampleCentralCollectorPattern() error {
	ctx := context.Background()

	// STANDARD: Services generate telemetry with the default NoOp exporter type
	// Nothing is exported unless an OTLP exporter option is given
	shutdown, err := Setup(ctx,
		WithServiceName("modem-power-service"),
		WithServiceVersion("1.2.0"),
		// No exporter configuration - nothing is exported
	)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer shutdown(ctx)

	// All telemetry data is generated in-process
	logger := GetLogger("modem-power-service")
	InfoWithContext(ctx, logger, "Power service generating telemetry for central collector")

	return nil
}

// ExampleTestingSetup demonstrates telemetry setup for testing scenarios.
func ExampleTestingSetup() error {
	ctx := context.Background()

	// TESTING: Standard setup still works in tests - nothing is exported
	shutdown, err := Setup(ctx,
		WithServiceName("test-service"),
		// Default NoOp exporter type works in tests too
	)
	if err != nil {
		return fmt.Errorf("failed to setup test telemetry: %w", err)
	}
	defer shutdown(ctx)

	logger := GetLogger("test-service")
	InfoWithContext(ctx, logger, "Test service with central collector telemetry")

	return nil
}

// ExampleServiceWithResourceAttributes demonstrates adding modem-specific resource attributes.
// Services should include relevant modem hardware and deployment information.
func ExampleServiceWithResourceAttributes() error {
	ctx := context.Background()

	// RECOMMENDED: Include modem-specific resource attributes for better observability
	shutdown, err := Setup(ctx,
		WithServiceName("production-modem-service"),
		WithServiceVersion("2.0.0"),
		WithResourceAttributes(map[string]string{
			"deployment.environment": "production",
			"service.namespace":      "modemd",
			"modem.hardware.vendor":  "nokia",
			"modem.hardware.model":   "rx-51-baseband",
			"modem.firmware.version": "v50",
			"datacenter.region":      "n/a",
			"datacenter.zone":        "n/a",
			"host.name":              "modem-host-01",
		}),
		// Resource attributes are attached to all generated telemetry
	)
	if err != nil {
		return fmt.Errorf("CRITICAL: telemetry setup failed: %w", err)
	}
	defer shutdown(ctx)

	logger := GetLogger("production-modem-service")
	InfoWithContext(ctx, logger, "Production modem service with resource attributes")

	return nil
}

// ExampleCentralCollectorConfiguration demonstrates how the central telemetry collector
// might be configured differently from regular services. This would typically be done
// in the telemetry service itself, not in regular services in this repo.
func ExampleCentralCollectorConfiguration() error {
	ctx := context.Background()

	// NOTE: This configuration would be used by the telemetry service itself,
	// not by regular services in this repo. Regular services use the standard pattern.

	// OTLP endpoints can be configured when export is needed
	resourceAttrs := map[string]string{
		"service.role":           "telemetry-collector",
		"deployment.environment": "production",
		"service.namespace":      "modemd-infrastructure",
	}

	// The telemetry service itself might use different configuration
	shutdown, err := Setup(ctx,
		WithServiceName("central-telemetry-collector"),
		WithServiceVersion("2.1.0"),
		WithResourceAttributes(resourceAttrs),
		// Defaults to the NoOp exporter type; an OTLP exporter option enables
		// export when debugging or monitoring is needed
	)
	if err != nil {
		return fmt.Errorf("CRITICAL: central collector setup failed: %w", err)
	}
	defer shutdown(ctx)

	logger := GetLogger("central-telemetry-collector")
	InfoWithContext(ctx, logger, "Central telemetry collector initialized")

	return nil
}

// ExampleMiddleware demonstrates mandatory tracing middleware for modem operations.
// All modem operations must be wrapped with telemetry for observability.
func ExampleMiddleware() error {
	ctx := context.Background()

	// MANDATORY: Setup telemetry before wrapping operations
	shutdown, err := Setup(ctx,
		WithServiceName("modem-middleware-service"),
		// No endpoint - the default NoOp exporter type exports nothing
	)
	if err != nil {
		return fmt.Errorf("CRITICAL: telemetry setup failed: %w", err)
	}
	defer shutdown(ctx)

	// REQUIRED: Create tracing middleware for all modem operations
	middleware := TracingMiddleware("modem-middleware-service")

	// MANDATORY: Wrap all modem operations with telemetry
	modemPowerOperation := middleware("modem_power_control", func(ctx context.Context) error {
		// All modem power operations must be traced
		SetSpanAttributes(ctx,
			StringAttr("modem.operation", "power_control"),
			StringAttr("hardware.component", "power_bus"),
		)
		time.Sleep(50 * time.Millisecond) // Simulate modem operation
		return nil
	})

	modemLinkOperation := middleware("modem_link_monitor", func(ctx context.Context) error {
		// Phonet link monitoring operations
		SetSpanAttributes(ctx,
			StringAttr("modem.operation", "link_monitor"),
			StringAttr("hardware.component", "phonet_link"),
		)
		time.Sleep(30 * time.Millisecond) // Simulate modem operation
		return nil
	})

	// Execute traced modem operations
	if err := modemPowerOperation(ctx); err != nil {
		return fmt.Errorf("modem power operation failed: %w", err)
	}

	if err := modemLinkOperation(ctx); err != nil {
		return fmt.Errorf("modem link operation failed: %w", err)
	}

	return nil
}
