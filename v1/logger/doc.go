// Package logger provides structured logging built on Uber's zap.
//
// Every package in this module that logs declares its own narrow Logger
// interface with the methods below, so *logger.Logger can be passed in
// directly and tests can substitute a gomock MockLogger.
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/serde/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Info,
//		ServiceName: "orders-producer",
//	})
//
//	log.Info("envelope session opened", nil, map[string]interface{}{
//		"use_headers": true,
//	})
//	log.Warn("duplicate id-handler configuration", nil, nil)
//	log.Error("failed to read envelope", err, nil)
//
// Context-Aware Logging:
//
// The *WithContext methods add trace_id and span_id of the active
// OpenTelemetry span when Config.EnableTracing is set:
//
//	ctx, span := tr.StartSpan(ctx, "publish")
//	defer span.End()
//	log.InfoWithContext(ctx, "published", nil, nil)
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config { return logger.Config{Level: logger.Debug} }),
//	)
//
// Configuration:
//
//	ZAP_LOGGER_LEVEL=debug          # Log level (debug, info, warning, error)
//	LOGGER_SERVICE_NAME=my-service  # value of the "service" field
//	LOGGER_ENABLE_TRACING=true      # add trace ids in *WithContext methods
//
// Thread Safety:
//
// All methods on Logger are safe for concurrent use by multiple goroutines.
package logger
