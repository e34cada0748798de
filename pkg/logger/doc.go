// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers that keep key names consistent across the
// feature flag services.
//
// New picks the concrete handler from the configured Format: JSON records via
// slog.NewJSONHandler, or human-readable records via github.com/lmittmann/tint.
// Registered ContextExtractor callbacks run on every record, so request-scoped
// values end up in the output without being passed explicitly.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "featured"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "percentage updated",
//		logger.Feature("checkout"),
//		logger.Percentage(0.25),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
