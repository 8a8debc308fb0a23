// Package log provides the structured logger used across the module.
//
// Logger is implemented by ZapLogger (zap backed, console/logfmt/json), NoopLogger and
// SpanLogger, which mirrors entries onto an OpenTelemetry span. Loggers travel on
// contexts via SetContextLogger and FromContext.
//
// Values logged under sensitive keys ("wif", "secret", "password", "private_key", ...)
// are replaced with Redacted before they reach any sink.
//
//	lg := log.NewZapLogger(log.Config{Format: "json", Level: log.LevelInfo})
//	ctx = log.SetContextLogger(ctx, lg.WithName("txbuilder"))
//	log.FromContext(ctx).Info("transaction signed", "txid", id)
//
// Config reads LOG_FORMAT, LOG_LEVEL and LOG_OUTPUT through cleanenv tags.
package log
