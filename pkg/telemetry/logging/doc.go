// Package logging provides structured logging with credential redaction.
//
// The package wraps log/slog. A Logger is built from Config and exposes the
// usual level methods plus Slog(), which hands components a *slog.Logger
// whose handler:
//   - masks API keys, api-key header values and bearer tokens in the message
//     and in string attributes;
//   - appends batch_id, client_id and record_id when they are present in the
//     context passed to a *Context method.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithBatchID(ctx, batchID)
//	logger.InfoContext(ctx, "batch started", "records", n)
package logging
