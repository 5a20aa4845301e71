// Package logging provides structured logging for matchgram.
//
// Logger wraps log/slog with JSON or text output, optional file rotation
// through lumberjack, and redaction of message content. With RedactText
// set, any value logged under a text key ("text", "caption", "full_name",
// keys ending in "_text") is replaced by its rune length and a short
// SHA-256 prefix, so operators can correlate verdicts without reading
// users' messages.
//
//	logger, err := logging.New(logging.Config{
//	    Level:      "info",
//	    Format:     "json",
//	    RedactText: true,
//	})
//	logger.Info("rule matched", "rule", "gambling-ads", "text", msg.Text)
//
// Context helpers carry request-scoped fields (request ID, rule set, chat
// ID, trace ID) which the *Context methods and WithContext attach to every
// record.
package logging
