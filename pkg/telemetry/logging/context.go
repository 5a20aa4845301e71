package logging

import "context"

type contextKey string

const (
	// RequestIDKey carries the HTTP request ID.
	RequestIDKey contextKey = "request_id"

	// RuleSetKey carries the rule set being evaluated.
	RuleSetKey contextKey = "rule_set"

	// ChatIDKey carries the chat of the message being evaluated.
	ChatIDKey contextKey = "chat_id"

	// TraceIDKey carries the trace ID for distributed tracing.
	TraceIDKey contextKey = "trace_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRuleSet adds a rule set name to the context.
func WithRuleSet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, RuleSetKey, name)
}

// GetRuleSet retrieves the rule set name from the context.
func GetRuleSet(ctx context.Context) string {
	name, _ := ctx.Value(RuleSetKey).(string)
	return name
}

// WithChatID adds a chat ID to the context.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, ChatIDKey, chatID)
}

// GetChatID retrieves the chat ID from the context.
func GetChatID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ChatIDKey).(int64)
	return id, ok
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

// extractContextFields returns the context values as slog key/value pairs.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if name := GetRuleSet(ctx); name != "" {
		fields = append(fields, "rule_set", name)
	}
	if id, ok := GetChatID(ctx); ok {
		fields = append(fields, "chat_id", id)
	}
	if id := GetTraceID(ctx); id != "" {
		fields = append(fields, "trace_id", id)
	}
	return fields
}
