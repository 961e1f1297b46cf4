package ctxutil

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sourceKey    ctxKey = "source"
)

// Source names the front end a call came through.
type Source string

const (
	SourceREST Source = "rest"
	SourceMCP  Source = "mcp"
	SourceCLI  Source = "cli"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSource records which front end is serving the call.
func WithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, sourceKey, src)
}

// SourceFromCtx returns the stored source and false when none was set.
func SourceFromCtx(ctx context.Context) (Source, bool) {
	src, ok := ctx.Value(sourceKey).(Source)
	if !ok || src == "" {
		return "", false
	}
	return src, true
}
