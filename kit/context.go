// Package kit carries the small cross-cutting plumbing shared by scrib's
// transports: context keys for request correlation and the MCP tool
// registration helper.
package kit

import "context"

// Endpoint is a transport-agnostic handler: decoded request in, response out.
type Endpoint func(ctx context.Context, request any) (any, error)

type contextKey string

const (
	RequestIDKey contextKey = "kit_request_id"
	TransportKey contextKey = "kit_transport" // "http", "mcp", "cli"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}
