package utils

import "context"

type contextKey string

// Request-scoped context keys set by handlers
const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	AdminIDKey    contextKey = "admin_id"
)

// RequestIDFromContext returns the request ID stored by handlers, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// AdminIDFromContext returns the authenticated admin ID, if any.
func AdminIDFromContext(ctx context.Context) (uint, bool) {
	v, ok := ctx.Value(AdminIDKey).(uint)
	return v, ok && v != 0
}
