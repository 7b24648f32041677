package common

import "context"

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeyUploadUser contextKey = "upload_user"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithUploadUser records who submitted the screenshot being processed
func WithUploadUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, ContextKeyUploadUser, user)
}

// UploadUserFromContext extracts the uploader name, defaulting to anonymous
func UploadUserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(ContextKeyUploadUser).(string); ok && user != "" {
		return user
	}
	return "anonymous"
}
