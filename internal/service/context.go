// internal/service/context.go
package service

import "context"

type requestIDKey struct{}

// WithRequestID attaches the HTTP request id to ctx so operations can be
// traced back to the request that issued them
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return &id
	}
	return nil
}
