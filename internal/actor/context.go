package actor

import (
	"context"
	"errors"
)

// Keys for actor values in context
type contextKey string

const (
	adminIDKey   contextKey = "adminID"
	requestIDKey contextKey = "requestID"
)

// ErrNoAdminInContext is returned when no admin ID is found in context
var ErrNoAdminInContext = errors.New("no admin ID found in context")

// WithAdminID adds the acting admin's ID to the context
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// FromContext extracts the acting admin's ID from the context
func FromContext(ctx context.Context) (string, error) {
	adminID, ok := ctx.Value(adminIDKey).(string)
	if !ok || adminID == "" {
		return "", ErrNoAdminInContext
	}
	return adminID, nil
}

// MustFromContext extracts the acting admin's ID from the context or panics
func MustFromContext(ctx context.Context) string {
	adminID, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return adminID
}

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromRequestIDContext extracts the request ID from the context
func FromRequestIDContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}
