// Package net carries request scoped ids between transport middleware and handlers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"

	"unievents/internal/platform/logger"
)

type ctxKey uint8

const keyUserID ctxKey = iota

// WithRequest stores the request id where chi and the logger both find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// WithUser stores the authenticated user id
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, keyUserID, userID)
	return logger.WithUser(ctx, userID)
}

// RequestID returns the request id, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// UserID returns the authenticated user id, if any
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserID).(string)
	return v
}
