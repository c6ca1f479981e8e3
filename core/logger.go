package core

import "context"

// Logger reports app events. args may hold errors, extra data maps and the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// RateLimiter decides whether the caller identified by key may do one more request in the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
