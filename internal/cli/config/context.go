package config

import (
	"context"
	"log/slog"
)

type configCtxKey struct{}
type loggerCtxKey struct{}

// IntoContext stores the loaded configuration and logger for subcommands.
func IntoContext(ctx context.Context, cfg *Config, log *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configCtxKey{}, cfg)
	return context.WithValue(ctx, loggerCtxKey{}, log)
}

// FromContext retrieves the configuration stored by the root command.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configCtxKey{}).(*Config); ok {
		return c
	}
	return nil
}

// LoggerFromContext retrieves the logger stored by the root command.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
