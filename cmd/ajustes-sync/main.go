// Package main is the entry point for the ajustes-sync command.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/fiscalsync/ajustes-sync/cmd/ajustes-sync/app"
	"github.com/fiscalsync/ajustes-sync/internal/config"
)

// logLevel reads AJUSTES_SYNC_LOG_LEVEL, then LOG_LEVEL. Values are slog
// level names ("debug", "warn", "info+2", ...); "warning" is accepted too.
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	name := v.GetString("LOG_LEVEL")
	if name == "" {
		name = os.Getenv("LOG_LEVEL")
	}
	if name == "" {
		return slog.LevelInfo
	}
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		slog.Warn("Ignoring unknown log level", "value", name)
		return slog.LevelInfo
	}
	return level
}

// spanContextHandler adds the trace and span ids of the active run span to
// each record, so pipeline logs join the exported traces.
type spanContextHandler struct {
	slog.Handler
}

func (h *spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *spanContextHandler) WithGroup(name string) slog.Handler {
	return &spanContextHandler{Handler: h.Handler.WithGroup(name)}
}

func main() {
	// stdout is reserved for the run report and `version`/`report` output,
	// which scripts parse; every log line goes to stderr as JSON.
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})
	slog.SetDefault(slog.New(&spanContextHandler{Handler: jsonHandler}))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
