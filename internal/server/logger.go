// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// newLogHandler builds the slog handler for cfg. Unknown levels fall back to info.
func newLogHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}
	return tint.NewHandler(w, &tint.Options{Level: level, NoColor: noColor})
}
