package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// attribute keys whose values are always masked
var secretKeys = map[string]bool{
	"access_token": true,
	"token":        true,
	"code":         true,
	"state":        true,
}

func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if secretKeys[a.Key] && a.Value.Kind() == slog.KindString {
				return slog.String(a.Key, MaskToken(a.Value.String()))
			}
			return a
		},
	})
	return slog.New(h).With("service", "portal-social")
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func MaskToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}
	if len(tok) <= 8 {
		return "***"
	}
	return tok[:3] + "***" + tok[len(tok)-3:]
}
