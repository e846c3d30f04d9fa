package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"EAABsbCS1iHgBAKZC", "EAA***KZC"},
		{"  IGQVJtoken123  ", "IGQ***123"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.in); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggerMasksSecretAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.Info("token stored", "access_token", "EAABsbCS1iHgBAKZC", "platform", "facebook")

	out := buf.String()
	if strings.Contains(out, "EAABsbCS1iHgBAKZC") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, `"access_token":"EAA***KZC"`) || !strings.Contains(out, `"platform":"facebook"`) {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("WARNING") != slog.LevelWarn || ParseLevel("bogus") != slog.LevelInfo || ParseLevel("debug") != slog.LevelDebug {
		t.Error("ParseLevel mapping is off")
	}
}
