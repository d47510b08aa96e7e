package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_Format(t *testing.T) {
	cases := []struct {
		format string
		tty    bool
		json   bool
	}{
		{"json", true, true},
		{"text", false, false},
		{"auto", true, false},
		{"auto", false, true},
		{"", false, true},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		newLogger(&buf, tc.tty, slog.LevelInfo, tc.format).Info("hello", "k", 1)
		isJSON := strings.HasPrefix(buf.String(), "{")
		if isJSON != tc.json {
			t.Errorf("format=%q tty=%v: got %q", tc.format, tc.tty, buf.String())
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false, slog.LevelWarn, "json")
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level")
	}
	l.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn not logged")
	}
}
