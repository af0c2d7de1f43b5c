package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "ledger")
	LogEvent(ctx, log, slog.LevelInfo, "record.appended",
		slog.String("status", "ok"),
		slog.Int64("record_id", 3),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=ledger", "event=record.appended", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "record_id=3"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(handler).With("component", "dialogue")
	LogEvent(ctx, log, slog.LevelError, "commit.failed",
		slog.String("status", "FAIL"),
		slog.String("err", "disk full"),
		slog.String("err_code", "STORAGE_IO"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"dialogue"`, `"event":"commit.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"disk full"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	rawRID := "123:456:789"
	ctx := WithRID(Background(), rawRID)
	LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test")
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	ctx := WithRID(Background(), rawRID)
	LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test", slog.String("status", "ok"))
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationsAndFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	log := slog.New(handler)
	log.Debug("dropped")
	log.Info("timed",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("append_duration", 2*time.Second),
		slog.String("outcome", "bogus"),
		slog.String("empty", ""),
	)
	closeWriter(t, aw)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	for _, want := range []string{"event=timed", "duration_ms=2", "append_duration_ms=2000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
	for _, unwanted := range []string{"outcome=", "empty="} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("unexpected %q in %s", unwanted, out)
		}
	}
}

func TestCompactRIDAndSanitize(t *testing.T) {
	if got := CompactRID("36:0:72"); got != "10.0.20" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("a:b:c"); got != "a:b:c" {
		t.Fatalf("CompactRID should keep malformed input, got %q", got)
	}
	if got := SanitizeLimit("ok\x00\u200bline\tend", 64); got != "okline\tend" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("SanitizeLimit rune cut = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("passed = %d, want 3", passed)
	}

	if num, den := parseRatioSpec("2/5"); num != 2 || den != 5 {
		t.Fatalf("parseRatioSpec(2/5) = %d/%d", num, den)
	}
	if num, den := parseRatioSpec("10"); num != 1 || den != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", num, den)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestStatus(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"fail":      errors.New("boom"),
		"cancelled": fmt.Errorf("send: %w", context.Canceled),
	}
	for want, err := range cases {
		if got := Status(err); got != want {
			t.Fatalf("Status(%v) = %q, want %q", err, got, want)
		}
	}
	if got := Status(context.DeadlineExceeded); got != "cancelled" {
		t.Fatalf("Status(deadline) = %q", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	files := []string{"a.up.sql", "b.up.sql", "c.up.sql"}
	if got, omitted := SummarizeStrings(files, 2); got != "a.up.sql, b.up.sql" || omitted != 1 {
		t.Fatalf("SummarizeStrings(2) = %q, %d", got, omitted)
	}
	if got, omitted := SummarizeStrings(files, 6); got != "a.up.sql, b.up.sql, c.up.sql" || omitted != 0 {
		t.Fatalf("SummarizeStrings(6) = %q, %d", got, omitted)
	}
	if got, omitted := SummarizeStrings(files, -1); got != "" || omitted != 3 {
		t.Fatalf("SummarizeStrings(-1) = %q, %d", got, omitted)
	}
	if d := RoundMS(-time.Second); d != 0 {
		t.Fatalf("RoundMS(negative) = %v", d)
	}
}
