package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(format logFormat) (*slog.Logger, *queueWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	w := newQueueWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{level: slog.LevelDebug, writer: w, format: format})
	return slog.New(h), w, buf
}

func drain(t *testing.T, w *queueWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVLineOrder(t *testing.T) {
	log, w, buf := newTestLogger(formatKV)
	ctx := WithUpdateMeta(WithRID(Background(), "rid-1"), 42, 7, 9)

	LogEvent(ctx, log.With("component", "service.sale"), slog.LevelInfo, "listing.sold",
		slog.Int64("listing_id", 17),
		slog.String("status", "OK"),
		slog.String("zeta", "last"),
	)
	line := drain(t, w, buf)

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=service.sale", "event=listing.sold", "status=ok", "rid=rid-1", "update_id=42", "user_id=7", "chat_id=9", "listing_id=17", "zeta=last"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %d, want %d: %s", len(tokens), len(want), line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineCompactsRID(t *testing.T) {
	log, w, buf := newTestLogger(formatJSON)
	ctx := WithRID(Background(), "12:34:56")

	LogEvent(ctx, log, slog.LevelWarn, "effect.failed", slog.String("effect", "edit_caption"), Err(errString("boom")))
	line := drain(t, w, buf)

	for _, part := range []string{`"level":"WARN"`, `"component":"app"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"effect":"edit_caption"`, `"err":"boom"`} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %s in %s", part, line)
		}
	}
	if strings.Index(line, `"event"`) > strings.Index(line, `"effect"`) {
		t.Fatalf("event must precede effect: %s", line)
	}
}

func TestGroupsAndDurations(t *testing.T) {
	log, w, buf := newTestLogger(formatKV)
	log.WithGroup("db").Info("query", "took", 1500000, slog.Duration("wait", 2500000))
	line := drain(t, w, buf)
	if !strings.Contains(line, "db.took=1500000") || !strings.Contains(line, "db.wait_ms=3") {
		t.Fatalf("unexpected line: %s", line)
	}
	if !strings.Contains(line, "event=query") {
		t.Fatalf("message should become event: %s", line)
	}
}

func TestKVQuotesSpaces(t *testing.T) {
	log, w, buf := newTestLogger(formatKV)
	log.Info("x", "model", "Chevrolet Cobalt")
	line := drain(t, w, buf)
	if !strings.Contains(line, `model="Chevrolet Cobalt"`) {
		t.Fatalf("expected quoted value: %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:37"); got != "z.10.11" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	if num, den := parseRatioSpec("50"); num != 1 || den != 50 {
		t.Fatalf("parseRatioSpec = %d/%d", num, den)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00c\u200bdé", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
