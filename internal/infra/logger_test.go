package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"api-key-service/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.input); got != tc.want {
			t.Errorf("ParseLevel(%q): want %v, got %v", tc.input, tc.want, got)
		}
	}
}

func TestTraceHandler_AddsTraceAttrs(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{OtelEnabled: true, GoogleCloudProject: "test-project"}
	handler := NewTraceHandler(slog.NewJSONHandler(&buf, nil), cfg)
	logger := slog.New(handler)

	// 有効なスパンコンテキストを持つcontextを作る
	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "request handled")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode log record: %v", err)
	}
	if record["trace"] != traceID.String() {
		t.Errorf("want trace %s, got %v", traceID, record["trace"])
	}
	if record["spanId"] != spanID.String() {
		t.Errorf("want spanId %s, got %v", spanID, record["spanId"])
	}
	if record["logging.googleapis.com/trace"] != "projects/test-project/traces/"+traceID.String() {
		t.Errorf("want cloud logging trace field, got %v", record["logging.googleapis.com/trace"])
	}
}

func TestTraceHandler_NoSpanContext(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{OtelEnabled: true}
	handler := NewTraceHandler(slog.NewJSONHandler(&buf, nil), cfg)
	logger := slog.New(handler)

	// スパンがない場合はトレース属性を付与しない
	logger.InfoContext(context.Background(), "startup")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode log record: %v", err)
	}
	if _, ok := record["trace"]; ok {
		t.Errorf("want no trace attr, got %v", record["trace"])
	}
}
