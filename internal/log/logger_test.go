package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "": slog.LevelInfo,
		"warn": slog.LevelWarn, "warning": slog.LevelWarn, "error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})
	l.Debug("hidden")
	l.Info("recorded", FieldUser, "ana")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug should be filtered")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, ComponentLedger, rec["component"])
	assert.Equal(t, "ana", rec["user"])
	assert.Equal(t, "recorded", rec["msg"])
}

func TestStructuredLoggerHTTPLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	r := httptest.NewRequest("GET", "/api/users/ana/summary?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, 503, 12, "1.2.3.4")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, float64(503), rec[FieldStatusCode])
	assert.Equal(t, false, rec[FieldSuccess])
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().WithUser("ana").WithMovement("m1", "expense", "Salud", 150).WithError(errors.New("boom"), ErrorTypeStorage)
	assert.Equal(t, "ana", f[FieldUser])
	assert.Equal(t, int64(150), f[FieldAmountCents])
	assert.Equal(t, ErrorTypeStorage, f[FieldErrorType])
	assert.Len(t, f.ToSlice(), 2*len(f), "ToSlice should flatten key/value pairs")

	assert.Empty(t, NewFields().WithError(nil, ErrorTypeStorage), "nil error should add nothing")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	ctx := WithContext(context.Background(), want)
	got := FromContext(ctx)
	assert.Same(t, want, got)
	assert.Equal(t, ComponentHTTP, got.Component())

	got.Info("through context")
	assert.Contains(t, buf.String(), "through context")
}
