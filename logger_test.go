package agglo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogger_LogDepth(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, nil)).WithRun("run-1")

	l.LogDepth(context.Background(), DepthReport{
		Depth:       2,
		FeatureName: "phone",
		NewLeaves:   12,
		Survivors:   7,
		SelectTime:  time.Millisecond,
	})
	out := buf.String()
	require.Contains(t, out, "run=run-1")
	require.Contains(t, out, "depth=2")
	require.Contains(t, out, "feature=phone")
	require.Contains(t, out, "survivors=7")
}

func TestLogger_LogStop(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, nil))

	l.LogStop(context.Background(), StopFeaturesExhausted, 3, 40, nil)
	require.Contains(t, buf.String(), "reason=features_exhausted")
	require.Contains(t, buf.String(), "leaves=40")

	buf.Reset()
	l.LogStop(context.Background(), StopLeafGrowth, 1, 0, errors.New("broken"))
	require.Contains(t, buf.String(), "level=ERROR")
	require.Contains(t, buf.String(), "error=broken")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	require.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogStop(context.Background(), StopLeafGrowth, 0, 0, nil)
}

func TestNewLogger_DefaultHandler(t *testing.T) {
	l := NewLogger(nil)
	require.True(t, l.Enabled(context.Background(), slog.LevelInfo))
	require.False(t, l.Enabled(context.Background(), slog.LevelDebug))
}
