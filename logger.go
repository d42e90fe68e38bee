package agglo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with training-specific helpers so every run logs
// the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRun tags every record with the run id.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run", id)}
}

// LogDepth logs the outcome of one completed depth.
func (l *Logger) LogDepth(ctx context.Context, r DepthReport) {
	l.InfoContext(ctx, "depth completed",
		"depth", r.Depth,
		"feature", r.FeatureName,
		"candidate_leaves", r.CandidateLeaves,
		"gi", r.GlobalImpurity,
		"new_leaves", r.NewLeaves,
		"survivors", r.Survivors,
		"merged_gi", r.MergedGlobalImpurity,
		"heldout_distance", r.HeldOut.MeanDistance,
		"select_time", r.SelectTime,
		"merge_time", r.MergeTime,
	)
}

// LogStop logs why training ended.
func (l *Logger) LogStop(ctx context.Context, reason StopReason, depths, leaves int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"depths", depths,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "training finished",
		"reason", reason.String(),
		"depths", depths,
		"leaves", leaves,
	)
}
