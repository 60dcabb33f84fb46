package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. A nil logger means slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Peripheral != "" {
		attrs = append(attrs, slog.String("peripheral", event.Peripheral))
	}
	if event.Generation != 0 {
		attrs = append(attrs, slog.Uint64("gen", event.Generation))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs, slog.Int("frame_size", event.Frame.Size))
		if event.Frame.MsgType != "" {
			attrs = append(attrs, slog.String("msg_type", event.Frame.MsgType))
		}
	case event.Operation != nil:
		attrs = append(attrs, slog.String("op", event.Operation.Op.String()))
		if event.Operation.Characteristic != "" {
			attrs = append(attrs, slog.String("char", event.Operation.Characteristic))
		}
		if event.Operation.Size > 0 {
			attrs = append(attrs, slog.Int("size", event.Operation.Size))
		}
		if event.Operation.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Operation.Detail))
		}
		if event.Operation.Failed {
			attrs = append(attrs, slog.Bool("failed", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Outcome != nil:
		attrs = append(attrs,
			slog.String("result", event.Outcome.Result),
			slog.Duration("duration", event.Outcome.Duration),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
