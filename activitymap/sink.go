package activitymap

import (
	"context"

	auth "github.com/goliatone/go-blogauth"
)

// LogSink writes every event as a Record through logger. Guard and
// ownership rejections are logged at warn level, the rest at info.
type LogSink struct {
	logger auth.Logger
}

var _ auth.ActivitySink = (*LogSink)(nil)

// NewLogSink returns a sink logging through logger
func NewLogSink(logger auth.Logger) *LogSink {
	if logger == nil {
		logger = auth.NewZapLogger(nil)
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r := Normalize(event)
	args := []any{
		"verb", r.Verb,
		"channel", r.Channel,
		"actor_id", r.ActorID,
		"object_type", r.ObjectType,
		"object_id", r.ObjectID,
		"metadata", r.Metadata,
		"occurred_at", r.OccurredAt,
	}

	switch r.Channel {
	case ChannelGuard, ChannelOwnership:
		s.logger.Warn("activity", args...)
	default:
		s.logger.Info("activity", args...)
	}
	return nil
}
