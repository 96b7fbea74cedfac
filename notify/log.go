package notify

import (
	"context"
	"log/slog"
)

// Log is the fallback dispatcher used when no brokers are configured;
// events end up in the service log and nowhere else.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, ownerRef int64, message string) {
	l.log.Info("sweep notification", "owner", ownerRef, "message", message)
}
