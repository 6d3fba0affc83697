// internal/health/sinks/log.go
// Log sink simply prints health rule transitions to the gateway's structured
// logger. It is handy in development or small setups where Slack/email is
// overkill. The sink is non-blocking and incurs effectively zero overhead.
package sinks

import (
	"github.com/tracepath/tracepath/internal/logging"
	"go.uber.org/zap"
)

// LogSink satisfies health.Sink.
// No configuration needed; the global zap.Logger is used.
type LogSink struct{}

// NewLogSink returns a new LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

// Notify logs the rule name and message at WARN level.
func (s *LogSink) Notify(ruleName, msg string) {
    logging.Logger().Warn("health rule transition", zap.String("rule", ruleName), zap.String("msg", msg))
}
