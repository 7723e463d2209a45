package nakama

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// runtimeCore forwards zap entries to the Nakama server logger so engine
// logs land next to the match handler's own.
type runtimeCore struct {
	zapcore.LevelEnabler
	logger runtime.Logger
	fields []zapcore.Field
}

// newZapLogger wraps a runtime.Logger as a *zap.Logger.
func newZapLogger(l runtime.Logger, level zapcore.Level) *zap.Logger {
	return zap.New(&runtimeCore{LevelEnabler: level, logger: l})
}

func (c *runtimeCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *runtimeCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *runtimeCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	l := c.logger
	if len(enc.Fields) > 0 {
		l = l.WithFields(enc.Fields)
	}
	switch e.Level {
	case zapcore.DebugLevel:
		l.Debug("%s", e.Message)
	case zapcore.InfoLevel:
		l.Info("%s", e.Message)
	case zapcore.WarnLevel:
		l.Warn("%s", e.Message)
	default:
		l.Error("%s", e.Message)
	}
	return nil
}

func (c *runtimeCore) Sync() error { return nil }
