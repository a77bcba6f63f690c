package libav

import (
	"context"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// InitLogging forwards FFmpeg's log messages to the logger from ctx at
// the matching level. FFmpeg's fatal and panic messages are logged as
// errors: they must not terminate the process.
func InitLogging(ctx context.Context) {
	l := logger.FromCtx(ctx)
	astiav.SetLogLevel(logLevelToLibav(l.Level()))
	astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, _, msg string) {
		msg = strings.TrimRight(msg, "\n")
		if msg == "" {
			return
		}
		l := l
		if c != nil {
			if class := c.Class(); class != nil {
				l = l.WithField("av_class", class.Name())
			}
		}
		l.Logf(logLevelFromLibav(level), "%s", msg)
	})
}

func logLevelToLibav(level logger.Level) astiav.LogLevel {
	switch level {
	case logger.LevelTrace:
		return astiav.LogLevelTrace
	case logger.LevelDebug:
		return astiav.LogLevelDebug
	case logger.LevelInfo:
		return astiav.LogLevelInfo
	case logger.LevelWarning:
		return astiav.LogLevelWarning
	case logger.LevelError:
		return astiav.LogLevelError
	case logger.LevelPanic:
		return astiav.LogLevelPanic
	case logger.LevelFatal:
		return astiav.LogLevelFatal
	}
	return astiav.LogLevelQuiet
}

func logLevelFromLibav(level astiav.LogLevel) logger.Level {
	switch {
	case level <= astiav.LogLevelError:
		return logger.LevelError
	case level <= astiav.LogLevelWarning:
		return logger.LevelWarning
	case level <= astiav.LogLevelInfo:
		return logger.LevelInfo
	case level <= astiav.LogLevelDebug:
		return logger.LevelDebug
	}
	return logger.LevelTrace
}
