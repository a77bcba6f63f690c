package libav

import (
	"errors"
	"io"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

func TestCodecError(t *testing.T) {
	require.NoError(t, codecError("op", nil))
	require.ErrorIs(t, codecError("op", astiav.ErrEagain), decoder.ErrWouldBlock)
	require.Equal(t, io.EOF, codecError("op", astiav.ErrEof))
	require.ErrorIs(t, codecError("op", astiav.ErrInvaliddata), decoder.ErrMalformed)
	require.ErrorIs(t, codecError("op", astiav.Error(-22)), decoder.ErrInvalidState)

	err := codecError("op", errors.New("boom"))
	require.Error(t, err)
	require.NotErrorIs(t, err, decoder.ErrWouldBlock)
	require.NotErrorIs(t, err, decoder.ErrMalformed)
	require.NotErrorIs(t, err, decoder.ErrInvalidState)
}

func TestLogLevels(t *testing.T) {
	require.Equal(t, logger.LevelError, logLevelFromLibav(astiav.LogLevelPanic))
	require.Equal(t, logger.LevelError, logLevelFromLibav(astiav.LogLevelFatal))
	require.Equal(t, logger.LevelWarning, logLevelFromLibav(astiav.LogLevelWarning))
	require.Equal(t, logger.LevelDebug, logLevelFromLibav(astiav.LogLevelVerbose))
	require.Equal(t, logger.LevelTrace, logLevelFromLibav(astiav.LogLevelTrace))
	require.Equal(t, astiav.LogLevelDebug, logLevelToLibav(logger.LevelDebug))
	require.Equal(t, astiav.LogLevelQuiet, logLevelToLibav(logger.LevelUndefined))
}
