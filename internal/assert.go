package internal

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Assertf panics through the context logger if the invariant does not hold.
func Assertf(
	ctx context.Context,
	mustBeTrue bool,
	format string,
	args ...any,
) {
	if mustBeTrue {
		return
	}
	logger.Panicf(ctx, "invariant violated: "+format, args...)
}
