package internal

import (
	"context"
	"runtime"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// SetFinalizerClose closes obj when it becomes unreachable without being
// closed explicitly; that is always a leak on the caller side, so it is
// reported as a warning.
func SetFinalizerClose[T interface{ Close() error }](
	ctx context.Context,
	obj T,
) {
	runtime.SetFinalizer(obj, func(obj T) {
		logger.Warnf(ctx, "%T was not closed explicitly, closing it in the finalizer", obj)
		if err := obj.Close(); err != nil {
			logger.Errorf(ctx, "unable to close %T: %v", obj, err)
		}
	})
}

// UnsetFinalizer is called once obj is closed explicitly.
func UnsetFinalizer[T any](obj T) {
	runtime.SetFinalizer(obj, nil)
}
