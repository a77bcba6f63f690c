package internal

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/xaionaro-go/xsync"
)

// Arena hands out opaque non-zero IDs for owned objects, so that no raw
// pointer crosses the public API. Only the map is guarded; the objects
// themselves are single-owner.
type Arena[ID ~uint64, T any] struct {
	Locker xsync.Mutex
	Items  map[ID]T
	NextID atomic.Uint64
}

func NewArena[ID ~uint64, T any]() *Arena[ID, T] {
	return &Arena[ID, T]{
		Items: make(map[ID]T),
	}
}

func (a *Arena[ID, T]) Add(ctx context.Context, item T) ID {
	return xsync.DoR1(ctx, &a.Locker, func() ID {
		id := ID(a.NextID.Add(1))
		a.Items[id] = item
		return id
	})
}

func (a *Arena[ID, T]) Get(ctx context.Context, id ID) (T, bool) {
	return xsync.DoR2(ctx, &a.Locker, func() (T, bool) {
		item, ok := a.Items[id]
		return item, ok
	})
}

func (a *Arena[ID, T]) Remove(ctx context.Context, id ID) (T, bool) {
	return xsync.DoR2(ctx, &a.Locker, func() (T, bool) {
		item, ok := a.Items[id]
		if ok {
			delete(a.Items, id)
		}
		return item, ok
	})
}

func (a *Arena[ID, T]) Len(ctx context.Context) int {
	return xsync.DoR1(ctx, &a.Locker, func() int {
		return len(a.Items)
	})
}

// Drain removes every item and returns them in the order they were added.
func (a *Arena[ID, T]) Drain(ctx context.Context) []T {
	return xsync.DoR1(ctx, &a.Locker, func() []T {
		ids := make([]ID, 0, len(a.Items))
		for id := range a.Items {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		result := make([]T, 0, len(ids))
		for _, id := range ids {
			result = append(result, a.Items[id])
			delete(a.Items, id)
		}
		return result
	})
}
