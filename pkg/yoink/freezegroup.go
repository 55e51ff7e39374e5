package yoink

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FreezeGroup de-duplicates concurrent Freeze calls for the same root,
// using golang.org/x/sync/singleflight to coalesce the thundering herd that
// shows up when many callers ask for a frozen snapshot of the same hot root
// at once, each of which would otherwise repeat a full graph walk.
//
// The zero value is ready to use; a FreezeGroup is safe for concurrent use
// by multiple goroutines.
type FreezeGroup struct {
	g      singleflight.Group
	Logger *zap.Logger
}

// Freeze runs Freeze(root, nil), sharing the walk and resulting buffer
// among any concurrent callers requesting a snapshot of the same root.
// shared reports whether the result was handed to more than one caller;
// it is true for the caller that ran the walk as well as for those that
// joined it.
func (fg *FreezeGroup) Freeze(root Ptr) (frozen *Frozen, shared bool, err error) {
	key := fmt.Sprintf("%x", uintptr(root))
	v, shared, err := fg.g.Do(key, func() (any, error) {
		return Freeze(root, nil)
	})
	if err != nil {
		return nil, shared, err
	}
	logger := fg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if shared {
		logger.Debug("freeze: coalesced concurrent request", zap.String("root", key))
	}
	return v.(*Frozen), shared, nil
}
