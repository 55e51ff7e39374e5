package yoink

import "go.uber.org/zap"

// Option configures a FreezeGroup, following the same functional-options
// pattern used elsewhere in this module for constructing configurable
// components.
type Option func(*FreezeGroup)

// WithLogger sets the *zap.Logger a FreezeGroup uses to report slow or
// coalesced events. Nothing on the hot allocation/yoink path ever logs;
// this is consulted only by FreezeGroup.Freeze's coalescing notice.
func WithLogger(logger *zap.Logger) Option {
	return func(fg *FreezeGroup) { fg.Logger = logger }
}

// NewFreezeGroup builds a *FreezeGroup with the given options applied.
func NewFreezeGroup(opts ...Option) *FreezeGroup {
	fg := &FreezeGroup{}
	for _, opt := range opts {
		opt(fg)
	}
	return fg
}
