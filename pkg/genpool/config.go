// Package genpool implements a generational ring of arenas: a fixed number
// of slots that rotate round-robin, each slot owning one *yoink.Arena. When
// a slot is about to be reused, Rotate yoinks every live root still pointed
// at that generation into the incoming one before discarding the outgoing
// arena wholesale — turning "free everything in this generation" into an
// O(live set) operation instead of requiring individual frees.
package genpool

// config.go defines the functional options applied to a Pool: a private
// config struct, defaulted, then mutated by a slice of Option values and
// validated before the Pool is constructed. (pkg/yoink/options.go is
// simpler: its options set FreezeGroup fields directly.)

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Pool at construction time.
type Option func(*config)

type config struct {
	generations  int
	rotateBytes  int64
	rotateMaxAge time.Duration
	registry     *prometheus.Registry
	logger       *zap.Logger
}

func defaultConfig() *config {
	return &config{
		generations:  4,
		rotateBytes:  64 << 20,
		rotateMaxAge: 0, // disabled: byte-budget rotation only by default
		logger:       zap.NewNop(),
	}
}

// WithGenerations sets the number of ring slots. Must be >= 2 so a rotation
// always has somewhere else to yoink live roots into; validated by
// applyOptions, not clamped silently here.
func WithGenerations(n int) Option {
	return func(c *config) { c.generations = n }
}

// WithRotationBytes sets the per-generation byte budget; once the bytes
// reported through AddBytes exceed it, AddBytes returns true (it does not
// rotate by itself). Must be > 0;
// validated by applyOptions, not clamped silently here.
func WithRotationBytes(n int64) Option {
	return func(c *config) { c.rotateBytes = n }
}

// WithRotationMaxAge sets an age-based rotation trigger alongside the byte
// budget; zero (the default) disables age-based rotation.
func WithRotationMaxAge(d time.Duration) Option {
	return func(c *config) { c.rotateMaxAge = d }
}

// WithMetrics enables Prometheus metrics collection for the pool. Passing
// nil disables metrics (the default); metrics are opt-in since registering
// collectors has process-wide side effects a library should not impose.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external *zap.Logger. The pool never logs on the hot
// allocation path; only rotations are logged, and only at Debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Invalid configuration errors returned by applyOptions.
var (
	errInvalidGenerations = errors.New("genpool: generations must be >= 2")
	errInvalidRotateBytes = errors.New("genpool: rotation byte budget must be > 0")
)

// applyOptions mutates cfg with every option in opts, then validates the
// result, bailing out with a descriptive error before any Pool is built.
func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.generations < 2 {
		return errInvalidGenerations
	}
	if cfg.rotateBytes <= 0 {
		return errInvalidRotateBytes
	}
	return nil
}
