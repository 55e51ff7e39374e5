package genpool

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jmeacham/yoink/pkg/yoink"
)

type generation struct {
	id      uint32
	arena   *yoink.Arena
	created time.Time
	bytes   atomic.Int64
}

func newGeneration(id uint32) *generation {
	return &generation{id: id, arena: &yoink.Arena{}, created: time.Now()}
}

// Pool is a ring of generations, each a *yoink.Arena. Callers allocate into
// Active(), report the bytes they add via AddBytes, and periodically call
// Rotate with the set of roots still live in the active generation — Rotate
// yoinks that reachable subgraph into a fresh generation and discards the
// rest of the outgoing arena in one step, rather than requiring the caller
// to free individual allocations.
//
// A Pool serializes its own rotations; Active() itself is safe to call
// concurrently with allocation into the returned arena (Arena.Alloc is
// lock-free), but a Rotate in progress temporarily holds the pool's lock.
type Pool struct {
	mu      sync.Mutex
	cfg     *config
	metrics metricsSink

	gens      []*generation
	activeIdx int
	idCtr     atomic.Uint32

	rotations  atomic.Int64
	bytesFreed atomic.Int64
}

// New constructs a Pool with the given options applied, validating the
// resulting configuration before any generation is allocated.
func New(opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	p := &Pool{
		cfg:     cfg,
		metrics: newMetricsSink(cfg.registry),
		gens:    make([]*generation, cfg.generations),
	}
	p.idCtr.Store(1)
	first := newGeneration(p.idCtr.Load())
	p.gens[0] = first
	p.activeIdx = 0
	p.metrics.setGeneration(first.id)
	return p, nil
}

// Active returns the arena new allocations should target.
func (p *Pool) Active() *yoink.Arena {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gens[p.activeIdx].arena
}

// Generation returns the id of the active generation.
func (p *Pool) Generation() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gens[p.activeIdx].id
}

// AddBytes records that delta bytes were just allocated into the active
// generation (typically arena.TSZ of whatever was just allocated via
// Active()), and reports whether the configured rotation budget has now
// been exceeded. It does not rotate itself — only the caller knows which
// roots are still live and must pass them to Rotate.
func (p *Pool) AddBytes(delta int64) (needsRotation bool) {
	p.mu.Lock()
	g := p.gens[p.activeIdx]
	p.mu.Unlock()
	n := g.bytes.Add(delta)
	p.metrics.setArenaBytes(n)
	if n > p.cfg.rotateBytes {
		return true
	}
	if p.cfg.rotateMaxAge > 0 && time.Since(g.created) > p.cfg.rotateMaxAge {
		return true
	}
	return false
}

// Rotations returns the total number of rotations performed since the
// Pool was created.
func (p *Pool) Rotations() int64 { return p.rotations.Load() }

// BytesFreed returns the cumulative bytes freed across every rotation.
func (p *Pool) BytesFreed() int64 { return p.bytesFreed.Load() }

// LiveBytes sums the approximate live-byte accounting across every
// generation currently in the ring.
func (p *Pool) LiveBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total int64
	for _, g := range p.gens {
		if g != nil {
			total += g.bytes.Load()
		}
	}
	return total
}

// Rotate advances the ring: it yoinks the subgraph reachable from roots out
// of the active generation into the generation about to be reused, patches
// roots in place with their relocated values, discards the outgoing arena,
// and returns the bytes freed (the active generation's prior size minus the
// bytes copied forward). The now-active generation becomes the one roots
// were yoinked into.
func (p *Pool) Rotate(roots []yoink.Ptr) int64 {
	p.mu.Lock()
	outgoing := p.gens[p.activeIdx]
	nextIdx := (p.activeIdx + 1) % len(p.gens)
	stale := p.gens[nextIdx]
	newID := p.idCtr.Add(1)
	incoming := newGeneration(newID)
	p.gens[nextIdx] = incoming
	p.activeIdx = nextIdx
	p.mu.Unlock()

	before := outgoing.bytes.Load()
	copied := yoink.Yoinks(incoming.arena, roots)
	incoming.bytes.Store(copied)
	outgoing.arena.Free()
	if stale != nil && stale != outgoing {
		stale.arena.Free()
	}
	freed := before - copied
	p.rotations.Add(1)
	p.bytesFreed.Add(freed)

	p.metrics.incRotation()
	p.metrics.addBytesFreed(freed)
	p.metrics.setArenaBytes(copied)
	p.metrics.setGeneration(newID)
	p.logSlowRotation(before, copied)
	return freed
}

func (p *Pool) logSlowRotation(before, after int64) {
	logger := p.cfg.logger
	if logger == nil {
		return
	}
	logger.Debug("genpool: rotation complete",
		zap.Int64("bytes_before", before),
		zap.Int64("bytes_after", after),
	)
}
