// Package poller periodically decodes the game state of an attached
// process.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/spelunky-fyi/memrauder/pkg/logflags"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/spel2"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 100 * time.Millisecond

// Snapshot is the result of one successful poll.
type Snapshot struct {
	Seq   uint64
	Time  time.Time
	State spel2.State
	// Entities is nil until the game has loaded its first level.
	Entities *spel2.UidEntityMap
}

// Purger is implemented by readers that keep data between reads, such as
// procmem.Process with a page cache.
type Purger interface {
	Purge()
}

// Config describes a Poller.
type Config struct {
	// StateAddr is the address of the game state in the target.
	StateAddr uint64
	// Interval between polls, DefaultInterval if zero.
	Interval time.Duration
	// Hash is the key hash of the uid to entity table.
	Hash spel2.KeyHash
	// ContextOptions are passed to every decode context.
	ContextOptions []memrauder.ContextOption
	// Logger receives failed polls, logflags.PollerLogger() if nil.
	Logger logflags.Logger
}

// Poller reads and decodes the game state from a target process.
type Poller struct {
	mem   memrauder.MemoryReader
	conf  Config
	ctx   *memrauder.Context
	uids  memrauder.MemType[*spel2.UidEntityMap]
	log   logflags.Logger
	seq   uint64
	clock func() time.Time
}

// New returns a Poller reading through mem.
func New(mem memrauder.MemoryReader, conf Config) (*Poller, error) {
	if conf.Interval <= 0 {
		conf.Interval = DefaultInterval
	}
	log := conf.Logger
	if log == nil {
		log = logflags.PollerLogger()
	}
	uids, err := memrauder.Build(spel2.UidEntityMapOf(conf.Hash, nil))
	if err != nil {
		return nil, err
	}
	return &Poller{
		mem:   mem,
		conf:  conf,
		ctx:   memrauder.NewContext(mem, conf.ContextOptions...),
		uids:  uids,
		log:   log,
		clock: time.Now,
	}, nil
}

// Poll decodes the game state once. Every call reads the target again.
func (p *Poller) Poll() (*Snapshot, error) {
	if purger, ok := p.mem.(Purger); ok {
		purger.Purge()
	}

	state, ok, err := memrauder.AtAddr(p.ctx, spel2.StateSchema, p.conf.StateAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, memrauder.RemoteReadFailed(memrauder.NewFieldPath("state"), p.conf.StateAddr, spel2.StateSchema.FieldSize())
	}

	p.seq++
	snap := &Snapshot{Seq: p.seq, Time: p.clock(), State: state}

	mapAddr := spel2.EntityMapAddr(p.conf.StateAddr)
	uids, ok, err := memrauder.AtAddr(p.ctx, p.uids, mapAddr)
	switch {
	case err != nil && memrauder.IsKind(err, memrauder.KindInvariant):
		// No level loaded yet.
		if logflags.Poller() {
			p.log.WithError(err).Debugf("entity table at %#x not ready", mapAddr)
		}
	case err != nil:
		return nil, err
	case ok:
		snap.Entities = uids
	}
	return snap, nil
}

// Run polls every interval and hands each snapshot to fn until ctx is
// done. Failed polls are logged and skipped; fn is not called for them.
func (p *Poller) Run(ctx context.Context, fn func(*Snapshot)) error {
	ticker := time.NewTicker(p.conf.Interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		p.step(fn)
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func (p *Poller) step(fn func(*Snapshot)) {
	snap, err := p.Poll()
	if err != nil {
		p.log.WithField("kind", memrauder.KindOf(err)).Warnf("poll failed: %v", err)
		return
	}
	if logflags.Poller() {
		p.log.Debugf("poll %d: screen %v, world %d-%d", snap.Seq, snap.State.Screen, snap.State.World, snap.State.Level)
	}
	fn(snap)
}
