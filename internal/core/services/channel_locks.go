package services

import (
	"sync"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type channelLocks struct {
	mu    sync.Mutex
	locks map[domain.ChannelID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewChannelLocks builds a keyed mutex set. Entries are created on demand and
// dropped once the last holder releases, so the map does not grow with the
// lifetime of channel ids.
func NewChannelLocks() ports.ChannelLocker {
	return &channelLocks{locks: make(map[domain.ChannelID]*lockEntry)}
}

func (cl *channelLocks) Lock(id domain.ChannelID) func() {
	cl.mu.Lock()
	entry, ok := cl.locks[id]
	if !ok {
		entry = &lockEntry{}
		cl.locks[id] = entry
	}
	entry.refs++
	cl.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		cl.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(cl.locks, id)
		}
		cl.mu.Unlock()
	}
}
