package vault

import (
	"fmt"
	"sync"
)

// supply tracks the share pool of one artwork. Invariant: for every
// artwork, sum of holdings + available == total, after every call.
type supply struct {
	total     uint64
	available uint64
	holdings  map[string]uint64
}

// ShareLedger tracks fractional ownership per artwork per holder.
type ShareLedger struct {
	mu       sync.RWMutex
	supplies map[uint64]*supply
}

// NewShareLedger creates an empty ledger.
func NewShareLedger() *ShareLedger {
	return &ShareLedger{
		supplies: make(map[uint64]*supply),
	}
}

// Register opens the share pool of a newly listed artwork. All shares start
// available.
func (l *ShareLedger) Register(artworkID, totalShares uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.supplies[artworkID] = &supply{
		total:     totalShares,
		available: totalShares,
		holdings:  make(map[string]uint64),
	}
}

// Purchase moves shares from the available pool to the holder. The update is
// a single atomic step: it either fully applies or fails without touching
// the pool. Returns the holder's new balance.
func (l *ShareLedger) Purchase(artworkID uint64, holder string, sharesToBuy uint64) (uint64, error) {
	if sharesToBuy == 0 {
		return 0, fmt.Errorf("%w: shares to buy must be positive", ErrInvalidParameters)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sup, ok := l.supplies[artworkID]
	if !ok {
		return 0, fmt.Errorf("%w: artwork %d", ErrNotFound, artworkID)
	}
	if sharesToBuy > sup.available {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientShares, sharesToBuy, sup.available)
	}

	sup.available -= sharesToBuy
	sup.holdings[holder] += sharesToBuy
	return sup.holdings[holder], nil
}

// Holding returns the shares owned by holder, zero when absent.
func (l *ShareLedger) Holding(artworkID uint64, holder string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sup, ok := l.supplies[artworkID]
	if !ok {
		return 0
	}
	return sup.holdings[holder]
}

// Available returns the unsold share count of an artwork.
func (l *ShareLedger) Available(artworkID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sup, ok := l.supplies[artworkID]
	if !ok {
		return 0, fmt.Errorf("%w: artwork %d", ErrNotFound, artworkID)
	}
	return sup.available, nil
}

// Holdings returns a copy of all holdings of an artwork.
func (l *ShareLedger) Holdings(artworkID uint64) map[string]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sup, ok := l.supplies[artworkID]
	if !ok {
		return nil
	}
	out := make(map[string]uint64, len(sup.holdings))
	for holder, shares := range sup.holdings {
		out[holder] = shares
	}
	return out
}
