package vault

import (
	"fmt"
	"sync"
	"time"
)

// Artwork is a listed, fractionally-owned asset with an associated auction.
// Artworks are never deleted; settled ones are retained for history.
type Artwork struct {
	ID           uint64
	Title        string
	Artist       string
	InitialValue uint64 // minor currency units
	TotalShares  uint64
	Owner        string

	IsListed        bool
	IsAuctionActive bool
	AuctionEndTime  time.Time

	// HighestBidder is public as soon as a bid leads. WinningBid stays zero
	// while the auction is active (amounts are sealed) and carries the
	// revealed amount after settlement.
	HighestBidder string
	WinningBid    uint64

	ListedAt time.Time
}

// ArtworkRegistry owns artwork records and their lifecycle.
type ArtworkRegistry struct {
	mu       sync.RWMutex
	artworks map[uint64]*Artwork
	nextID   uint64
	now      func() time.Time
}

// NewArtworkRegistry creates an empty registry. The clock is injectable so
// expiry can be driven in tests.
func NewArtworkRegistry(now func() time.Time) *ArtworkRegistry {
	if now == nil {
		now = time.Now
	}
	return &ArtworkRegistry{
		artworks: make(map[uint64]*Artwork),
		now:      now,
	}
}

// List creates a new artwork with a fresh id. The auction opens immediately
// and runs until now + duration.
func (r *ArtworkRegistry) List(owner, title, artist string, initialValue, totalShares uint64, duration time.Duration) (uint64, error) {
	if title == "" || artist == "" {
		return 0, fmt.Errorf("%w: title and artist are required", ErrInvalidParameters)
	}
	if initialValue == 0 {
		return 0, fmt.Errorf("%w: initial value must be positive", ErrInvalidParameters)
	}
	if totalShares == 0 {
		return 0, fmt.Errorf("%w: total shares must be positive", ErrInvalidParameters)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: auction duration must be positive", ErrInvalidParameters)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	art := &Artwork{
		ID:              r.nextID,
		Title:           title,
		Artist:          artist,
		InitialValue:    initialValue,
		TotalShares:     totalShares,
		Owner:           owner,
		IsListed:        true,
		IsAuctionActive: true,
		AuctionEndTime:  now.Add(duration),
		ListedAt:        now,
	}
	r.artworks[art.ID] = art
	return art.ID, nil
}

// Get returns a copy of the artwork record.
func (r *ArtworkRegistry) Get(id uint64) (Artwork, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	art, ok := r.artworks[id]
	if !ok {
		return Artwork{}, fmt.Errorf("%w: artwork %d", ErrNotFound, id)
	}
	return *art, nil
}

// SetLeader records the current highest bidder. The amount stays sealed.
func (r *ArtworkRegistry) SetLeader(id uint64, bidder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	art, ok := r.artworks[id]
	if !ok {
		return fmt.Errorf("%w: artwork %d", ErrNotFound, id)
	}
	if !art.IsAuctionActive {
		return fmt.Errorf("%w: artwork %d is settled", ErrInvalidState, id)
	}
	art.HighestBidder = bidder
	return nil
}

// MarkSettled closes the auction and records the revealed winning amount.
// Invoked only by the coordinator after the auction component has settled.
func (r *ArtworkRegistry) MarkSettled(id uint64, winner string, winningBid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	art, ok := r.artworks[id]
	if !ok {
		return fmt.Errorf("%w: artwork %d", ErrNotFound, id)
	}
	if !art.IsAuctionActive {
		return fmt.Errorf("%w: artwork %d is already settled", ErrInvalidState, id)
	}
	art.IsAuctionActive = false
	art.HighestBidder = winner
	art.WinningBid = winningBid
	return nil
}
