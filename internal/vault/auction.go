package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vault-node/internal/sealed"
)

// Bid is an accepted sealed bid. The amount is owned by the auction
// component and stays encrypted until settlement; Seq records intake order
// and is the tie-break under concurrent submission.
type Bid struct {
	ID        uuid.UUID
	ArtworkID uint64
	Bidder    string
	Amount    *sealed.Amount
	Deposit   uint64
	Seq       uint64
	PlacedAt  time.Time
}

// Outcome is the result of a settled auction.
type Outcome struct {
	ArtworkID uint64
	Winner    string // empty when no bid was placed
	Amount    uint64 // revealed winning amount
	Deposit   uint64 // winning deposit, paid out to the artwork owner
	BidCount  int
	Bids      []*Bid
	EndedAt   time.Time
}

// auctionState is the per-artwork machine: active until endTime, then
// settled, terminal. Pending is folded into active since the auction opens
// at listing.
type auctionState struct {
	initialValue uint64
	endTime      time.Time
	settled      bool
	nextSeq      uint64
	highest      *Bid
	bids         []*Bid
}

// SealedBidAuction collects sealed bids per artwork and settles auctions.
// It exclusively owns the sealed amounts; only settlement may reveal them.
type SealedBidAuction struct {
	mu       sync.Mutex
	keeper   *sealed.Keeper
	auctions map[uint64]*auctionState
	now      func() time.Time
}

// NewSealedBidAuction creates an auction component bound to the given
// keeper.
func NewSealedBidAuction(keeper *sealed.Keeper, now func() time.Time) *SealedBidAuction {
	if now == nil {
		now = time.Now
	}
	return &SealedBidAuction{
		keeper:   keeper,
		auctions: make(map[uint64]*auctionState),
		now:      now,
	}
}

// Open starts the auction of a newly listed artwork.
func (a *SealedBidAuction) Open(artworkID, initialValue uint64, endTime time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.auctions[artworkID] = &auctionState{
		initialValue: initialValue,
		endTime:      endTime,
	}
}

// PlaceBid validates and stores a sealed bid. The strictly-greater rule is
// checked by the keeper, which returns only a boolean. Returns the accepted
// bid and the outbid previous leader (nil for the first bid), whose deposit
// must be refunded by the caller.
func (a *SealedBidAuction) PlaceBid(ctx context.Context, artworkID uint64, bidder string, amount *sealed.Amount, deposit uint64) (*Bid, *Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.auctions[artworkID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: auction for artwork %d", ErrNotFound, artworkID)
	}
	if st.settled {
		return nil, nil, fmt.Errorf("%w: artwork %d is settled", ErrAuctionNotActive, artworkID)
	}
	now := a.now()
	if !now.Before(st.endTime) {
		return nil, nil, fmt.Errorf("%w: artwork %d auction ended at %s", ErrAuctionExpired, artworkID, st.endTime)
	}

	var higher bool
	var err error
	if st.highest == nil {
		higher, err = a.keeper.AtLeast(ctx, amount, st.initialValue)
	} else {
		higher, err = a.keeper.GreaterThan(ctx, amount, st.highest.Amount)
	}
	if err != nil {
		if errors.Is(err, sealed.ErrComputeTimeout) {
			return nil, nil, fmt.Errorf("%w: bid comparison", ErrConfidentialComputeTimeout)
		}
		return nil, nil, fmt.Errorf("bid comparison failed: %v", err)
	}
	if !higher {
		return nil, nil, ErrBidTooLow
	}

	st.nextSeq++
	bid := &Bid{
		ID:        uuid.New(),
		ArtworkID: artworkID,
		Bidder:    bidder,
		Amount:    amount,
		Deposit:   deposit,
		Seq:       st.nextSeq,
		PlacedAt:  now,
	}
	outbid := st.highest
	st.highest = bid
	st.bids = append(st.bids, bid)
	return bid, outbid, nil
}

// End settles the auction. Only the timed path is offered: before the end
// time every caller fails, owner included, so a standing higher bid can
// never be cancelled. Once settled, further calls fail with ErrInvalidState.
func (a *SealedBidAuction) End(ctx context.Context, artworkID uint64) (*Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.auctions[artworkID]
	if !ok {
		return nil, fmt.Errorf("%w: auction for artwork %d", ErrNotFound, artworkID)
	}
	if st.settled {
		return nil, fmt.Errorf("%w: artwork %d is already settled", ErrInvalidState, artworkID)
	}
	now := a.now()
	if now.Before(st.endTime) {
		return nil, fmt.Errorf("%w: artwork %d auction runs until %s", ErrAuctionStillActive, artworkID, st.endTime)
	}

	outcome := &Outcome{
		ArtworkID: artworkID,
		BidCount:  len(st.bids),
		Bids:      append([]*Bid(nil), st.bids...),
		EndedAt:   now,
	}
	if st.highest != nil {
		a.keeper.Release(st.highest.Amount)
		amount, err := a.keeper.Reveal(ctx, st.highest.Amount)
		if err != nil {
			// Leave the auction active so the call can be retried.
			if errors.Is(err, sealed.ErrComputeTimeout) {
				return nil, fmt.Errorf("%w: winning bid reveal", ErrConfidentialComputeTimeout)
			}
			return nil, fmt.Errorf("winning bid reveal failed: %v", err)
		}
		outcome.Winner = st.highest.Bidder
		outcome.Amount = amount
		outcome.Deposit = st.highest.Deposit
	}

	st.settled = true
	return outcome, nil
}

// Leader returns the current highest bidder, empty when no bid leads.
func (a *SealedBidAuction) Leader(artworkID uint64) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.auctions[artworkID]
	if !ok || st.highest == nil {
		return ""
	}
	return st.highest.Bidder
}
