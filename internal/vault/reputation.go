package vault

import "sync"

// Reputation is the derived trust snapshot of one participant. The counters
// are monotonic; the score is recomputed from them on every read.
type Reputation struct {
	Holder           string `json:"holder"`
	Score            uint64 `json:"score"`
	TotalBids        uint64 `json:"total_bids"`
	SuccessfulBids   uint64 `json:"successful_bids"`
	TotalInvestments uint64 `json:"total_investments"`
}

type reputationCounters struct {
	totalBids        uint64
	successfulBids   uint64
	totalInvestments uint64
}

// ReputationTracker derives a trust score per participant from their
// bidding and investment history.
type ReputationTracker struct {
	mu      sync.RWMutex
	records map[string]*reputationCounters
}

// NewReputationTracker creates an empty tracker.
func NewReputationTracker() *ReputationTracker {
	return &ReputationTracker{
		records: make(map[string]*reputationCounters),
	}
}

func (t *ReputationTracker) counters(holder string) *reputationCounters {
	rec, ok := t.records[holder]
	if !ok {
		rec = &reputationCounters{}
		t.records[holder] = rec
	}
	return rec
}

// RecordBid counts an accepted bid.
func (t *ReputationTracker) RecordBid(holder string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters(holder).totalBids++
}

// RecordSuccessfulBid counts a won auction.
func (t *ReputationTracker) RecordSuccessfulBid(holder string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters(holder).successfulBids++
}

// RecordInvestment counts a completed share purchase.
func (t *ReputationTracker) RecordInvestment(holder string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters(holder).totalInvestments++
}

// Snapshot returns the holder's counters and recomputed score. Unknown
// holders report all zeroes.
func (t *ReputationTracker) Snapshot(holder string) Reputation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[holder]
	if !ok {
		return Reputation{Holder: holder}
	}
	return Reputation{
		Holder:           holder,
		Score:            scoreOf(*rec),
		TotalBids:        rec.totalBids,
		SuccessfulBids:   rec.successfulBids,
		TotalInvestments: rec.totalInvestments,
	}
}

// scoreOf is pure: it depends on nothing but the three counters and is
// monotonic in each of them, so more activity never lowers a score.
func scoreOf(rec reputationCounters) uint64 {
	return 100*rec.successfulBids + 10*rec.totalInvestments + rec.totalBids
}
