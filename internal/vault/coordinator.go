package vault

import (
	"context"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/google/uuid"

	"vault-node/internal/logger"
	"vault-node/internal/sealed"
)

const defaultCompareTimeout = 2 * time.Second

// Archiver persists a settlement snapshot. Archiving is write-behind: a
// failure is logged and never unwinds the settlement.
type Archiver interface {
	ArchiveSettlement(ctx context.Context, s Settlement) error
}

// Publisher emits a settlement event for downstream consumers.
type Publisher interface {
	PublishSettlement(s Settlement)
}

// Settlement is the snapshot handed to the archiver and publisher when an
// auction settles.
type Settlement struct {
	ArtworkID        uint64            `json:"artwork_id"`
	Title            string            `json:"title"`
	Artist           string            `json:"artist"`
	Owner            string            `json:"owner"`
	Winner           string            `json:"winner"`
	WinningBid       uint64            `json:"winning_bid"`
	BidCount         int               `json:"bid_count"`
	Bids             []BidRecord       `json:"bids"`
	TotalShares      uint64            `json:"total_shares"`
	AvailableShares  uint64            `json:"available_shares"`
	Holdings         map[string]uint64 `json:"holdings"`
	WinnerReputation Reputation        `json:"winner_reputation"`
	SettledAt        time.Time         `json:"settled_at"`
}

// BidRecord is the public trace of an accepted bid. Amounts other than the
// winner's are never part of it.
type BidRecord struct {
	ID       string    `json:"id"`
	Bidder   string    `json:"bidder"`
	Seq      uint64    `json:"seq"`
	PlacedAt time.Time `json:"placed_at"`
}

// Details is the artwork snapshot returned to callers.
type Details struct {
	ID                   uint64    `json:"id"`
	Title                string    `json:"title"`
	Artist               string    `json:"artist"`
	InitialValue         uint64    `json:"initial_value"`
	CurrentHighestBid    uint64    `json:"current_highest_bid"`
	CurrentHighestBidder string    `json:"current_highest_bidder"`
	TotalShares          uint64    `json:"total_shares"`
	AvailableShares      uint64    `json:"available_shares"`
	PricePerShare        uint64    `json:"price_per_share"`
	IsListed             bool      `json:"is_listed"`
	IsAuctionActive      bool      `json:"is_auction_active"`
	AuctionEndTime       time.Time `json:"auction_end_time"`
	Owner                string    `json:"owner"`
}

// Receipt confirms a completed share purchase.
type Receipt struct {
	ReceiptID  uuid.UUID `json:"receipt_id"`
	ArtworkID  uint64    `json:"artwork_id"`
	Holder     string    `json:"holder"`
	Shares     uint64    `json:"shares"`
	NewBalance uint64    `json:"new_balance"`
	Paid       uint64    `json:"paid"`
}

// Config carries the coordinator's collaborators. Zero values get sane
// defaults, so vault.New(vault.Config{}) is a fully working in-memory vault.
type Config struct {
	Keeper         *sealed.Keeper
	Archiver       Archiver
	Publisher      Publisher
	Clock          func() time.Time
	CompareTimeout time.Duration
}

// Coordinator validates intents, applies state transitions across the
// registry, ledger, auction and reputation components, and owns the funds
// model. All state lives in explicit instances; multiple independent vaults
// can coexist in one process.
type Coordinator struct {
	registry   *ArtworkRegistry
	ledger     *ShareLedger
	auction    *SealedBidAuction
	reputation *ReputationTracker
	keeper     *sealed.Keeper
	archiver   Archiver
	publisher  Publisher

	compareTimeout time.Duration
	now            func() time.Time

	locks lockTable

	// balances holds withdrawable funds: refunded outbid deposits, refunded
	// payment excess, and owner proceeds.
	balMu    sync.Mutex
	balances map[string]uint64
}

// New creates a coordinator and its component instances.
func New(cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Keeper == nil {
		cfg.Keeper = sealed.NewKeeper()
	}
	if cfg.CompareTimeout <= 0 {
		cfg.CompareTimeout = defaultCompareTimeout
	}
	return &Coordinator{
		registry:       NewArtworkRegistry(cfg.Clock),
		ledger:         NewShareLedger(),
		auction:        NewSealedBidAuction(cfg.Keeper, cfg.Clock),
		reputation:     NewReputationTracker(),
		keeper:         cfg.Keeper,
		archiver:       cfg.Archiver,
		publisher:      cfg.Publisher,
		compareTimeout: cfg.CompareTimeout,
		now:            cfg.Clock,
		balances:       make(map[string]uint64),
	}
}

// ListArtwork lists a new artwork and opens its auction immediately.
func (c *Coordinator) ListArtwork(caller, title, artist string, initialValue, totalShares uint64, auctionDuration time.Duration) (uint64, error) {
	if caller == "" {
		return 0, fmt.Errorf("%w: caller identity is required", ErrInvalidParameters)
	}

	id, err := c.registry.List(caller, title, artist, initialValue, totalShares, auctionDuration)
	if err != nil {
		return 0, err
	}

	art, err := c.registry.Get(id)
	if err != nil {
		return 0, err
	}
	c.ledger.Register(id, totalShares)
	c.auction.Open(id, initialValue, art.AuctionEndTime)

	logger.Log.Infof("Listed artwork %d (%q by %q), %d shares, auction until %s", id, title, artist, totalShares, art.AuctionEndTime)
	return id, nil
}

// PlaceBid seals and places a bid. The attached payment must cover the bid
// amount; the full amount is held as the deposit and any excess is credited
// back immediately. On outbid, the previous leader's deposit is refunded.
func (c *Coordinator) PlaceBid(ctx context.Context, caller string, artworkID, amount, payment uint64) (uuid.UUID, error) {
	if caller == "" {
		return uuid.Nil, fmt.Errorf("%w: caller identity is required", ErrInvalidParameters)
	}
	if amount == 0 {
		return uuid.Nil, fmt.Errorf("%w: bid amount must be positive", ErrInvalidParameters)
	}
	if payment < amount {
		return uuid.Nil, fmt.Errorf("%w: payment %d below bid amount %d", ErrPaymentMismatch, payment, amount)
	}

	lock := c.locks.forArtwork(artworkID)
	lock.Lock()
	defer lock.Unlock()

	art, err := c.registry.Get(artworkID)
	if err != nil {
		return uuid.Nil, err
	}
	if !art.IsAuctionActive {
		return uuid.Nil, fmt.Errorf("%w: artwork %d", ErrAuctionNotActive, artworkID)
	}

	cctx, cancel := context.WithTimeout(ctx, c.compareTimeout)
	defer cancel()

	sealedAmount := c.keeper.Seal(amount)
	bid, outbid, err := c.auction.PlaceBid(cctx, artworkID, caller, sealedAmount, amount)
	if err != nil {
		return uuid.Nil, err
	}

	// The bid is accepted; every remaining step must apply.
	if err := c.registry.SetLeader(artworkID, caller); err != nil {
		// Unreachable while the per-artwork lock is held.
		logger.Log.Errorf("Leader update failed for artwork %d: %v", artworkID, err)
	}
	c.reputation.RecordBid(caller)
	if outbid != nil {
		c.credit(outbid.Bidder, outbid.Deposit)
		logger.Log.Infof("Refunded outbid deposit of %d to %s on artwork %d", outbid.Deposit, outbid.Bidder, artworkID)
	}
	if payment > amount {
		c.credit(caller, payment-amount)
	}

	logger.Log.Infof("Accepted sealed bid %s from %s on artwork %d", bid.ID, caller, artworkID)
	return bid.ID, nil
}

// InvestInArtwork purchases shares. The payment must cover
// sharesToBuy * pricePerShare; the purchase price is credited to the
// artwork owner and any excess refunded to the buyer.
func (c *Coordinator) InvestInArtwork(caller string, artworkID, sharesToBuy, payment uint64) (*Receipt, error) {
	if caller == "" {
		return nil, fmt.Errorf("%w: caller identity is required", ErrInvalidParameters)
	}
	if sharesToBuy == 0 {
		return nil, fmt.Errorf("%w: shares to buy must be positive", ErrInvalidParameters)
	}

	lock := c.locks.forArtwork(artworkID)
	lock.Lock()
	defer lock.Unlock()

	art, err := c.registry.Get(artworkID)
	if err != nil {
		return nil, err
	}

	price := pricePerShare(art.InitialValue, art.TotalShares)
	hi, required := bits.Mul64(sharesToBuy, price)
	if hi != 0 {
		// The true price exceeds the representable range; no payment covers it.
		return nil, fmt.Errorf("%w: payment %d cannot cover %d shares at price %d", ErrPaymentMismatch, payment, sharesToBuy, price)
	}
	if payment < required {
		return nil, fmt.Errorf("%w: payment %d below share price %d", ErrPaymentMismatch, payment, required)
	}

	newBalance, err := c.ledger.Purchase(artworkID, caller, sharesToBuy)
	if err != nil {
		return nil, err
	}

	c.reputation.RecordInvestment(caller)
	c.credit(art.Owner, required)
	if payment > required {
		c.credit(caller, payment-required)
	}

	receipt := &Receipt{
		ReceiptID:  uuid.New(),
		ArtworkID:  artworkID,
		Holder:     caller,
		Shares:     sharesToBuy,
		NewBalance: newBalance,
		Paid:       required,
	}
	logger.Log.Infof("Holder %s bought %d shares of artwork %d (receipt %s)", caller, sharesToBuy, artworkID, receipt.ReceiptID)
	return receipt, nil
}

// EndAuction settles an auction past its end time: the winning bid is
// revealed, the winner's reputation updated, the winning deposit paid to
// the owner, and the settlement archived and published.
func (c *Coordinator) EndAuction(ctx context.Context, caller string, artworkID uint64) error {
	if caller == "" {
		return fmt.Errorf("%w: caller identity is required", ErrInvalidParameters)
	}

	lock := c.locks.forArtwork(artworkID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := c.registry.Get(artworkID); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, c.compareTimeout)
	defer cancel()

	outcome, err := c.auction.End(cctx, artworkID)
	if err != nil {
		return err
	}

	if err := c.registry.MarkSettled(artworkID, outcome.Winner, outcome.Amount); err != nil {
		// Unreachable while the per-artwork lock is held.
		logger.Log.Errorf("Settle mark failed for artwork %d: %v", artworkID, err)
	}

	art, err := c.registry.Get(artworkID)
	if err != nil {
		// Unreachable while the per-artwork lock is held.
		logger.Log.Errorf("Settled artwork %d lookup failed: %v", artworkID, err)
	}
	if outcome.Winner != "" {
		c.reputation.RecordSuccessfulBid(outcome.Winner)
		c.credit(art.Owner, outcome.Deposit)
	}

	settlement := c.settlementSnapshot(art, outcome)
	logger.Log.Infof("Settled artwork %d: winner=%q amount=%d bids=%d", artworkID, settlement.Winner, settlement.WinningBid, settlement.BidCount)

	if c.archiver != nil {
		go func() {
			actx, acancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer acancel()
			if err := c.archiver.ArchiveSettlement(actx, settlement); err != nil {
				logger.Log.Errorf("Failed to archive settlement of artwork %d: %v", artworkID, err)
			}
		}()
	}
	if c.publisher != nil {
		go c.publisher.PublishSettlement(settlement)
	}
	return nil
}

// GetArtworkDetails returns the artwork snapshot. CurrentHighestBid is zero
// while amounts are sealed and carries the revealed winning amount after
// settlement.
func (c *Coordinator) GetArtworkDetails(artworkID uint64) (Details, error) {
	art, err := c.registry.Get(artworkID)
	if err != nil {
		return Details{}, err
	}
	available, err := c.ledger.Available(artworkID)
	if err != nil {
		return Details{}, err
	}
	return Details{
		ID:                   art.ID,
		Title:                art.Title,
		Artist:               art.Artist,
		InitialValue:         art.InitialValue,
		CurrentHighestBid:    art.WinningBid,
		CurrentHighestBidder: art.HighestBidder,
		TotalShares:          art.TotalShares,
		AvailableShares:      available,
		PricePerShare:        pricePerShare(art.InitialValue, art.TotalShares),
		IsListed:             art.IsListed,
		IsAuctionActive:      art.IsAuctionActive,
		AuctionEndTime:       art.AuctionEndTime,
		Owner:                art.Owner,
	}, nil
}

// GetUserReputation returns the holder's counters and recomputed score.
func (c *Coordinator) GetUserReputation(holder string) (Reputation, error) {
	if holder == "" {
		return Reputation{}, fmt.Errorf("%w: holder identity is required", ErrInvalidParameters)
	}
	return c.reputation.Snapshot(holder), nil
}

// GetHolding returns the shares a holder owns in an artwork.
func (c *Coordinator) GetHolding(artworkID uint64, holder string) uint64 {
	return c.ledger.Holding(artworkID, holder)
}

// Balance returns the holder's withdrawable funds.
func (c *Coordinator) Balance(holder string) uint64 {
	c.balMu.Lock()
	defer c.balMu.Unlock()
	return c.balances[holder]
}

func (c *Coordinator) credit(holder string, amount uint64) {
	if amount == 0 {
		return
	}
	c.balMu.Lock()
	defer c.balMu.Unlock()
	c.balances[holder] += amount
}

func (c *Coordinator) settlementSnapshot(art Artwork, outcome *Outcome) Settlement {
	available, _ := c.ledger.Available(art.ID)
	bids := make([]BidRecord, 0, len(outcome.Bids))
	for _, b := range outcome.Bids {
		bids = append(bids, BidRecord{
			ID:       b.ID.String(),
			Bidder:   b.Bidder,
			Seq:      b.Seq,
			PlacedAt: b.PlacedAt,
		})
	}
	return Settlement{
		ArtworkID:        art.ID,
		Title:            art.Title,
		Artist:           art.Artist,
		Owner:            art.Owner,
		Winner:           outcome.Winner,
		WinningBid:       outcome.Amount,
		BidCount:         outcome.BidCount,
		Bids:             bids,
		TotalShares:      art.TotalShares,
		AvailableShares:  available,
		Holdings:         c.ledger.Holdings(art.ID),
		WinnerReputation: c.reputation.Snapshot(outcome.Winner),
		SettledAt:        outcome.EndedAt,
	}
}

// pricePerShare rounds up so a full sell-out never collects less than the
// initial value. Dividing before adjusting keeps near-max initial values
// from wrapping.
func pricePerShare(initialValue, totalShares uint64) uint64 {
	price := initialValue / totalShares
	if initialValue%totalShares != 0 {
		price++
	}
	return price
}

// lockTable serializes mutating operations per artwork while letting
// unrelated artworks proceed concurrently.
type lockTable struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func (t *lockTable) forArtwork(id uint64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks == nil {
		t.locks = make(map[uint64]*sync.Mutex)
	}
	lock, ok := t.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[id] = lock
	}
	return lock
}
