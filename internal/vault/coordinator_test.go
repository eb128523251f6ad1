package vault

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type captureArchiver struct {
	settlements chan Settlement
}

func (a *captureArchiver) ArchiveSettlement(_ context.Context, s Settlement) error {
	a.settlements <- s
	return nil
}

type capturePublisher struct {
	events chan Settlement
}

func (p *capturePublisher) PublishSettlement(s Settlement) {
	p.events <- s
}

func newTestVault(t *testing.T) (*Coordinator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return New(Config{Clock: clock.Now}), clock
}

func waitSettlement(t *testing.T, ch chan Settlement) Settlement {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for settlement")
		return Settlement{}
	}
}

func TestCoordinator_ListArtwork(t *testing.T) {
	c, clock := newTestVault(t)

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	details, err := c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Equal(t, "Nocturne", details.Title)
	require.Equal(t, uint64(1000), details.TotalShares)
	require.Equal(t, uint64(1000), details.AvailableShares)
	require.Equal(t, uint64(1), details.PricePerShare)
	require.True(t, details.IsAuctionActive)
	require.Equal(t, clock.Now().Add(time.Hour), details.AuctionEndTime)

	_, err = c.ListArtwork("", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.ErrorIs(t, err, ErrInvalidParameters)
	_, err = c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 0, time.Hour)
	require.ErrorIs(t, err, ErrInvalidParameters)

	_, err = c.GetArtworkDetails(99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCoordinator_BiddingFlow(t *testing.T) {
	c, clock := newTestVault(t)
	ctx := context.Background()

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)

	bid1, err := c.PlaceBid(ctx, "bob", id, 100, 100)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, bid1)

	_, err = c.PlaceBid(ctx, "carol", id, 90, 90)
	require.ErrorIs(t, err, ErrBidTooLow)

	bid2, err := c.PlaceBid(ctx, "carol", id, 150, 150)
	require.NoError(t, err)
	require.NotEqual(t, bid1, bid2)

	// amounts stay sealed while the auction runs; the leader is public
	details, err := c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Zero(t, details.CurrentHighestBid)
	require.Equal(t, "carol", details.CurrentHighestBidder)

	// bob was outbid: his deposit is withdrawable again
	require.Equal(t, uint64(100), c.Balance("bob"))
	require.Zero(t, c.Balance("carol"))

	clock.Advance(time.Hour)
	require.NoError(t, c.EndAuction(ctx, "alice", id))

	details, err = c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.False(t, details.IsAuctionActive)
	require.Equal(t, uint64(150), details.CurrentHighestBid)
	require.Equal(t, "carol", details.CurrentHighestBidder)

	// the winning deposit went to the owner
	require.Equal(t, uint64(150), c.Balance("alice"))

	rep, err := c.GetUserReputation("carol")
	require.NoError(t, err)
	require.Equal(t, uint64(1), rep.TotalBids)
	require.Equal(t, uint64(1), rep.SuccessfulBids)

	rep, err = c.GetUserReputation("bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), rep.TotalBids)
	require.Zero(t, rep.SuccessfulBids)
}

func TestCoordinator_PlaceBidValidation(t *testing.T) {
	c, _ := newTestVault(t)
	ctx := context.Background()

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)

	_, err = c.PlaceBid(ctx, "", id, 100, 100)
	require.ErrorIs(t, err, ErrInvalidParameters)
	_, err = c.PlaceBid(ctx, "bob", id, 0, 100)
	require.ErrorIs(t, err, ErrInvalidParameters)
	_, err = c.PlaceBid(ctx, "bob", id, 100, 99)
	require.ErrorIs(t, err, ErrPaymentMismatch)
	_, err = c.PlaceBid(ctx, "bob", 99, 100, 100)
	require.ErrorIs(t, err, ErrNotFound)

	// failed attempts left every component untouched
	rep, err := c.GetUserReputation("bob")
	require.NoError(t, err)
	require.Zero(t, rep.TotalBids)
	details, err := c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Empty(t, details.CurrentHighestBidder)
	require.Zero(t, c.Balance("bob"))
}

func TestCoordinator_PlaceBidExcessRefunded(t *testing.T) {
	c, _ := newTestVault(t)

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)

	_, err = c.PlaceBid(context.Background(), "bob", id, 100, 130)
	require.NoError(t, err)
	require.Equal(t, uint64(30), c.Balance("bob"))
}

func TestCoordinator_Investments(t *testing.T) {
	c, _ := newTestVault(t)

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 1000, 1000, time.Hour)
	require.NoError(t, err)

	// oversubscription fails without touching the pool
	_, err = c.InvestInArtwork("bob", id, 1200, 1200)
	require.ErrorIs(t, err, ErrInsufficientShares)
	details, err := c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), details.AvailableShares)

	receipt, err := c.InvestInArtwork("bob", id, 100, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), receipt.Shares)
	require.Equal(t, uint64(100), receipt.NewBalance)
	require.Equal(t, uint64(100), receipt.Paid)

	_, err = c.InvestInArtwork("carol", id, 100, 100)
	require.NoError(t, err)

	details, err = c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Equal(t, uint64(800), details.AvailableShares)
	require.Equal(t, uint64(100), c.GetHolding(id, "bob"))
	require.Equal(t, uint64(100), c.GetHolding(id, "carol"))

	// proceeds go to the owner
	require.Equal(t, uint64(200), c.Balance("alice"))

	rep, err := c.GetUserReputation("bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), rep.TotalInvestments)
}

func TestCoordinator_InvestValidation(t *testing.T) {
	c, _ := newTestVault(t)

	// price per share is 3 (rounded up from 250/100)
	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 250, 100, time.Hour)
	require.NoError(t, err)

	_, err = c.InvestInArtwork("", id, 10, 30)
	require.ErrorIs(t, err, ErrInvalidParameters)
	_, err = c.InvestInArtwork("bob", id, 0, 30)
	require.ErrorIs(t, err, ErrInvalidParameters)
	_, err = c.InvestInArtwork("bob", 99, 10, 30)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.InvestInArtwork("bob", id, 10, 29)
	require.ErrorIs(t, err, ErrPaymentMismatch)

	receipt, err := c.InvestInArtwork("bob", id, 10, 35)
	require.NoError(t, err)
	require.Equal(t, uint64(30), receipt.Paid)
	// the excess came back
	require.Equal(t, uint64(5), c.Balance("bob"))
}

func TestCoordinator_SharePriceNearMaxValue(t *testing.T) {
	c, _ := newTestVault(t)

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", math.MaxUint64, 1000, time.Hour)
	require.NoError(t, err)

	details, err := c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.NotZero(t, details.PricePerShare)
	require.Equal(t, uint64(18446744073709552), details.PricePerShare)

	// an unpaid buy-out must stay a mismatch
	_, err = c.InvestInArtwork("bob", id, 1000, 0)
	require.ErrorIs(t, err, ErrPaymentMismatch)

	// a total price past the representable range is a mismatch even at the
	// maximum payment
	id2, err := c.ListArtwork("alice", "Impression", "C. Monet", math.MaxUint64, 2, time.Hour)
	require.NoError(t, err)
	_, err = c.InvestInArtwork("bob", id2, 2, math.MaxUint64)
	require.ErrorIs(t, err, ErrPaymentMismatch)

	// nothing was applied by the failed purchases
	details, err = c.GetArtworkDetails(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), details.AvailableShares)
	require.Zero(t, c.GetHolding(id, "bob"))
}

func TestCoordinator_EndAuctionLifecycle(t *testing.T) {
	c, clock := newTestVault(t)
	ctx := context.Background()

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)

	require.ErrorIs(t, c.EndAuction(ctx, "alice", id), ErrAuctionStillActive)
	require.ErrorIs(t, c.EndAuction(ctx, "", id), ErrInvalidParameters)
	require.ErrorIs(t, c.EndAuction(ctx, "alice", 99), ErrNotFound)

	clock.Advance(2 * time.Hour)
	require.NoError(t, c.EndAuction(ctx, "alice", id))
	require.ErrorIs(t, c.EndAuction(ctx, "alice", id), ErrInvalidState)

	// bids after settlement are rejected
	_, err = c.PlaceBid(ctx, "bob", id, 200, 200)
	require.ErrorIs(t, err, ErrAuctionNotActive)
}

func TestCoordinator_SettlementFanout(t *testing.T) {
	clock := newFakeClock()
	archiver := &captureArchiver{settlements: make(chan Settlement, 1)}
	publisher := &capturePublisher{events: make(chan Settlement, 1)}
	c := New(Config{Clock: clock.Now, Archiver: archiver, Publisher: publisher})
	ctx := context.Background()

	id, err := c.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)
	_, err = c.PlaceBid(ctx, "bob", id, 120, 120)
	require.NoError(t, err)
	_, err = c.InvestInArtwork("carol", id, 250, 250)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, c.EndAuction(ctx, "alice", id))

	archived := waitSettlement(t, archiver.settlements)
	require.Equal(t, id, archived.ArtworkID)
	require.Equal(t, "bob", archived.Winner)
	require.Equal(t, uint64(120), archived.WinningBid)
	require.Equal(t, 1, archived.BidCount)
	require.Len(t, archived.Bids, 1)
	require.Equal(t, "bob", archived.Bids[0].Bidder)
	require.Equal(t, uint64(750), archived.AvailableShares)
	require.Equal(t, uint64(250), archived.Holdings["carol"])
	require.Equal(t, uint64(1), archived.WinnerReputation.SuccessfulBids)

	published := waitSettlement(t, publisher.events)
	require.Equal(t, archived.ArtworkID, published.ArtworkID)
	require.Equal(t, archived.Winner, published.Winner)
}

func TestCoordinator_IndependentInstances(t *testing.T) {
	a, _ := newTestVault(t)
	b, _ := newTestVault(t)

	idA, err := a.ListArtwork("alice", "Nocturne", "J. Whistler", 100, 1000, time.Hour)
	require.NoError(t, err)

	_, err = b.GetArtworkDetails(idA)
	require.ErrorIs(t, err, ErrNotFound)
}
