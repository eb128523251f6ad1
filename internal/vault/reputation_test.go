package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReputationTracker_Counters(t *testing.T) {
	tr := NewReputationTracker()

	tr.RecordBid("alice")
	tr.RecordBid("alice")
	tr.RecordSuccessfulBid("alice")
	tr.RecordInvestment("alice")

	rep := tr.Snapshot("alice")
	require.Equal(t, uint64(2), rep.TotalBids)
	require.Equal(t, uint64(1), rep.SuccessfulBids)
	require.Equal(t, uint64(1), rep.TotalInvestments)
	require.Equal(t, scoreOf(reputationCounters{totalBids: 2, successfulBids: 1, totalInvestments: 1}), rep.Score)
}

func TestReputationTracker_UnknownHolder(t *testing.T) {
	tr := NewReputationTracker()

	rep := tr.Snapshot("stranger")
	require.Equal(t, "stranger", rep.Holder)
	require.Zero(t, rep.Score)
	require.Zero(t, rep.TotalBids)
}

// A holder with more wins outranks one with fewer, all else equal.
func TestReputationTracker_SuccessOutranksFailure(t *testing.T) {
	tr := NewReputationTracker()

	for i := 0; i < 3; i++ {
		tr.RecordBid("steady")
		tr.RecordBid("lucky")
	}
	tr.RecordSuccessfulBid("steady")
	for i := 0; i < 3; i++ {
		tr.RecordSuccessfulBid("lucky")
	}

	require.Less(t, tr.Snapshot("steady").Score, tr.Snapshot("lucky").Score)
}

// Losing bids never lower a score: bidding cannot be worse than abstaining.
func TestReputationTracker_ScoreNeverDecreases(t *testing.T) {
	tr := NewReputationTracker()

	tr.RecordSuccessfulBid("alice")
	prev := tr.Snapshot("alice").Score
	for i := 0; i < 10; i++ {
		tr.RecordBid("alice")
		score := tr.Snapshot("alice").Score
		require.GreaterOrEqual(t, score, prev)
		prev = score
	}
}
