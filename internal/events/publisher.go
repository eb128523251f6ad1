package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"vault-node/internal/logger"
	"vault-node/internal/vault"
)

// SettlementEvent is the wire form of a settled auction, published for
// downstream consumers (indexers, notification services).
type SettlementEvent struct {
	EventID    string    `json:"event_id"`
	ArtworkID  uint64    `json:"artwork_id"`
	Title      string    `json:"title"`
	Winner     string    `json:"winner"`
	WinningBid uint64    `json:"winning_bid"`
	BidCount   int       `json:"bid_count"`
	SettledAt  time.Time `json:"settled_at"`
}

// Publisher emits settlement events to NATS, best effort: a publish failure
// is logged, never propagated back into the settlement path.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("vault-node"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %v", url, err)
	}
	return &Publisher{nc: nc}, nil
}

// PublishSettlement implements vault.Publisher.
func (p *Publisher) PublishSettlement(s vault.Settlement) {
	event := SettlementEvent{
		EventID:    uuid.New().String(),
		ArtworkID:  s.ArtworkID,
		Title:      s.Title,
		Winner:     s.Winner,
		WinningBid: s.WinningBid,
		BidCount:   s.BidCount,
		SettledAt:  s.SettledAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to marshal settlement event for artwork %d: %v", s.ArtworkID, err)
		return
	}

	subject := fmt.Sprintf("vault.settlements.%d", s.ArtworkID)
	if err := p.nc.Publish(subject, data); err != nil {
		logger.Log.Errorf("Failed to publish settlement event to %s: %v", subject, err)
		return
	}
	logger.Log.Infof("Published settlement event %s to %s", event.EventID, subject)
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
