package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vault-node/internal/storage/models"
	"vault-node/internal/vault"
)

// Archiver writes settlement snapshots to the database. It implements
// vault.Archiver.
type Archiver struct {
	db *gorm.DB
}

// NewArchiver creates an archiver on top of an initialized database.
func NewArchiver(db *gorm.DB) *Archiver {
	return &Archiver{db: db}
}

// ArchiveSettlement persists the artwork, its accepted-bid history, the
// holdings and the winner's reputation snapshot in a single transaction.
func (a *Archiver) ArchiveSettlement(ctx context.Context, s vault.Settlement) error {
	tx := a.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %v", tx.Error)
	}

	artwork := models.Artwork{
		ArtworkID:       s.ArtworkID,
		Title:           s.Title,
		Artist:          s.Artist,
		Owner:           s.Owner,
		Winner:          s.Winner,
		WinningBid:      s.WinningBid,
		TotalShares:     s.TotalShares,
		AvailableShares: s.AvailableShares,
		SettledAt:       s.SettledAt,
	}
	if err := tx.Create(&artwork).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create artwork record: %v", err)
	}

	for _, b := range s.Bids {
		bid := models.Bid{
			BidID:     b.ID,
			ArtworkID: s.ArtworkID,
			Bidder:    b.Bidder,
			Seq:       b.Seq,
			PlacedAt:  b.PlacedAt,
		}
		if err := tx.Create(&bid).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create bid record %s: %v", b.ID, err)
		}
	}

	for holder, shares := range s.Holdings {
		holding := models.Holding{
			ArtworkID: s.ArtworkID,
			Holder:    holder,
			Shares:    shares,
		}
		if err := tx.Create(&holding).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create holding record for %s: %v", holder, err)
		}
	}

	if s.Winner != "" {
		rep := models.Reputation{
			Holder:           s.Winner,
			Score:            s.WinnerReputation.Score,
			TotalBids:        s.WinnerReputation.TotalBids,
			SuccessfulBids:   s.WinnerReputation.SuccessfulBids,
			TotalInvestments: s.WinnerReputation.TotalInvestments,
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rep).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert reputation for %s: %v", s.Winner, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}
