package models

import (
	"time"

	"gorm.io/gorm"
)

// Bid is the archived trace of an accepted bid. Only the winning amount is
// ever revealed, so the record carries no amount of its own.
type Bid struct {
	gorm.Model
	BidID     string `gorm:"type:uuid;uniqueIndex" json:"bidId"`
	ArtworkID uint64 `gorm:"index" json:"-"`
	Bidder    string `gorm:"type:varchar(100);index" json:"bidder"`
	Seq       uint64 `json:"seq"`
	PlacedAt  time.Time `json:"placedAt"`
}
