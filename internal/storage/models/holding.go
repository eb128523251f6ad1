package models

import "gorm.io/gorm"

// Holding is the archived share balance of one holder in one artwork at
// settlement time.
type Holding struct {
	gorm.Model
	ArtworkID uint64 `gorm:"index:idx_holdings_artwork_holder,unique" json:"artworkId"`
	Holder    string `gorm:"type:varchar(100);index:idx_holdings_artwork_holder,unique" json:"holder"`
	Shares    uint64 `json:"shares"`
}
