package models

import "time"

// Artwork is the archived record of a settled artwork.
type Artwork struct {
	ArtworkID       uint64 `gorm:"primaryKey" json:"artworkId"`
	Title           string `gorm:"type:varchar(200)" json:"title"`
	Artist          string `gorm:"type:varchar(200)" json:"artist"`
	Owner           string `gorm:"type:varchar(100);index" json:"owner"`
	Winner          string `gorm:"type:varchar(100);index" json:"winner"`
	WinningBid      uint64 `json:"winningBid"`
	TotalShares     uint64 `json:"totalShares"`
	AvailableShares uint64 `json:"availableShares"`
	Bids            []Bid  `gorm:"foreignKey:ArtworkID;references:ArtworkID" json:"bids"`
	SettledAt       time.Time `json:"settledAt"`
}
