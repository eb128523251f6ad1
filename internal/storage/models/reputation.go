package models

// Reputation is the archived reputation snapshot of a participant, updated
// on every settlement that touches them.
type Reputation struct {
	Holder           string `gorm:"type:varchar(100);primaryKey" json:"holder"`
	Score            uint64 `json:"score"`
	TotalBids        uint64 `json:"totalBids"`
	SuccessfulBids   uint64 `json:"successfulBids"`
	TotalInvestments uint64 `json:"totalInvestments"`
}
