package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vault-node/internal/logger"
	"vault-node/internal/vault"
)

// VaultHandler exposes the vault operation set over HTTP.
type VaultHandler struct {
	coordinator *vault.Coordinator
}

// NewVaultHandler creates the handler set for a coordinator instance.
func NewVaultHandler(c *vault.Coordinator) *VaultHandler {
	return &VaultHandler{coordinator: c}
}

// ListArtworkRequest is the body of POST /artworks.
type ListArtworkRequest struct {
	Caller                 string `json:"caller" binding:"required"`
	Title                  string `json:"title" binding:"required"`
	Artist                 string `json:"artist" binding:"required"`
	InitialValue           uint64 `json:"initial_value" binding:"required"`
	TotalShares            uint64 `json:"total_shares" binding:"required"`
	AuctionDurationSeconds int64  `json:"auction_duration_seconds" binding:"required"`
}

// PlaceBidRequest is the body of POST /artworks/:id/bids. Payment is the
// attached value; it must cover the bid amount.
type PlaceBidRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required"`
	Payment uint64 `json:"payment" binding:"required"`
}

// InvestRequest is the body of POST /artworks/:id/investments.
type InvestRequest struct {
	Caller      string `json:"caller" binding:"required"`
	SharesToBuy uint64 `json:"shares_to_buy" binding:"required"`
	Payment     uint64 `json:"payment" binding:"required"`
}

// EndAuctionRequest is the body of POST /artworks/:id/end.
type EndAuctionRequest struct {
	Caller string `json:"caller" binding:"required"`
}

func (h *VaultHandler) ListArtwork(c *gin.Context) {
	var req ListArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.coordinator.ListArtwork(req.Caller, req.Title, req.Artist,
		req.InitialValue, req.TotalShares, time.Duration(req.AuctionDurationSeconds)*time.Second)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"artwork_id": id})
}

func (h *VaultHandler) GetArtwork(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	details, err := h.coordinator.GetArtworkDetails(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *VaultHandler) PlaceBid(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bidID, err := h.coordinator.PlaceBid(c.Request.Context(), req.Caller, id, req.Amount, req.Payment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bid_id": bidID.String()})
}

func (h *VaultHandler) InvestInArtwork(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.coordinator.InvestInArtwork(req.Caller, id, req.SharesToBuy, req.Payment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *VaultHandler) EndAuction(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	var req EndAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.coordinator.EndAuction(c.Request.Context(), req.Caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "settled", "artwork_id": id})
}

func (h *VaultHandler) GetReputation(c *gin.Context) {
	rep, err := h.coordinator.GetUserReputation(c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *VaultHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"holder":  address,
		"balance": h.coordinator.Balance(address),
	})
}

func (h *VaultHandler) GetHolding(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"artwork_id": id,
		"holder":     address,
		"shares":     h.coordinator.GetHolding(id, address),
	})
}

func artworkID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artwork id"})
		return 0, false
	}
	return id, true
}

// respondError maps the vault failure taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidParameters),
		errors.Is(err, vault.ErrPaymentMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, vault.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, vault.ErrInvalidState),
		errors.Is(err, vault.ErrAuctionNotActive),
		errors.Is(err, vault.ErrAuctionExpired),
		errors.Is(err, vault.ErrAuctionStillActive),
		errors.Is(err, vault.ErrBidTooLow),
		errors.Is(err, vault.ErrInsufficientShares):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, vault.ErrConfidentialComputeTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		logger.Log.Errorf("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
