package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-node/api/handlers"
	"vault-node/internal/vault"
)

// SetupRouter wires the vault operation set onto a gin engine.
func SetupRouter(coordinator *vault.Coordinator) *gin.Engine {
	router := gin.Default()
	h := handlers.NewVaultHandler(coordinator)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	router.POST("/artworks", h.ListArtwork)
	router.GET("/artworks/:id", h.GetArtwork)
	router.POST("/artworks/:id/bids", h.PlaceBid)
	router.POST("/artworks/:id/investments", h.InvestInArtwork)
	router.POST("/artworks/:id/end", h.EndAuction)
	router.GET("/artworks/:id/holdings/:address", h.GetHolding)

	router.GET("/users/:address/reputation", h.GetReputation)
	router.GET("/users/:address/balance", h.GetBalance)

	return router
}
