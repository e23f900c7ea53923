package http

import "github.com/gin-gonic/gin"

func NewRouter(transferHandler *TransferHandler) *gin.Engine {
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	router.GET("/total-volume", transferHandler.GetTotalVolume)
	router.GET("/top-accounts", transferHandler.GetTopAccounts)
	router.GET("/transfers", transferHandler.GetTransfers)
	return router
}
