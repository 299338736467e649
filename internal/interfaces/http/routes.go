package http

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api/v1")
	{
		api.GET("/dividends/analytics", handler.GetAnalytics)
		api.GET("/dividends/analytics/:symbol", handler.GetSymbolAnalytics)
		api.GET("/income/monthly", handler.GetMonthlyIncome)
		api.GET("/cashflows/monthly", handler.GetMonthlyCashFlows)
		api.GET("/positions/history", handler.GetPositionHistory)
		api.GET("/balance/check", handler.GetBalanceCheck)

		api.POST("/import/snapshot", handler.ImportSnapshot)
		api.POST("/import/dividends", handler.ImportDividends)
		api.POST("/import/trades", handler.ImportTrades)
		api.POST("/import/cashflows", handler.ImportCashFlows)
		api.POST("/import/instruments", handler.ImportInstruments)
		api.POST("/import/fxrates", handler.ImportFxRates)
		api.POST("/import/margin", handler.ImportMarginSnapshots)
		api.POST("/import/sold", handler.ImportSoldPositions)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
