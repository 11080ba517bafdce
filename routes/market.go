package routes

import (
	"github.com/Deepraj916/Krishimitra-app/services"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/kataras/iris/v12"
)

// Market is wired in main; its scheduler keeps the Redis cache warm.
var Market *services.MarketService

// GetMarketPrices reports the market-hours status and, while the market is
// open, the latest government commodity quotes.
func GetMarketPrices(ctx iris.Context) {
	if Market == nil {
		utils.CreateError(iris.StatusServiceUnavailable, "Market Unavailable",
			"Market price lookup is not configured.", ctx)
		return
	}

	status, open := Market.MarketStatus()
	if !open {
		ctx.JSON(iris.Map{
			"status": status,
			"open":   false,
			"prices": []services.MarketPrice{},
		})
		return
	}

	prices, err := Market.GetPrices(ctx)
	if err != nil {
		utils.CreateError(iris.StatusBadGateway, "Market Error",
			"Could not fetch live market prices.", ctx)
		return
	}

	ctx.JSON(iris.Map{
		"status": status,
		"open":   true,
		"prices": prices,
	})
}
