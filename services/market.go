package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/go-co-op/gocron"
)

const (
	marketPricesCacheKey = "market:prices"
	marketPricesCacheTTL = time.Hour

	// data.gov.in daily commodity price resource
	marketAPIResource = "9ef84268-d588-465a-a308-a864a43d0070"
)

// MarketPrice is one commodity quote from the government feed.
type MarketPrice struct {
	Commodity string `json:"commodity"`
	Market    string `json:"market"`
	Price     string `json:"price"`
}

// MarketService serves live mandi prices, gated by the market-hours rule and
// cached in Redis between refreshes.
type MarketService struct {
	apiKey string
	state  string
}

func NewMarketService() *MarketService {
	state := os.Getenv("MARKET_STATE")
	if state == "" {
		state = "Maharashtra"
	}
	return &MarketService{
		apiKey: os.Getenv("DATA_GOV_API_KEY"),
		state:  state,
	}
}

// MarketStatusAt applies the market-hours rule to the given instant:
// closed on Sundays, open 10:00-18:00 IST otherwise.
func (ms *MarketService) MarketStatusAt(now time.Time) (string, bool) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		ist = time.FixedZone("IST", 5*3600+1800)
	}
	local := now.In(ist)

	if local.Weekday() == time.Sunday {
		return "Today is a holiday, the market is closed.", false
	}
	if local.Hour() >= 10 && local.Hour() < 18 {
		return fmt.Sprintf("Market is currently open. (Current time: %s)", local.Format("03:04 PM")), true
	}
	return fmt.Sprintf("Market is currently closed (10 AM - 6 PM IST). (Current time: %s)", local.Format("03:04 PM")), false
}

// MarketStatus reports the rule for the current moment.
func (ms *MarketService) MarketStatus() (string, bool) {
	return ms.MarketStatusAt(time.Now())
}

// FetchPrices calls data.gov.in directly, bypassing the cache.
func (ms *MarketService) FetchPrices(ctx context.Context) ([]MarketPrice, error) {
	if ms.apiKey == "" {
		return nil, fmt.Errorf("DATA_GOV_API_KEY is required")
	}

	apiURL := fmt.Sprintf(
		"https://api.data.gov.in/resource/%s?api-key=%s&format=json&limit=15&filters[state]=%s",
		marketAPIResource, ms.apiKey, ms.state)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market API request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API returned status %d", res.StatusCode)
	}

	var payload struct {
		Records []struct {
			Commodity  string `json:"commodity"`
			Market     string `json:"market"`
			ModalPrice string `json:"modal_price"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unexpected market API response: %w", err)
	}

	prices := make([]MarketPrice, 0, len(payload.Records))
	for _, record := range payload.Records {
		modal := record.ModalPrice
		if modal == "" {
			modal = "N/A"
		}
		prices = append(prices, MarketPrice{
			Commodity: strings.TrimSpace(record.Commodity),
			Market:    strings.TrimSpace(record.Market),
			Price:     fmt.Sprintf("₹%s / Quintal", modal),
		})
	}

	return prices, nil
}

// GetPrices returns the cached quotes, refreshing from the API on a miss.
func (ms *MarketService) GetPrices(ctx context.Context) ([]MarketPrice, error) {
	if cached, err := storage.Redis.Get(ctx, marketPricesCacheKey).Result(); err == nil {
		var prices []MarketPrice
		if err := json.Unmarshal([]byte(cached), &prices); err == nil {
			return prices, nil
		}
	}

	prices, err := ms.FetchPrices(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(prices); err == nil {
		storage.Redis.Set(ctx, marketPricesCacheKey, data, marketPricesCacheTTL)
	}

	return prices, nil
}

// StartScheduler refreshes the price cache every 30 minutes during market
// hours so the first request after a cache expiry does not pay the API call.
func (ms *MarketService) StartScheduler() *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	scheduler.Every(30).Minutes().Do(func() {
		if _, open := ms.MarketStatus(); !open {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		prices, err := ms.FetchPrices(ctx)
		if err != nil {
			log.Printf("market: scheduled refresh failed: %v", err)
			return
		}
		if data, err := json.Marshal(prices); err == nil {
			storage.Redis.Set(ctx, marketPricesCacheKey, data, marketPricesCacheTTL)
		}
		log.Printf("market: refreshed %d price records", len(prices))
	})

	scheduler.StartAsync()
	return scheduler
}
