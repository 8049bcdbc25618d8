package usecase

import "time"

// Cache TTLs per data family. Catalog data moves slowly, orderbooks fast;
// keys pick them up via cache.GetOrCompute, the cache itself has no
// global TTL.
const (
	TTLTokenList     = 120 * time.Second // full token set incl. last-trade pricing
	TTLPriceMap      = 60 * time.Second  // denom -> USD map consumed by portfolio valuation
	TTLMarketCatalog = 60 * time.Second  // unified spot+derivative catalog
	TTLAnalytics     = 15 * time.Second  // per-market orderbook analytics
)
