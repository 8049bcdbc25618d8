package usecase

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/domain"
)

const (
	enrichLimit       = 30 // catalog-order prefix that gets last price / funding
	enrichConcurrency = 8
	defaultPageLimit  = 50
)

// MarketFilter selects, orders and pages the cached catalog.
type MarketFilter struct {
	Type   string // all | spot | derivative | perpetual
	Search string // case-insensitive substring on ticker and symbols
	SortBy string // volume (default) | priceChange | ticker
	Order  string // asc | desc (default)
	Limit  int
	Offset int
}

// MarketService builds and serves the unified market catalog.
type MarketService struct {
	querier  domain.ChainQuerier
	resolver *denom.Resolver
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewMarketService(querier domain.ChainQuerier, resolver *denom.Resolver, c *cache.Cache, logger *zap.Logger) *MarketService {
	return &MarketService{
		querier:  querier,
		resolver: resolver,
		cache:    c,
		logger:   logger,
	}
}

func (s *MarketService) catalog(ctx context.Context) ([]domain.MarketInfo, error) {
	return cache.Typed(ctx, s.cache, "markets:catalog", TTLMarketCatalog, s.buildCatalog)
}

// GetMarkets applies type filter, search, sort and pagination in that
// order. The returned total is the filtered count before paging.
func (s *MarketService) GetMarkets(ctx context.Context, f MarketFilter) ([]domain.MarketInfo, int, error) {
	markets, err := s.catalog(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]domain.MarketInfo, 0, len(markets))
	for _, m := range markets {
		if !matchesType(m.Type, f.Type) {
			continue
		}
		if f.Search != "" && !matchesSearch(m, f.Search) {
			continue
		}
		filtered = append(filtered, m)
	}

	sortMarkets(filtered, f.SortBy, f.Order)

	total := len(filtered)
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.MarketInfo{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

// GetMarket returns nil for an unknown id; absence is not an error.
func (s *MarketService) GetMarket(ctx context.Context, marketID string) (*domain.MarketInfo, error) {
	markets, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range markets {
		if markets[i].MarketID == marketID {
			m := markets[i]
			return &m, nil
		}
	}
	return nil, nil
}

// matchesType implements the deliberate broadening of the perpetual
// filter: perpetuals are derivatives, so asking for perpetual also
// surfaces markets typed derivative.
func matchesType(mt domain.MarketType, want string) bool {
	switch want {
	case "", "all":
		return true
	case string(domain.MarketTypePerpetual):
		return mt == domain.MarketTypePerpetual || mt == domain.MarketTypeDerivative
	default:
		return string(mt) == want
	}
}

func matchesSearch(m domain.MarketInfo, search string) bool {
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(m.Ticker), q) ||
		strings.Contains(strings.ToLower(m.BaseSymbol), q) ||
		strings.Contains(strings.ToLower(m.QuoteSymbol), q)
}

func sortMarkets(markets []domain.MarketInfo, sortBy, order string) {
	asc := order == "asc"

	var less func(a, b domain.MarketInfo) bool
	switch sortBy {
	case "ticker":
		// Collator is per-call: it buffers internally and is not safe to
		// share across request goroutines.
		col := collate.New(language.English)
		less = func(a, b domain.MarketInfo) bool {
			return col.CompareString(a.Ticker, b.Ticker) < 0
		}
	case "priceChange":
		less = func(a, b domain.MarketInfo) bool { return a.PriceChange24h < b.PriceChange24h }
	default: // volume
		less = func(a, b domain.MarketInfo) bool { return a.Volume24h < b.Volume24h }
	}

	sort.SliceStable(markets, func(i, j int) bool {
		if asc {
			return less(markets[i], markets[j])
		}
		return less(markets[j], markets[i])
	})
}

func (s *MarketService) buildCatalog(ctx context.Context) ([]domain.MarketInfo, error) {
	var (
		spotMarkets  []domain.SpotMarket
		derivMarkets []domain.DerivativeMarket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spotMarkets, err = s.querier.GetSpotMarkets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		derivMarkets, err = s.querier.GetDerivativeMarkets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	markets := make([]domain.MarketInfo, 0, len(spotMarkets)+len(derivMarkets))
	for _, m := range spotMarkets {
		markets = append(markets, domain.MarketInfo{
			MarketID:            m.MarketID,
			Ticker:              m.Ticker,
			Type:                domain.MarketTypeSpot,
			BaseDenom:           m.BaseDenom,
			QuoteDenom:          m.QuoteDenom,
			BaseSymbol:          s.resolver.Resolve(m.BaseDenom).Symbol,
			QuoteSymbol:         s.resolver.Resolve(m.QuoteDenom).Symbol,
			Status:              m.Status,
			MinPriceTickSize:    m.MinPriceTickSize,
			MinQuantityTickSize: m.MinQuantityTickSize,
			Volume24h:           m.Volume24h,
			PriceChange24h:      m.PriceChange24h,
		})
	}
	for _, m := range derivMarkets {
		mtype := domain.MarketTypeDerivative
		if m.IsPerpetual {
			mtype = domain.MarketTypePerpetual
		}
		markets = append(markets, domain.MarketInfo{
			MarketID:            m.MarketID,
			Ticker:              m.Ticker,
			Type:                mtype,
			QuoteDenom:          m.QuoteDenom,
			BaseSymbol:          m.OracleBase,
			QuoteSymbol:         s.resolver.Resolve(m.QuoteDenom).Symbol,
			Status:              m.Status,
			MinPriceTickSize:    m.MinPriceTickSize,
			MinQuantityTickSize: m.MinQuantityTickSize,
			Volume24h:           m.Volume24h,
			PriceChange24h:      m.PriceChange24h,
		})
	}

	s.enrich(ctx, markets)
	return markets, nil
}

// enrich fills last price (and funding rate for perpetuals) for the first
// enrichLimit markets in catalog order. Every task isolates its own
// failure: an unreachable trade feed for one market leaves that market at
// its defaults and never fails the catalog build.
func (s *MarketService) enrich(ctx context.Context, markets []domain.MarketInfo) {
	n := len(markets)
	if n > enrichLimit {
		n = enrichLimit
	}

	var g errgroup.Group
	g.SetLimit(enrichConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			m := &markets[i]
			var (
				trades []domain.Trade
				err    error
			)
			if m.Type == domain.MarketTypeSpot {
				trades, err = s.querier.GetSpotTrades(ctx, m.MarketID, 1)
			} else {
				trades, err = s.querier.GetDerivativeTrades(ctx, m.MarketID, 1)
			}
			if err != nil {
				s.logger.Warn("market enrichment: trade fetch failed",
					zap.String("market_id", m.MarketID), zap.Error(err))
			} else if len(trades) > 0 {
				m.LastPrice = trades[0].Price
			}

			if m.Type == domain.MarketTypePerpetual {
				rates, err := s.querier.GetFundingRates(ctx, m.MarketID, 1)
				if err != nil {
					s.logger.Warn("market enrichment: funding fetch failed",
						zap.String("market_id", m.MarketID), zap.Error(err))
				} else if len(rates) > 0 {
					m.FundingRate = rates[0].Rate
				}
			}
			return nil
		})
	}
	g.Wait()
}
