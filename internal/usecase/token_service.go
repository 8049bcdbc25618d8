package usecase

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/domain"
)

// referenceStableDenom is the quote asset used for last-trade USD pricing:
// every spot market quoted in it prices its base denom.
const referenceStableDenom = "peggy0xdAC17F958D2ee523a2206206994597C13D831ec7"

// stablecoinDenoms are pinned to 1.0 instead of being priced off trades.
var stablecoinDenoms = map[string]bool{
	"peggy0xdAC17F958D2ee523a2206206994597C13D831ec7": true, // USDT
	"peggy0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": true, // USDC
	"factory/inj1hdvy6tl89llqy3ze8lv6mz5qh66sx9enn0jxg6/inj12sqy9uzzl3h3vqxam7sz9f0yvmhampcgzjc462": true, // AUSD
}

const pricingConcurrency = 8

// TokenService discovers every token referenced by the known markets,
// resolves identity for each and derives USD prices from recent trades.
type TokenService struct {
	querier  domain.ChainQuerier
	resolver *denom.Resolver
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewTokenService(querier domain.ChainQuerier, resolver *denom.Resolver, c *cache.Cache, logger *zap.Logger) *TokenService {
	return &TokenService{
		querier:  querier,
		resolver: resolver,
		cache:    c,
		logger:   logger,
	}
}

// GetAllTokens returns the full token set, rebuilt at most once per TTL.
func (s *TokenService) GetAllTokens(ctx context.Context) ([]domain.Token, error) {
	return cache.Typed(ctx, s.cache, "tokens:all", TTLTokenList, s.buildTokens)
}

// GetToken never fails: a denom with no catalog presence still resolves to
// a best-effort identity with price 0.
func (s *TokenService) GetToken(ctx context.Context, d string) domain.Token {
	tokens, err := s.GetAllTokens(ctx)
	if err != nil {
		s.logger.Warn("token set unavailable, falling back to resolver", zap.String("denom", d), zap.Error(err))
	} else {
		for _, t := range tokens {
			if t.Denom == d {
				return t
			}
		}
	}
	meta := s.resolver.Resolve(d)
	return domain.Token{
		Denom:    d,
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Decimals: meta.Decimals,
	}
}

// GetPriceMap returns the denom→USD map consumed by portfolio valuation.
// Cached on its own shorter TTL than the token set.
func (s *TokenService) GetPriceMap(ctx context.Context) (map[string]float64, error) {
	return cache.Typed(ctx, s.cache, "tokens:prices", TTLPriceMap, func(ctx context.Context) (map[string]float64, error) {
		tokens, err := s.GetAllTokens(ctx)
		if err != nil {
			return nil, err
		}
		prices := make(map[string]float64, len(tokens))
		for _, t := range tokens {
			if t.PriceUSD > 0 {
				prices[t.Denom] = t.PriceUSD
			}
		}
		return prices, nil
	})
}

// GetPrice returns 0 for any denom without a discovered price.
func (s *TokenService) GetPrice(ctx context.Context, d string) float64 {
	prices, err := s.GetPriceMap(ctx)
	if err != nil {
		s.logger.Warn("price map unavailable", zap.Error(err))
		return 0
	}
	return prices[d]
}

func (s *TokenService) buildTokens(ctx context.Context) ([]domain.Token, error) {
	var (
		spotMarkets  []domain.SpotMarket
		derivMarkets []domain.DerivativeMarket
		chainMeta    []domain.DenomMetadata
	)

	// Market catalogs are mandatory: without them there is no token set.
	// Chain metadata only supplies symbol/name overrides, so its failure
	// degrades to resolver-only identity.
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
	g.Go(func() error {
		meta, err := s.querier.GetDenomsMetadata(gctx)
		if err != nil {
			s.logger.Warn("denom metadata unavailable", zap.Error(err))
			return nil
		}
		chainMeta = meta
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metaByDenom := make(map[string]domain.DenomMetadata, len(chainMeta))
	for _, m := range chainMeta {
		metaByDenom[m.Denom] = m
	}

	denomSet := make(map[string]bool)
	for _, m := range spotMarkets {
		denomSet[m.BaseDenom] = true
		denomSet[m.QuoteDenom] = true
	}
	for _, m := range derivMarkets {
		denomSet[m.QuoteDenom] = true
	}
	for _, d := range s.resolver.KnownDenoms() {
		denomSet[d] = true
	}
	delete(denomSet, "")

	prices := s.derivePrices(ctx, spotMarkets)

	tokens := make([]domain.Token, 0, len(denomSet))
	for d := range denomSet {
		resolved := s.resolver.Resolve(d)
		t := domain.Token{
			Denom:    d,
			Symbol:   resolved.Symbol,
			Name:     resolved.Name,
			Decimals: resolved.Decimals, // decimals always come from the resolver
			PriceUSD: prices[d],
		}
		if cm, ok := metaByDenom[d]; ok {
			if cm.Symbol != "" {
				t.Symbol = cm.Symbol
			}
			if cm.Name != "" {
				t.Name = cm.Name
			}
		}
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Denom < tokens[j].Denom })
	return tokens, nil
}

// derivePrices implements last-trade pricing: for every spot market quoted
// in the reference stablecoin, the most recent trade prices the base
// denom. A market with no trade or a failed fetch contributes nothing.
func (s *TokenService) derivePrices(ctx context.Context, spotMarkets []domain.SpotMarket) map[string]float64 {
	prices := make(map[string]float64)
	for d := range stablecoinDenoms {
		prices[d] = 1.0
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(pricingConcurrency)

	for _, m := range spotMarkets {
		if m.QuoteDenom != referenceStableDenom {
			continue
		}
		g.Go(func() error {
			trades, err := s.querier.GetSpotTrades(ctx, m.MarketID, 1)
			if err != nil {
				s.logger.Warn("pricing trade fetch failed",
					zap.String("market_id", m.MarketID), zap.Error(err))
				return nil
			}
			if len(trades) == 0 {
				return nil
			}
			price := s.humanPrice(trades[0].Price, m.BaseDenom, m.QuoteDenom)
			mu.Lock()
			prices[m.BaseDenom] = price
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return prices
}

// humanPrice converts a raw trade price into quote-per-base human units.
// The indexer scales raw prices by 10^(quoteDecimals-baseDecimals), so
// the adjustment exponent is baseDecimals-quoteDecimals.
func (s *TokenService) humanPrice(rawPrice float64, baseDenom, quoteDenom string) float64 {
	baseDec := s.resolver.Resolve(baseDenom).Decimals
	quoteDec := s.resolver.Resolve(quoteDenom).Decimals
	return rawPrice * math.Pow(10, float64(baseDec-quoteDec))
}
