package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/domain"
)

// defaultSubaccountSuffix is the zero-padded index-0 suffix appended to
// the account identity to form the default subaccount id.
const defaultSubaccountSuffix = "000000000000000000000000"

// PortfolioService aggregates bank balances and derivative positions for
// one address into a valued portfolio view.
type PortfolioService struct {
	querier  domain.ChainQuerier
	resolver *denom.Resolver
	tokens   *TokenService
	markets  *MarketService
	logger   *zap.Logger
	timeNow  func() time.Time // For testing
}

func NewPortfolioService(querier domain.ChainQuerier, resolver *denom.Resolver, tokens *TokenService, markets *MarketService, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		querier:  querier,
		resolver: resolver,
		tokens:   tokens,
		markets:  markets,
		logger:   logger,
		timeNow:  time.Now,
	}
}

// GetPortfolio fails only when the address cannot be resolved to an
// account identity; every upstream failure past that point degrades to an
// empty section of the response.
func (s *PortfolioService) GetPortfolio(ctx context.Context, address string) (*domain.PortfolioResponse, error) {
	accountID, err := s.querier.ResolveAccountID(ctx, address)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return nil, err
		}
		return nil, domain.NewInvalidInput("cannot resolve address to an account", err)
	}
	subaccountID := accountID + defaultSubaccountSuffix

	var (
		coins     []domain.Coin
		positions []domain.PositionRecord
	)
	var g errgroup.Group
	g.Go(func() error {
		fetched, err := s.querier.GetBankBalances(ctx, address)
		if err != nil {
			s.logger.Warn("bank balances unavailable, serving empty",
				zap.String("address", address), zap.Error(err))
			return nil
		}
		coins = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := s.querier.GetDerivativePositions(ctx, subaccountID)
		if err != nil {
			s.logger.Warn("positions unavailable, serving empty",
				zap.String("subaccount_id", subaccountID), zap.Error(err))
			return nil
		}
		positions = fetched
		return nil
	})
	g.Wait()

	balances, totalBalanceValue := s.buildBalances(ctx, coins)
	derivPositions, totalMargin, totalPnL := s.buildPositions(ctx, positions)

	totalBalance, _ := totalBalanceValue.Float64()
	totalPositions, _ := totalMargin.Float64()
	totalUnrealized, _ := totalPnL.Float64()
	totalValue, _ := totalBalanceValue.Add(totalMargin).Float64()

	return &domain.PortfolioResponse{
		Address:             address,
		TotalValueUSD:       totalValue,
		Balances:            balances,
		DerivativePositions: derivPositions,
		Summary: domain.PortfolioSummary{
			TotalBalanceValueUSD:   totalBalance,
			TotalPositionsValueUSD: totalPositions,
			TotalUnrealizedPnL:     totalUnrealized,
			PositionsCount:         len(derivPositions),
		},
		Timestamp: s.timeNow().UTC(),
	}, nil
}

func (s *PortfolioService) buildBalances(ctx context.Context, coins []domain.Coin) ([]domain.PortfolioBalance, decimal.Decimal) {
	balances := make([]domain.PortfolioBalance, 0, len(coins))
	total := decimal.Zero

	for _, c := range coins {
		meta := s.resolver.Resolve(c.Denom)
		human := denom.ToHumanAmount(c.Amount, meta.Decimals)

		value := decimal.Zero
		if price := s.tokens.GetPrice(ctx, c.Denom); price > 0 {
			amount, err := decimal.NewFromString(human)
			if err != nil {
				s.logger.Warn("unparseable balance amount",
					zap.String("denom", c.Denom), zap.String("amount", c.Amount))
			} else {
				value = amount.Mul(decimal.NewFromFloat(price))
			}
		}
		total = total.Add(value)

		valueUSD, _ := value.Float64()
		balances = append(balances, domain.PortfolioBalance{
			Denom:       c.Denom,
			Symbol:      meta.Symbol,
			Amount:      c.Amount,
			AmountHuman: human,
			ValueUSD:    valueUSD,
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].ValueUSD > balances[j].ValueUSD
	})
	return balances, total
}

func (s *PortfolioService) buildPositions(ctx context.Context, records []domain.PositionRecord) ([]domain.DerivativePosition, decimal.Decimal, decimal.Decimal) {
	positions := make([]domain.DerivativePosition, 0, len(records))
	totalMargin := decimal.Zero
	totalPnL := decimal.Zero

	for _, r := range records {
		ticker := r.MarketID
		if market, err := s.markets.GetMarket(ctx, r.MarketID); err != nil {
			s.logger.Warn("market lookup failed for position",
				zap.String("market_id", r.MarketID), zap.Error(err))
		} else if market != nil {
			ticker = market.Ticker
		}

		direction := parseDirection(r.Direction)
		quantity := parseDecimal(r.Quantity)
		entry := parseDecimal(r.EntryPrice)
		mark := parseDecimal(r.MarkPrice)
		margin := parseDecimal(r.Margin)

		pnl := unrealizedPnL(direction, quantity, entry, mark)

		// Percent is relative to entry notional; a zero entry price has
		// no meaningful notional to divide by.
		pnlPercent := decimal.Zero
		if entry.IsPositive() && !quantity.IsZero() {
			pnlPercent = pnl.Div(entry.Mul(quantity)).Mul(decimal.NewFromInt(100))
		}

		totalMargin = totalMargin.Add(margin)
		totalPnL = totalPnL.Add(pnl)

		qtyF, _ := quantity.Float64()
		entryF, _ := entry.Float64()
		markF, _ := mark.Float64()
		marginF, _ := margin.Float64()
		pnlF, _ := pnl.Float64()
		pnlPctF, _ := pnlPercent.Float64()
		positions = append(positions, domain.DerivativePosition{
			MarketID:             r.MarketID,
			Ticker:               ticker,
			Direction:            direction,
			Quantity:             qtyF,
			EntryPrice:           entryF,
			MarkPrice:            markF,
			Margin:               marginF,
			UnrealizedPnL:        pnlF,
			UnrealizedPnLPercent: pnlPctF,
		})
	}
	return positions, totalMargin, totalPnL
}

// unrealizedPnL is (mark−entry)×qty for longs and (entry−mark)×qty for
// shorts, zero whenever either price is non-positive or the direction is
// unknown.
func unrealizedPnL(direction domain.Direction, quantity, entry, mark decimal.Decimal) decimal.Decimal {
	if !entry.IsPositive() || !mark.IsPositive() {
		return decimal.Zero
	}
	switch direction {
	case domain.DirectionLong:
		return mark.Sub(entry).Mul(quantity)
	case domain.DirectionShort:
		return entry.Sub(mark).Mul(quantity)
	default:
		return decimal.Zero
	}
}

func parseDirection(raw string) domain.Direction {
	switch strings.ToLower(raw) {
	case "long":
		return domain.DirectionLong
	case "short":
		return domain.DirectionShort
	default:
		return domain.DirectionUnknown
	}
}

func parseDecimal(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
