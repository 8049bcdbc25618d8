package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/injective_dashboard/internal/infrastructure/logger"
	"github.com/vitos/injective_dashboard/internal/infrastructure/upstream"
)

// Smoke tool: hits the live endpoints and prints what the aggregator
// would see. Useful when a deployment points at new upstream URLs.
func main() {
	lcd := flag.String("lcd", upstream.DefaultLCDURL, "LCD base URL")
	indexer := flag.String("indexer", upstream.DefaultIndexerURL, "indexer base URL")
	address := flag.String("address", "", "optional inj address to query balances for")
	flag.Parse()

	log, err := logger.NewLogger("debug")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	client := upstream.NewClient(upstream.Config{
		LCDBaseURL:     *lcd,
		IndexerBaseURL: *indexer,
	}, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	spot, err := client.GetSpotMarkets(ctx)
	if err != nil {
		fmt.Printf("spot markets: ERROR %v\n", err)
	} else {
		fmt.Printf("spot markets: %d\n", len(spot))
	}

	deriv, err := client.GetDerivativeMarkets(ctx)
	if err != nil {
		fmt.Printf("derivative markets: ERROR %v\n", err)
	} else {
		fmt.Printf("derivative markets: %d\n", len(deriv))
	}

	if len(spot) > 0 {
		book, err := client.GetSpotOrderbook(ctx, spot[0].MarketID)
		if err != nil {
			fmt.Printf("orderbook %s: ERROR %v\n", spot[0].Ticker, err)
		} else {
			fmt.Printf("orderbook %s: %d bids / %d asks\n", spot[0].Ticker, len(book.Bids), len(book.Asks))
		}

		trades, err := client.GetSpotTrades(ctx, spot[0].MarketID, 1)
		if err != nil {
			fmt.Printf("trades %s: ERROR %v\n", spot[0].Ticker, err)
		} else if len(trades) > 0 {
			fmt.Printf("last trade %s: price=%v qty=%v\n", spot[0].Ticker, trades[0].Price, trades[0].Quantity)
		}
	}

	if *address != "" {
		accountID, err := client.ResolveAccountID(ctx, *address)
		if err != nil {
			fmt.Printf("resolve %s: ERROR %v\n", *address, err)
			return
		}
		fmt.Printf("account id: %s\n", accountID)

		coins, err := client.GetBankBalances(ctx, *address)
		if err != nil {
			fmt.Printf("balances: ERROR %v\n", err)
		} else {
			for _, c := range coins {
				fmt.Printf("balance: %s %s\n", c.Amount, c.Denom)
			}
		}
	}
}
