package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/storage/types"
)

// BuildExchangeTable fetches the exchange's withdrawal networks, fee rates
// and liquidity, and outer-merges them on the trading symbol.
// Each coin is keyed by its quote pair (coin + quote), using the cheapest
// network whose reliability is above the threshold. Coins without such a
// network are left out of the withdrawal data. Fee and liquidity symbols
// are limited to the quote asset, if set
func BuildExchangeTable(
	ctx context.Context,
	adapter exchange.Adapter,
	reference network.Reference,
	threshold float64,
	quote string,
) (*types.ExchangeTable, error) {
	var (
		networks  map[string][]types.NetworkRecord
		fees      map[string]types.FeeRate
		liquidity map[string]types.Liquidity
	)

	// The calls are independent
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		networks, err = adapter.FetchWithdrawalNetworks(gCtx)

		return err
	})

	g.Go(func() error {
		var err error

		fees, err = adapter.FetchFeeRates(gCtx)

		return err
	})

	g.Go(func() error {
		var err error

		liquidity, err = adapter.FetchLiquidity(gCtx)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("unable to build %s table: %w", adapter.Exchange(), err)
	}

	rows := make(map[string]*types.ExchangeRow)

	row := func(symbol string) *types.ExchangeRow {
		r, ok := rows[symbol]
		if !ok {
			r = &types.ExchangeRow{Symbol: symbol}
			rows[symbol] = r
		}

		return r
	}

	for coin, candidates := range networks {
		best, ok := reference.SelectBest(candidates, threshold)
		if !ok {
			continue
		}

		row(coin + quote).Network = &best
	}

	for symbol, fee := range fees {
		if !quoted(symbol, quote) {
			continue
		}

		row(symbol).Fees = &fee
	}

	for symbol, l := range liquidity {
		if !quoted(symbol, quote) {
			continue
		}

		row(symbol).Liquidity = &l
	}

	table := &types.ExchangeTable{
		Exchange: adapter.Exchange(),
		Rows:     make([]*types.ExchangeRow, 0, len(rows)),
	}

	for _, r := range rows {
		table.Rows = append(table.Rows, r)
	}

	sort.Slice(table.Rows, func(i, j int) bool {
		return table.Rows[i].Symbol < table.Rows[j].Symbol
	})

	return table, nil
}

// quoted checks if the trading symbol is quoted in the given asset
func quoted(symbol, quote string) bool {
	if quote == "" {
		return true
	}

	return len(symbol) > len(quote) && strings.HasSuffix(symbol, quote)
}
