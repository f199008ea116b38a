package exchange

import (
	"context"

	"github.com/sig-0/feemeta/storage/types"
)

// Adapter is a single exchange data source
type Adapter interface {
	// Exchange returns the exchange name, used for column qualification
	Exchange() types.Exchange

	// FetchWithdrawalNetworks fetches the withdrawal networks per coin,
	// with network labels normalized to canonical symbols
	FetchWithdrawalNetworks(context.Context) (map[string][]types.NetworkRecord, error)

	// FetchFeeRates fetches the maker / taker fee rates per trading symbol
	FetchFeeRates(context.Context) (map[string]types.FeeRate, error)

	// FetchLiquidity fetches the 24h volume and price change per trading symbol
	FetchLiquidity(context.Context) (map[string]types.Liquidity, error)
}
