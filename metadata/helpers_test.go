package metadata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sig-0/feemeta/exchange/mock"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/storage/types"
)

// testReference scores FAST at 100, SLOW at 80 and FLAKY at 60
var testReference = network.Reference{
	"FAST":  {Network: "FAST", UptimePct: 100},
	"SLOW":  {Network: "SLOW", UptimePct: 50},
	"FLAKY": {Network: "FLAKY", UptimePct: 0},
}

func networkRecord(name, fee, minWithdrawal string) types.NetworkRecord {
	return types.NetworkRecord{
		Network:       name,
		WithdrawalFee: decimal.RequireFromString(fee),
		MinWithdrawal: decimal.RequireFromString(minWithdrawal),
	}
}

// exchangeData is the raw data an exchange adapter mock serves
type exchangeData struct {
	networks  map[string][]types.NetworkRecord
	fees      map[string]types.FeeRate
	liquidity map[string]types.Liquidity
}

func newAdapter(t *testing.T, name types.Exchange, data exchangeData) *mock.Adapter {
	t.Helper()

	return &mock.Adapter{
		Name: name,
		FetchWithdrawalNetworksFn: func(context.Context) (map[string][]types.NetworkRecord, error) {
			return data.networks, nil
		},
		FetchFeeRatesFn: func(context.Context) (map[string]types.FeeRate, error) {
			return data.fees, nil
		},
		FetchLiquidityFn: func(context.Context) (map[string]types.Liquidity, error) {
			return data.liquidity, nil
		},
	}
}

// binanceData has BTC and ETH complete, and SOL without a reliable network
func binanceData() exchangeData {
	return exchangeData{
		networks: map[string][]types.NetworkRecord{
			"BTC": {
				networkRecord("SLOW", "0.0005", "0.002"),
				networkRecord("FAST", "0.0002", "0.001"),
			},
			"ETH": {
				networkRecord("FAST", "0.004", "0.01"),
				networkRecord("FLAKY", "0.0001", "0.001"),
			},
			"SOL": {
				networkRecord("FLAKY", "0.01", "0.1"),
			},
		},
		fees: map[string]types.FeeRate{
			"BTCUSDT": {MakerFee: 0.001, TakerFee: 0.001},
			"ETHUSDT": {MakerFee: 0.001, TakerFee: 0.0015},
			"SOLUSDT": {MakerFee: 0.001, TakerFee: 0.001},
			"ETHBTC":  {MakerFee: 0.001, TakerFee: 0.001},
		},
		liquidity: map[string]types.Liquidity{
			"BTCUSDT": {Volume: 1000},
			"ETHUSDT": {Volume: 2000},
			"SOLUSDT": {Volume: 3000},
			"ETHBTC":  {Volume: 4000},
		},
	}
}

// bybitData has BTC complete, and ETH without liquidity
func bybitData() exchangeData {
	return exchangeData{
		networks: map[string][]types.NetworkRecord{
			"BTC": {
				networkRecord("SLOW", "0.0001", "0.0005"),
			},
			"ETH": {
				networkRecord("FAST", "0.003", "0.02"),
			},
		},
		fees: map[string]types.FeeRate{
			"BTCUSDT": {MakerFee: 0.002, TakerFee: 0.002},
			"ETHUSDT": {MakerFee: 0.002, TakerFee: 0.002},
		},
		liquidity: map[string]types.Liquidity{
			"BTCUSDT": {Volume: 500},
		},
	}
}
