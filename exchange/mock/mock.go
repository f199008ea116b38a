package mock

import (
	"context"

	"github.com/sig-0/feemeta/storage/types"
)

type (
	FetchWithdrawalNetworksDelegate func(context.Context) (map[string][]types.NetworkRecord, error)
	FetchFeeRatesDelegate           func(context.Context) (map[string]types.FeeRate, error)
	FetchLiquidityDelegate          func(context.Context) (map[string]types.Liquidity, error)
)

type Adapter struct {
	FetchWithdrawalNetworksFn FetchWithdrawalNetworksDelegate
	FetchFeeRatesFn           FetchFeeRatesDelegate
	FetchLiquidityFn          FetchLiquidityDelegate

	Name types.Exchange
}

func (m *Adapter) Exchange() types.Exchange {
	return m.Name
}

func (m *Adapter) FetchWithdrawalNetworks(ctx context.Context) (map[string][]types.NetworkRecord, error) {
	if m.FetchWithdrawalNetworksFn != nil {
		return m.FetchWithdrawalNetworksFn(ctx)
	}

	return nil, nil
}

func (m *Adapter) FetchFeeRates(ctx context.Context) (map[string]types.FeeRate, error) {
	if m.FetchFeeRatesFn != nil {
		return m.FetchFeeRatesFn(ctx)
	}

	return nil, nil
}

func (m *Adapter) FetchLiquidity(ctx context.Context) (map[string]types.Liquidity, error) {
	if m.FetchLiquidityFn != nil {
		return m.FetchLiquidityFn(ctx)
	}

	return nil, nil
}
