package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/storage/types"
)

const DefaultBaseURL = "https://api.binance.com"

const (
	capitalConfigPath = "/sapi/v1/capital/config/getall"
	tradeFeePath      = "/sapi/v1/asset/tradeFee"
	tickerPath        = "/api/v3/ticker/24hr"

	apiKeyHeader = "X-MBX-APIKEY"
	recvWindow   = "5000"
)

var (
	errMissingCoin    = errors.New("missing coin symbol")
	errMissingSymbol  = errors.New("missing symbol")
	errMissingNetwork = errors.New("missing network name")
	errMissingList    = errors.New("missing response list")
	errMissingNetList = errors.New("missing network list")
)

// Call names, used for error reporting
const (
	callWithdrawalNetworks = "withdrawal networks"
	callFeeRates           = "fee rates"
	callLiquidity          = "24h liquidity"
)

type coinConfig struct {
	NetworkList *[]networkConfig `json:"networkList"`
	Coin        string           `json:"coin"`
}

type networkConfig struct {
	Network     string `json:"network"`
	WithdrawFee string `json:"withdrawFee"`
	WithdrawMin string `json:"withdrawMin"`
	WithdrawMax string `json:"withdrawMax"`
}

type tradeFee struct {
	Symbol          string `json:"symbol"`
	MakerCommission string `json:"makerCommission"`
	TakerCommission string `json:"takerCommission"`
}

type ticker struct {
	Symbol             string `json:"symbol"`
	Volume             string `json:"volume"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Provider is the Binance exchange adapter
type Provider struct {
	client      *exchange.Client
	now         func() time.Time
	baseURL     string
	credentials exchange.Credentials
	rps         float64
}

// NewProvider creates a new instance of the Binance adapter
func NewProvider(
	credentials exchange.Credentials,
	timeout time.Duration,
	opts ...Option,
) *Provider {
	p := &Provider{
		now:         time.Now,
		baseURL:     DefaultBaseURL,
		credentials: credentials,
		rps:         exchange.DefaultRequestsPerSecond,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.client = exchange.NewClient(types.ExchangeBinance, timeout, p.rps)

	return p
}

func (p *Provider) Exchange() types.Exchange {
	return types.ExchangeBinance
}

func (p *Provider) FetchWithdrawalNetworks(ctx context.Context) (map[string][]types.NetworkRecord, error) {
	var coins []coinConfig

	if err := p.getSigned(ctx, callWithdrawalNetworks, capitalConfigPath, &coins); err != nil {
		return nil, err
	}

	if coins == nil {
		return nil, p.protocolErr(callWithdrawalNetworks, errMissingList)
	}

	out := make(map[string][]types.NetworkRecord, len(coins))

	for _, coin := range coins {
		if coin.Coin == "" {
			return nil, p.protocolErr(callWithdrawalNetworks, errMissingCoin)
		}

		if coin.NetworkList == nil {
			return nil, p.protocolErr(
				callWithdrawalNetworks,
				fmt.Errorf("coin %s: %w", coin.Coin, errMissingNetList),
			)
		}

		records := make([]types.NetworkRecord, 0, len(*coin.NetworkList))

		for _, n := range *coin.NetworkList {
			record, err := parseNetwork(n)
			if err != nil {
				return nil, p.protocolErr(
					callWithdrawalNetworks,
					fmt.Errorf("coin %s: %w", coin.Coin, err),
				)
			}

			records = append(records, record)
		}

		out[coin.Coin] = records
	}

	return out, nil
}

func (p *Provider) FetchFeeRates(ctx context.Context) (map[string]types.FeeRate, error) {
	var fees []tradeFee

	if err := p.getSigned(ctx, callFeeRates, tradeFeePath, &fees); err != nil {
		return nil, err
	}

	if fees == nil {
		return nil, p.protocolErr(callFeeRates, errMissingList)
	}

	out := make(map[string]types.FeeRate, len(fees))

	for _, fee := range fees {
		if fee.Symbol == "" {
			return nil, p.protocolErr(callFeeRates, errMissingSymbol)
		}

		maker, err := exchange.ParseFloat("makerCommission", fee.MakerCommission)
		if err != nil {
			return nil, p.protocolErr(callFeeRates, err)
		}

		taker, err := exchange.ParseFloat("takerCommission", fee.TakerCommission)
		if err != nil {
			return nil, p.protocolErr(callFeeRates, err)
		}

		out[fee.Symbol] = types.FeeRate{
			MakerFee: maker,
			TakerFee: taker,
		}
	}

	return out, nil
}

func (p *Provider) FetchLiquidity(ctx context.Context) (map[string]types.Liquidity, error) {
	var tickers []ticker

	// Public endpoint, no signature required
	if err := p.client.GetJSON(ctx, callLiquidity, p.baseURL+tickerPath, nil, &tickers); err != nil {
		return nil, err
	}

	if tickers == nil {
		return nil, p.protocolErr(callLiquidity, errMissingList)
	}

	out := make(map[string]types.Liquidity, len(tickers))

	for _, t := range tickers {
		if t.Symbol == "" {
			return nil, p.protocolErr(callLiquidity, errMissingSymbol)
		}

		volume, err := exchange.ParseFloat("volume", t.Volume)
		if err != nil {
			return nil, p.protocolErr(callLiquidity, err)
		}

		priceChange, err := exchange.ParseOptionalFloat("priceChangePercent", t.PriceChangePercent)
		if err != nil {
			return nil, p.protocolErr(callLiquidity, err)
		}

		out[t.Symbol] = types.Liquidity{
			Volume:         volume,
			PriceChangePct: priceChange,
		}
	}

	return out, nil
}

// getSigned executes a signed (USER_DATA) GET request
func (p *Provider) getSigned(ctx context.Context, call, path string, out any) error {
	params := url.Values{}
	params.Set("recvWindow", recvWindow)
	params.Set("timestamp", strconv.FormatInt(p.now().UnixMilli(), 10))

	var (
		query     = params.Encode()
		signature = exchange.Sign(p.credentials.APISecret, query)
		endpoint  = fmt.Sprintf("%s%s?%s&signature=%s", p.baseURL, path, query, signature)
	)

	header := http.Header{}
	header.Set(apiKeyHeader, p.credentials.APIKey)

	return p.client.GetJSON(ctx, call, endpoint, header, out)
}

func (p *Provider) protocolErr(call string, err error) error {
	return exchange.Protocol(types.ExchangeBinance, call, err)
}

// parseNetwork parses a single coin network entry
func parseNetwork(n networkConfig) (types.NetworkRecord, error) {
	if strings.TrimSpace(n.Network) == "" {
		return types.NetworkRecord{}, errMissingNetwork
	}

	fee, err := exchange.ParseDecimal("withdrawFee", n.WithdrawFee)
	if err != nil {
		return types.NetworkRecord{}, err
	}

	minWithdrawal, err := exchange.ParseDecimal("withdrawMin", n.WithdrawMin)
	if err != nil {
		return types.NetworkRecord{}, err
	}

	record := types.NetworkRecord{
		Network:       network.Normalize(n.Network),
		MinWithdrawal: minWithdrawal,
		WithdrawalFee: fee,
	}

	// The max withdrawal is informational only
	if maxWithdrawal, err := decimal.NewFromString(n.WithdrawMax); err == nil {
		record.MaxWithdrawal = decimal.NewNullDecimal(maxWithdrawal)
	}

	return record, nil
}
