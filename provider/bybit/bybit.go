package bybit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/storage/types"
)

const DefaultBaseURL = "https://api.bybit.com"

const (
	coinInfoPath = "/v5/asset/coin/query-info"
	feeRatePath  = "/v5/account/fee-rate"
	tickersPath  = "/v5/market/tickers"

	headerAPIKey     = "X-BAPI-API-KEY"
	headerTimestamp  = "X-BAPI-TIMESTAMP"
	headerRecvWindow = "X-BAPI-RECV-WINDOW"
	headerSign       = "X-BAPI-SIGN"

	recvWindow   = "5000"
	spotCategory = "spot"
)

// Call names, used for error reporting
const (
	callWithdrawalNetworks = "withdrawal networks"
	callFeeRates           = "fee rates"
	callLiquidity          = "24h liquidity"
)

var (
	errMissingSymbol  = errors.New("missing symbol")
	errMissingResult  = errors.New("missing result")
	errMissingRetCode = errors.New("missing retCode")
	errMissingList    = errors.New("missing result list")
	errMissingChain   = errors.New("missing chain type")
)

// envelope is the common Bybit v5 response wrapper
type envelope struct {
	RetCode *int            `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type coinInfoResult struct {
	Rows *[]coinInfo `json:"rows"`
}

type coinInfo struct {
	Coin   string      `json:"coin"`
	Chains []chainInfo `json:"chains"`
}

type chainInfo struct {
	ChainType   string `json:"chainType"`
	WithdrawFee string `json:"withdrawFee"`
	WithdrawMin string `json:"withdrawMin"`
}

type feeRateResult struct {
	List *[]feeRate `json:"list"`
}

type feeRate struct {
	Symbol       string `json:"symbol"`
	MakerFeeRate string `json:"makerFeeRate"`
	TakerFeeRate string `json:"takerFeeRate"`
}

type tickersResult struct {
	List *[]ticker `json:"list"`
}

type ticker struct {
	Symbol       string `json:"symbol"`
	Volume24h    string `json:"volume24h"`
	Price24hPcnt string `json:"price24hPcnt"`
}

// Provider is the Bybit exchange adapter
type Provider struct {
	client      *exchange.Client
	now         func() time.Time
	baseURL     string
	credentials exchange.Credentials
	rps         float64
}

// NewProvider creates a new instance of the Bybit adapter
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

	p.client = exchange.NewClient(types.ExchangeBybit, timeout, p.rps)

	return p
}

func (p *Provider) Exchange() types.Exchange {
	return types.ExchangeBybit
}

func (p *Provider) FetchWithdrawalNetworks(ctx context.Context) (map[string][]types.NetworkRecord, error) {
	var result coinInfoResult

	if err := p.get(ctx, callWithdrawalNetworks, coinInfoPath, url.Values{}, true, &result); err != nil {
		return nil, err
	}

	if result.Rows == nil {
		return nil, p.protocolErr(callWithdrawalNetworks, errMissingList)
	}

	out := make(map[string][]types.NetworkRecord, len(*result.Rows))

	for _, coin := range *result.Rows {
		if coin.Coin == "" {
			return nil, p.protocolErr(callWithdrawalNetworks, errMissingSymbol)
		}

		records := make([]types.NetworkRecord, 0, len(coin.Chains))

		for _, chain := range coin.Chains {
			// Chains without a withdrawal fee or minimum don't support withdrawals
			if strings.TrimSpace(chain.WithdrawFee) == "" || strings.TrimSpace(chain.WithdrawMin) == "" {
				continue
			}

			if strings.TrimSpace(chain.ChainType) == "" {
				return nil, p.protocolErr(
					callWithdrawalNetworks,
					fmt.Errorf("coin %s: %w", coin.Coin, errMissingChain),
				)
			}

			fee, err := exchange.ParseDecimal("withdrawFee", chain.WithdrawFee)
			if err != nil {
				return nil, p.protocolErr(callWithdrawalNetworks, fmt.Errorf("coin %s: %w", coin.Coin, err))
			}

			minWithdrawal, err := exchange.ParseDecimal("withdrawMin", chain.WithdrawMin)
			if err != nil {
				return nil, p.protocolErr(callWithdrawalNetworks, fmt.Errorf("coin %s: %w", coin.Coin, err))
			}

			records = append(records, types.NetworkRecord{
				Network:       network.Normalize(chain.ChainType),
				MinWithdrawal: minWithdrawal,
				WithdrawalFee: fee,
			})
		}

		if len(records) == 0 {
			continue
		}

		out[coin.Coin] = records
	}

	return out, nil
}

func (p *Provider) FetchFeeRates(ctx context.Context) (map[string]types.FeeRate, error) {
	var result feeRateResult

	query := url.Values{}
	query.Set("category", spotCategory)

	if err := p.get(ctx, callFeeRates, feeRatePath, query, true, &result); err != nil {
		return nil, err
	}

	if result.List == nil {
		return nil, p.protocolErr(callFeeRates, errMissingList)
	}

	out := make(map[string]types.FeeRate, len(*result.List))

	for _, fee := range *result.List {
		if fee.Symbol == "" {
			return nil, p.protocolErr(callFeeRates, errMissingSymbol)
		}

		maker, err := exchange.ParseFloat("makerFeeRate", fee.MakerFeeRate)
		if err != nil {
			return nil, p.protocolErr(callFeeRates, err)
		}

		taker, err := exchange.ParseFloat("takerFeeRate", fee.TakerFeeRate)
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
	var result tickersResult

	query := url.Values{}
	query.Set("category", spotCategory)

	// Public endpoint, no signature required
	if err := p.get(ctx, callLiquidity, tickersPath, query, false, &result); err != nil {
		return nil, err
	}

	if result.List == nil {
		return nil, p.protocolErr(callLiquidity, errMissingList)
	}

	out := make(map[string]types.Liquidity, len(*result.List))

	for _, t := range *result.List {
		if t.Symbol == "" {
			return nil, p.protocolErr(callLiquidity, errMissingSymbol)
		}

		volume, err := exchange.ParseFloat("volume24h", t.Volume24h)
		if err != nil {
			return nil, p.protocolErr(callLiquidity, err)
		}

		// Bybit reports the change as a fraction
		priceChange, err := exchange.ParseOptionalFloat("price24hPcnt", t.Price24hPcnt)
		if err != nil {
			return nil, p.protocolErr(callLiquidity, err)
		}

		if priceChange != nil {
			pct := *priceChange * 100
			priceChange = &pct
		}

		out[t.Symbol] = types.Liquidity{
			Volume:         volume,
			PriceChangePct: priceChange,
		}
	}

	return out, nil
}

// get executes a v5 GET request, unwraps the response envelope
// and decodes the result into out
func (p *Provider) get(
	ctx context.Context,
	call string,
	path string,
	query url.Values,
	signed bool,
	out any,
) error {
	var (
		encoded  = query.Encode()
		endpoint = p.baseURL + path
		header   = http.Header{}
	)

	if encoded != "" {
		endpoint += "?" + encoded
	}

	if signed {
		timestamp := strconv.FormatInt(p.now().UnixMilli(), 10)

		header.Set(headerAPIKey, p.credentials.APIKey)
		header.Set(headerTimestamp, timestamp)
		header.Set(headerRecvWindow, recvWindow)
		header.Set(
			headerSign,
			exchange.Sign(
				p.credentials.APISecret,
				timestamp+p.credentials.APIKey+recvWindow+encoded,
			),
		)
	}

	var env envelope

	if err := p.client.GetJSON(ctx, call, endpoint, header, &env); err != nil {
		return err
	}

	if env.RetCode == nil {
		return p.protocolErr(call, errMissingRetCode)
	}

	if *env.RetCode != 0 {
		return exchange.Unavailable(
			types.ExchangeBybit,
			call,
			fmt.Errorf("retCode %d: %s", *env.RetCode, env.RetMsg),
		)
	}

	if result := bytes.TrimSpace(env.Result); len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return p.protocolErr(call, errMissingResult)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return p.protocolErr(call, fmt.Errorf("unable to decode result: %w", err))
	}

	return nil
}

func (p *Provider) protocolErr(call string, err error) error {
	return exchange.Protocol(types.ExchangeBybit, call, err)
}
