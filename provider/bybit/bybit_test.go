package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/feemeta/exchange"
)

var testCredentials = exchange.Credentials{
	APIKey:    "api-key",
	APISecret: "api-secret",
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

// newTestProvider creates a provider pointed at a test server
// serving the given body for the given path
func newTestProvider(t *testing.T, path, body string) *Provider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewProvider(
		testCredentials,
		time.Second,
		WithBaseURL(srv.URL),
		WithClock(fixedClock),
	)
}

func TestProvider_FetchWithdrawalNetworks(t *testing.T) {
	t.Parallel()

	t.Run("signed request", func(t *testing.T) {
		t.Parallel()

		var header http.Header

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header = r.Header.Clone()

			_, _ = w.Write([]byte(`{"retCode": 0, "retMsg": "OK", "result": {"rows": []}}`))
		}))
		defer srv.Close()

		p := NewProvider(testCredentials, time.Second, WithBaseURL(srv.URL), WithClock(fixedClock))

		_, err := p.FetchWithdrawalNetworks(context.Background())
		require.NoError(t, err)

		assert.Equal(t, testCredentials.APIKey, header.Get(headerAPIKey))
		assert.Equal(t, "1700000000000", header.Get(headerTimestamp))
		assert.Equal(t, recvWindow, header.Get(headerRecvWindow))
		assert.Equal(
			t,
			exchange.Sign(testCredentials.APISecret, "1700000000000api-key5000"),
			header.Get(headerSign),
		)
	})

	t.Run("valid chains", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, coinInfoPath, `{
			"retCode": 0,
			"retMsg": "success",
			"result": {
				"rows": [
					{
						"coin": "USDT",
						"chains": [
							{"chainType": "ERC20", "withdrawFee": "4", "withdrawMin": "10"},
							{"chainType": "TRC20", "withdrawFee": "1", "withdrawMin": "2"},
							{"chainType": "Arbitrum One", "withdrawFee": "", "withdrawMin": "1"}
						]
					},
					{
						"coin": "NOCHAIN",
						"chains": []
					}
				]
			}
		}`)

		networks, err := p.FetchWithdrawalNetworks(context.Background())
		require.NoError(t, err)

		require.Len(t, networks, 1)
		require.Len(t, networks["USDT"], 2)

		assert.Equal(t, "ETH", networks["USDT"][0].Network)
		assert.Equal(t, "TRX", networks["USDT"][1].Network)
		assert.True(t, networks["USDT"][1].MinWithdrawal.Equal(decimal.NewFromInt(2)))
		assert.True(t, networks["USDT"][1].WithdrawalFee.Equal(decimal.NewFromInt(1)))
		assert.False(t, networks["USDT"][1].MaxWithdrawal.Valid)
	})

	t.Run("invalid fee", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, coinInfoPath, `{
			"retCode": 0,
			"result": {"rows": [{"coin": "USDT", "chains": [{"chainType": "ERC20", "withdrawFee": "n/a", "withdrawMin": "1"}]}]}
		}`)

		_, err := p.FetchWithdrawalNetworks(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
	})

	t.Run("rejected call", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, coinInfoPath, `{"retCode": 10003, "retMsg": "API key is invalid."}`)

		_, err := p.FetchWithdrawalNetworks(context.Background())
		assert.ErrorIs(t, err, exchange.ErrUnavailable)
	})

	t.Run("missing result", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, coinInfoPath, `{"retCode": 0, "retMsg": "OK"}`)

		_, err := p.FetchWithdrawalNetworks(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
		assert.ErrorIs(t, err, errMissingResult)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name        string
			body        string
			expectedErr error
		}{
			{
				"missing retCode",
				`{"retMsg": "x", "result": {"rows": []}}`,
				errMissingRetCode,
			},
			{
				"null result",
				`{"retCode": 0, "result": null}`,
				errMissingResult,
			},
			{
				"null body",
				`null`,
				errMissingRetCode,
			},
			{
				"missing rows",
				`{"retCode": 0, "result": {}}`,
				errMissingList,
			},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				p := newTestProvider(t, coinInfoPath, testCase.body)

				networks, err := p.FetchWithdrawalNetworks(context.Background())
				require.Error(t, err)

				assert.Nil(t, networks)
				assert.ErrorIs(t, err, exchange.ErrProtocol)
				assert.ErrorIs(t, err, testCase.expectedErr)
			})
		}
	})

	t.Run("missing chain type", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, coinInfoPath, `{
			"retCode": 0,
			"result": {"rows": [{"coin": "USDT", "chains": [{"chainType": " ", "withdrawFee": "1", "withdrawMin": "2"}]}]}
		}`)

		_, err := p.FetchWithdrawalNetworks(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
		assert.ErrorIs(t, err, errMissingChain)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewProvider(testCredentials, time.Second, WithBaseURL(srv.URL))

		_, err := p.FetchWithdrawalNetworks(context.Background())
		assert.ErrorIs(t, err, exchange.ErrUnavailable)
	})
}

func TestProvider_FetchFeeRates(t *testing.T) {
	t.Parallel()

	t.Run("spot category", func(t *testing.T) {
		t.Parallel()

		var (
			category string
			sign     string
		)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			category = r.URL.Query().Get("category")
			sign = r.Header.Get(headerSign)

			_, _ = w.Write([]byte(`{"retCode": 0, "result": {"list": [
				{"symbol": "BTCUSDT", "makerFeeRate": "0.001", "takerFeeRate": "0.001"}
			]}}`))
		}))
		defer srv.Close()

		p := NewProvider(testCredentials, time.Second, WithBaseURL(srv.URL), WithClock(fixedClock))

		fees, err := p.FetchFeeRates(context.Background())
		require.NoError(t, err)

		assert.Equal(t, spotCategory, category)
		assert.Equal(
			t,
			exchange.Sign(testCredentials.APISecret, "1700000000000api-key5000category=spot"),
			sign,
		)

		require.Contains(t, fees, "BTCUSDT")
		assert.Equal(t, 0.001, fees["BTCUSDT"].MakerFee)
		assert.Equal(t, 0.001, fees["BTCUSDT"].TakerFee)
	})

	t.Run("missing symbol", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, feeRatePath, `{"retCode": 0, "result": {"list": [
			{"makerFeeRate": "0.001", "takerFeeRate": "0.001"}
		]}}`)

		_, err := p.FetchFeeRates(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
	})

	t.Run("missing retCode", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, feeRatePath, `{"retMsg": "x", "result": {"list": []}}`)

		fees, err := p.FetchFeeRates(context.Background())
		require.Error(t, err)

		assert.Nil(t, fees)
		assert.ErrorIs(t, err, exchange.ErrProtocol)
		assert.ErrorIs(t, err, errMissingRetCode)
	})

	t.Run("null result", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, feeRatePath, `{"retCode": 0, "result": null}`)

		_, err := p.FetchFeeRates(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
		assert.ErrorIs(t, err, errMissingResult)
	})
}

func TestProvider_FetchLiquidity(t *testing.T) {
	t.Parallel()

	t.Run("unsigned request", func(t *testing.T) {
		t.Parallel()

		var sign string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sign = r.Header.Get(headerSign)

			_, _ = w.Write([]byte(`{"retCode": 0, "result": {"category": "spot", "list": [
				{"symbol": "BTCUSDT", "volume24h": "2500.5", "price24hPcnt": "0.025"},
				{"symbol": "ETHUSDT", "volume24h": "10"}
			]}}`))
		}))
		defer srv.Close()

		p := NewProvider(testCredentials, time.Second, WithBaseURL(srv.URL))

		liquidity, err := p.FetchLiquidity(context.Background())
		require.NoError(t, err)

		assert.Empty(t, sign)

		require.Len(t, liquidity, 2)
		assert.Equal(t, 2500.5, liquidity["BTCUSDT"].Volume)
		require.NotNil(t, liquidity["BTCUSDT"].PriceChangePct)
		assert.InDelta(t, 2.5, *liquidity["BTCUSDT"].PriceChangePct, 1e-9)
		assert.Nil(t, liquidity["ETHUSDT"].PriceChangePct)
	})

	t.Run("invalid volume", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, tickersPath, `{"retCode": 0, "result": {"list": [
			{"symbol": "BTCUSDT", "volume24h": "lots"}
		]}}`)

		_, err := p.FetchLiquidity(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
	})

	t.Run("missing list", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, tickersPath, `{"retCode": 0, "result": {"category": "spot"}}`)

		_, err := p.FetchLiquidity(context.Background())
		assert.ErrorIs(t, err, exchange.ErrProtocol)
		assert.ErrorIs(t, err, errMissingList)
	})
}
