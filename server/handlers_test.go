package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/server/config"
	"github.com/sig-0/feemeta/storage/file"
	"github.com/sig-0/feemeta/storage/types"
)

func generateSnapshot(t *testing.T) *types.Snapshot {
	t.Helper()

	return &types.Snapshot{
		GeneratedAt: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		ID:          "cv0a1b2c3d4e5f6g7h8i",
		Table: &types.Table{
			Exchanges: []types.Exchange{types.ExchangeBinance, types.ExchangeBybit},
			Rows: []*types.Row{
				{
					Symbol: "BTCUSDT",
					Entries: []types.Entry{
						{
							Network:          "BTC",
							WithdrawalFee:    decimal.RequireFromString("0.0002"),
							MinWithdrawal:    decimal.RequireFromString("0.001"),
							ReliabilityScore: 75.5,
							MakerFee:         0.001,
							TakerFee:         0.001,
							Volume24h:        1500.25,
						},
						{
							Network:          "BTC",
							WithdrawalFee:    decimal.RequireFromString("0.0003"),
							MinWithdrawal:    decimal.RequireFromString("0.0005"),
							ReliabilityScore: 75.5,
							MakerFee:         0.001,
							TakerFee:         0.001,
							Volume24h:        900,
						},
					},
				},
			},
		},
	}
}

func snapshotMetadata(t *testing.T, snapshot *types.Snapshot, err error) *mockMetadata {
	t.Helper()

	return &mockMetadata{
		snapshotFn: func(context.Context) (*types.Snapshot, error) {
			return snapshot, err
		},
	}
}

func TestHandlers_Table(t *testing.T) {
	t.Parallel()

	t.Run("json table", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			metadata: snapshotMetadata(t, generateSnapshot(t), nil),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp TableResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

		assert.Equal(t, "cv0a1b2c3d4e5f6g7h8i", resp.ID)
		assert.Len(t, resp.Columns, 15)
		assert.Equal(t, "Withdrawal Fee (Binance)", resp.Columns[2])
		require.Len(t, resp.Rows, 1)
		assert.Equal(t, "BTCUSDT", resp.Rows[0].Symbol)
		assert.Equal(t, "0.0002", resp.Rows[0].Entries[0].WithdrawalFee.String())
	})

	t.Run("csv table", func(t *testing.T) {
		t.Parallel()

		snapshot := generateSnapshot(t)

		s := &Server{
			metadata: snapshotMetadata(t, snapshot, nil),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata?format=csv", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

		table, err := file.DecodeTable(w.Body)
		require.NoError(t, err)

		assert.True(t, snapshot.Table.Equal(table))
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		var called bool

		s := &Server{
			metadata: &mockMetadata{
				snapshotFn: func(context.Context) (*types.Snapshot, error) {
					called = true

					return nil, nil
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata?format=xml", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})

	t.Run("exchange failure", func(t *testing.T) {
		t.Parallel()

		fetchErr := exchange.Unavailable(types.ExchangeBinance, "capital config", errors.New("503"))

		s := &Server{
			metadata: snapshotMetadata(t, nil, fetchErr),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

		assert.Equal(t, errExchangeFailure.Error(), resp.Error)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			metadata: snapshotMetadata(t, nil, errors.New("disk full")),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			metadata: &mockMetadata{},
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata", http.NoBody)
		w := httptest.NewRecorder()

		s.Table(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandlers_Symbol(t *testing.T) {
	t.Parallel()

	t.Run("known symbol", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			metadata: snapshotMetadata(t, generateSnapshot(t), nil),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata/btcusdt", http.NoBody)
		req = withRouteParams(t, req, map[string]string{
			"symbol": "btcusdt",
		})

		w := httptest.NewRecorder()
		s.Symbol(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp SymbolResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

		assert.Equal(t, "BTCUSDT", resp.Symbol)
		require.Len(t, resp.Entries, 2)

		assert.Equal(t, types.ExchangeBinance, resp.Entries[0].Exchange)
		assert.Equal(t, types.ExchangeBybit, resp.Entries[1].Exchange)
		assert.Equal(t, "0.0005", resp.Entries[1].MinWithdrawal.String())
		assert.InDelta(t, 900, resp.Entries[1].Volume24h, 0)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			metadata: snapshotMetadata(t, generateSnapshot(t), nil),
			logger:   noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata/DOGEUSDT", http.NoBody)
		req = withRouteParams(t, req, map[string]string{
			"symbol": "DOGEUSDT",
		})

		w := httptest.NewRecorder()
		s.Symbol(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid symbol", func(t *testing.T) {
		t.Parallel()

		var called bool

		s := &Server{
			metadata: &mockMetadata{
				snapshotFn: func(context.Context) (*types.Snapshot, error) {
					called = true

					return nil, nil
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/metadata/BTC-USDT", http.NoBody)
		req = withRouteParams(t, req, map[string]string{
			"symbol": "BTC-USDT",
		})

		w := httptest.NewRecorder()
		s.Symbol(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feemeta_test_total",
		Help: "Test counter",
	})

	registry.MustRegister(counter)
	counter.Inc()

	s, err := New(
		snapshotMetadata(t, generateSnapshot(t), nil),
		WithGatherer(registry),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(s.mux)
	t.Cleanup(srv.Close)

	get := func(t *testing.T, path string) (int, string) {
		t.Helper()

		resp, err := http.Get(srv.URL + path) //nolint:noctx // Test request
		require.NoError(t, err)

		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return resp.StatusCode, string(body)
	}

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		status, _ := get(t, "/health")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()

		status, body := get(t, "/metrics")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "feemeta_test_total 1")
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		status, body := get(t, "/v1/metadata")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"BTCUSDT"`)
	})

	t.Run("symbol", func(t *testing.T) {
		t.Parallel()

		status, body := get(t, "/v1/metadata/BTCUSDT")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"exchange":"Bybit"`)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.ListenAddress = "localhost"

		_, err := New(&mockMetadata{}, WithConfig(cfg))
		assert.Error(t, err)
	})
}

func withRouteParams(t *testing.T, req *http.Request, params map[string]string) *http.Request {
	t.Helper()

	rctx := chi.NewRouteContext()

	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
