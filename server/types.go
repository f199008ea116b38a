package server

import (
	"time"

	"github.com/sig-0/feemeta/storage/types"
)

// TableResponse is the full metadata table
type TableResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	ID          string           `json:"id"`
	Exchanges   []types.Exchange `json:"exchanges"`
	Columns     []string         `json:"columns"`
	Rows        []*types.Row     `json:"rows"`
}

// ExchangeEntry is a single exchange's metadata for a symbol
type ExchangeEntry struct {
	types.Entry

	Exchange types.Exchange `json:"exchange"`
}

// SymbolResponse is the metadata of a single symbol, per exchange
type SymbolResponse struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Symbol      string          `json:"symbol"`
	Entries     []ExchangeEntry `json:"entries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
