package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Exchange is the display name of an exchange, used to qualify table columns
type Exchange string

const (
	ExchangeBinance Exchange = "Binance"
	ExchangeBybit   Exchange = "Bybit"
)

func (e Exchange) String() string {
	return string(e)
}

// NetworkRecord is a single withdrawal network offered for a coin
type NetworkRecord struct {
	Network       string              `json:"network"` // canonical network symbol
	MinWithdrawal decimal.Decimal     `json:"min_withdrawal"`
	WithdrawalFee decimal.Decimal     `json:"withdrawal_fee"`
	MaxWithdrawal decimal.NullDecimal `json:"max_withdrawal"`
}

// ScoredNetwork is a network record with its reliability score attached
type ScoredNetwork struct {
	NetworkRecord

	ReliabilityScore float64 `json:"reliability_score"`
}

// FeeRate holds the spot maker / taker commission for a trading symbol
type FeeRate struct {
	MakerFee float64 `json:"maker_fee"`
	TakerFee float64 `json:"taker_fee"`
}

// Liquidity holds the 24h trading activity for a trading symbol
type Liquidity struct {
	PriceChangePct *float64 `json:"price_change_pct,omitempty"`
	Volume         float64  `json:"volume"`
}

// ExchangeRow is the per-exchange view of a trading symbol.
// Any of the sub-records can be absent, when the exchange didn't report it
type ExchangeRow struct {
	Network   *ScoredNetwork `json:"network,omitempty"`
	Fees      *FeeRate       `json:"fees,omitempty"`
	Liquidity *Liquidity     `json:"liquidity,omitempty"`
	Symbol    string         `json:"symbol"`
}

// Complete returns true if the row has a qualifying network, fees and liquidity
func (r *ExchangeRow) Complete() bool {
	return r.Network != nil && r.Fees != nil && r.Liquidity != nil
}

// ExchangeTable is the outer merge of an exchange's withdrawal, fee
// and liquidity data, ordered by symbol
type ExchangeTable struct {
	Exchange Exchange       `json:"exchange"`
	Rows     []*ExchangeRow `json:"rows"`
}

// Column names of the metadata table
const ColumnSymbol = "Symbol"

// EntryColumns are the per-exchange columns, in table order
var EntryColumns = []string{
	"Network",
	"Withdrawal Fee",
	"Min Withdrawal",
	"Reliability Score",
	"Maker Fee",
	"Taker Fee",
	"24h Volume",
}

// QualifiedColumn returns the exchange-qualified column name,
// ex. "Withdrawal Fee (Binance)"
func QualifiedColumn(column string, exchange Exchange) string {
	return fmt.Sprintf("%s (%s)", column, exchange)
}

// Entry is a single exchange's complete data for a symbol
type Entry struct {
	Network          string          `json:"network"`
	WithdrawalFee    decimal.Decimal `json:"withdrawal_fee"`
	MinWithdrawal    decimal.Decimal `json:"min_withdrawal"`
	ReliabilityScore float64         `json:"reliability_score"`
	MakerFee         float64         `json:"maker_fee"`
	TakerFee         float64         `json:"taker_fee"`
	Volume24h        float64         `json:"volume_24h"`
}

// Equal returns true if both entries hold the same values
func (e Entry) Equal(o Entry) bool {
	return e.Network == o.Network &&
		e.WithdrawalFee.Equal(o.WithdrawalFee) &&
		e.MinWithdrawal.Equal(o.MinWithdrawal) &&
		e.ReliabilityScore == o.ReliabilityScore &&
		e.MakerFee == o.MakerFee &&
		e.TakerFee == o.TakerFee &&
		e.Volume24h == o.Volume24h
}

// Row is a single metadata table row.
// Entries are aligned with the table's exchanges
type Row struct {
	Symbol  string  `json:"symbol"`
	Entries []Entry `json:"entries"`
}

// Table is the merged cross-exchange metadata table
type Table struct {
	Exchanges []Exchange `json:"exchanges"`
	Rows      []*Row     `json:"rows"`
}

// Columns returns the table header, in order
func (t *Table) Columns() []string {
	columns := make([]string, 0, 1+len(t.Exchanges)*len(EntryColumns))
	columns = append(columns, ColumnSymbol)

	for _, exchange := range t.Exchanges {
		for _, column := range EntryColumns {
			columns = append(columns, QualifiedColumn(column, exchange))
		}
	}

	return columns
}

// Row returns the row for the given symbol, if any
func (t *Table) Row(symbol string) *Row {
	for _, row := range t.Rows {
		if row.Symbol == symbol {
			return row
		}
	}

	return nil
}

// Equal returns true if both tables have the same columns and rows, in order
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}

	if len(t.Exchanges) != len(o.Exchanges) || len(t.Rows) != len(o.Rows) {
		return false
	}

	for i := range t.Exchanges {
		if t.Exchanges[i] != o.Exchanges[i] {
			return false
		}
	}

	for i := range t.Rows {
		a, b := t.Rows[i], o.Rows[i]

		if a.Symbol != b.Symbol || len(a.Entries) != len(b.Entries) {
			return false
		}

		for j := range a.Entries {
			if !a.Entries[j].Equal(b.Entries[j]) {
				return false
			}
		}
	}

	return true
}

// Snapshot is a generated metadata table, along with its generation record
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Table       *Table    `json:"table"`
	ID          string    `json:"id"`
}
