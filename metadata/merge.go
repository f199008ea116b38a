package metadata

import (
	"sort"

	"github.com/sig-0/feemeta/storage/types"
)

// Merge joins the exchange tables on the trading symbol, keeping only
// the symbols that are complete on every exchange.
// The table entries follow the order of the given exchange tables
func Merge(tables ...*types.ExchangeTable) *types.Table {
	merged := &types.Table{
		Exchanges: make([]types.Exchange, 0, len(tables)),
		Rows:      make([]*types.Row, 0),
	}

	if len(tables) == 0 {
		return merged
	}

	indexes := make([]map[string]*types.ExchangeRow, 0, len(tables))

	for _, table := range tables {
		merged.Exchanges = append(merged.Exchanges, table.Exchange)

		index := make(map[string]*types.ExchangeRow, len(table.Rows))
		for _, row := range table.Rows {
			if row.Complete() {
				index[row.Symbol] = row
			}
		}

		indexes = append(indexes, index)
	}

	// Any symbol has to be complete on the first exchange to survive
	for symbol := range indexes[0] {
		entries := make([]types.Entry, 0, len(indexes))

		for _, index := range indexes {
			row, ok := index[symbol]
			if !ok {
				break
			}

			entries = append(entries, entryFromRow(row))
		}

		if len(entries) != len(indexes) {
			continue
		}

		merged.Rows = append(merged.Rows, &types.Row{
			Symbol:  symbol,
			Entries: entries,
		})
	}

	sort.Slice(merged.Rows, func(i, j int) bool {
		return merged.Rows[i].Symbol < merged.Rows[j].Symbol
	})

	return merged
}

// entryFromRow flattens a complete exchange row into a table entry
func entryFromRow(row *types.ExchangeRow) types.Entry {
	return types.Entry{
		Network:          row.Network.Network,
		WithdrawalFee:    row.Network.WithdrawalFee,
		MinWithdrawal:    row.Network.MinWithdrawal,
		ReliabilityScore: row.Network.ReliabilityScore,
		MakerFee:         row.Fees.MakerFee,
		TakerFee:         row.Fees.TakerFee,
		Volume24h:        row.Liquidity.Volume,
	}
}
