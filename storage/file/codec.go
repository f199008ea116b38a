package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sig-0/feemeta/storage/types"
)

var (
	errEmptyTable    = errors.New("empty table file")
	errInvalidHeader = errors.New("invalid table header")
	errMisalignedRow = errors.New("row entries don't match the table exchanges")
	errInvalidRecord = errors.New("invalid table record")
	errMissingField  = errors.New("missing field")
)

// EncodeTable writes the table as CSV, header first
func EncodeTable(w io.Writer, table *types.Table) error {
	var (
		cw      = csv.NewWriter(w)
		columns = table.Columns()
	)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}

	for _, row := range table.Rows {
		if len(row.Entries) != len(table.Exchanges) {
			return fmt.Errorf("%w: %s", errMisalignedRow, row.Symbol)
		}

		record := make([]string, 0, len(columns))
		record = append(record, row.Symbol)

		for _, entry := range row.Entries {
			record = append(
				record,
				entry.Network,
				entry.WithdrawalFee.String(),
				entry.MinWithdrawal.String(),
				formatFloat(entry.ReliabilityScore),
				formatFloat(entry.MakerFee),
				formatFloat(entry.TakerFee),
				formatFloat(entry.Volume24h),
			)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write row %s: %w", row.Symbol, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// DecodeTable reads a CSV table written by EncodeTable
func DecodeTable(r io.Reader) (*types.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyTable
		}

		return nil, fmt.Errorf("unable to read header: %w", err)
	}

	exchanges, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	table := &types.Table{
		Exchanges: exchanges,
		Rows:      make([]*types.Row, 0),
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("unable to read record: %w", err)
		}

		row, err := parseRecord(record, len(exchanges))
		if err != nil {
			return nil, err
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// parseHeader extracts the exchanges from the table header,
// making sure every exchange has the full set of columns, in order
func parseHeader(header []string) ([]types.Exchange, error) {
	if len(header) == 0 || header[0] != types.ColumnSymbol {
		return nil, fmt.Errorf("%w: missing %q column", errInvalidHeader, types.ColumnSymbol)
	}

	width := len(types.EntryColumns)

	if (len(header)-1)%width != 0 {
		return nil, fmt.Errorf("%w: unexpected column count %d", errInvalidHeader, len(header))
	}

	exchanges := make([]types.Exchange, 0, (len(header)-1)/width)

	for start := 1; start < len(header); start += width {
		first := header[start]

		// exchange columns start with the network, ex. "Network (Binance)"
		prefix := types.EntryColumns[0] + " ("
		if !strings.HasPrefix(first, prefix) || !strings.HasSuffix(first, ")") {
			return nil, fmt.Errorf("%w: unexpected column %q", errInvalidHeader, first)
		}

		exchange := types.Exchange(strings.TrimSuffix(strings.TrimPrefix(first, prefix), ")"))

		for i, column := range types.EntryColumns {
			if expected := types.QualifiedColumn(column, exchange); header[start+i] != expected {
				return nil, fmt.Errorf(
					"%w: expected column %q, got %q",
					errInvalidHeader,
					expected,
					header[start+i],
				)
			}
		}

		exchanges = append(exchanges, exchange)
	}

	return exchanges, nil
}

// parseRecord parses a single table row
func parseRecord(record []string, exchanges int) (*types.Row, error) {
	width := len(types.EntryColumns)

	if len(record) != 1+exchanges*width {
		return nil, fmt.Errorf("%w: unexpected field count %d", errInvalidRecord, len(record))
	}

	row := &types.Row{
		Symbol:  record[0],
		Entries: make([]types.Entry, 0, exchanges),
	}

	if row.Symbol == "" {
		return nil, fmt.Errorf("%w: missing symbol", errInvalidRecord)
	}

	for start := 1; start < len(record); start += width {
		fields := record[start : start+width]

		entry, err := parseEntry(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errInvalidRecord, row.Symbol, err)
		}

		row.Entries = append(row.Entries, entry)
	}

	return row, nil
}

// parseEntry parses the fields of a single exchange entry,
// in types.EntryColumns order
func parseEntry(fields []string) (types.Entry, error) {
	var (
		entry = types.Entry{Network: fields[0]}
		err   error
	)

	if entry.Network == "" {
		return types.Entry{}, fmt.Errorf("%w: network", errMissingField)
	}

	if entry.WithdrawalFee, err = decimal.NewFromString(fields[1]); err != nil {
		return types.Entry{}, err
	}

	if entry.MinWithdrawal, err = decimal.NewFromString(fields[2]); err != nil {
		return types.Entry{}, err
	}

	floats := []*float64{
		&entry.ReliabilityScore,
		&entry.MakerFee,
		&entry.TakerFee,
		&entry.Volume24h,
	}

	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(fields[3+i], 64); err != nil {
			return types.Entry{}, err
		}
	}

	return entry, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
