package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/storage/file"
	"github.com/sig-0/feemeta/storage/types"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

var (
	errUnableToFetchMetadata = errors.New("unable to fetch metadata")
	errExchangeFailure       = errors.New("unable to fetch metadata from the exchanges")
	errSymbolNotFound        = errors.New("symbol not found")
	errInvalidSymbol         = errors.New("invalid symbol (must be alphanumeric)")
	errInvalidFormat         = errors.New("invalid format (must be json or csv)")
)

// Table serves the full metadata table, as JSON (default) or CSV
func (s *Server) Table(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = formatJSON
	}

	if format != formatJSON && format != formatCSV {
		writeError(w, http.StatusBadRequest, errInvalidFormat)

		return
	}

	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	if format == formatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+file.TableFile+`"`)
		w.WriteHeader(http.StatusOK)

		if err := file.EncodeTable(w, snapshot.Table); err != nil {
			s.logger.Error(
				"unable to encode metadata table",
				"err", err,
			)
		}

		return
	}

	resp := &TableResponse{
		GeneratedAt: snapshot.GeneratedAt,
		ID:          snapshot.ID,
		Exchanges:   snapshot.Table.Exchanges,
		Columns:     snapshot.Table.Columns(),
		Rows:        snapshot.Table.Rows,
	}

	writeJSON(w, http.StatusOK, resp)
}

// Symbol serves the metadata of a single trading symbol
func (s *Server) Symbol(w http.ResponseWriter, r *http.Request) {
	symbol, err := parseSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	row := snapshot.Table.Row(symbol)
	if row == nil {
		writeError(w, http.StatusNotFound, errSymbolNotFound)

		return
	}

	resp := &SymbolResponse{
		GeneratedAt: snapshot.GeneratedAt,
		Symbol:      row.Symbol,
		Entries:     make([]ExchangeEntry, 0, len(row.Entries)),
	}

	for i, entry := range row.Entries {
		resp.Entries = append(resp.Entries, ExchangeEntry{
			Entry:    entry,
			Exchange: snapshot.Table.Exchanges[i],
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// snapshot fetches the current metadata snapshot, writing
// the error response if it's unavailable
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*types.Snapshot, bool) {
	snapshot, err := s.metadata.Snapshot(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch metadata",
			"err", err,
		)

		// Exchange failures are upstream errors
		if errors.Is(err, exchange.ErrUnavailable) || errors.Is(err, exchange.ErrProtocol) {
			writeError(w, http.StatusBadGateway, errExchangeFailure)

			return nil, false
		}

		writeError(w, http.StatusInternalServerError, errUnableToFetchMetadata)

		return nil, false
	}

	if snapshot == nil || snapshot.Table == nil {
		writeError(w, http.StatusInternalServerError, errUnableToFetchMetadata)

		return nil, false
	}

	return snapshot, true
}

func parseSymbol(v string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if s == "" {
		return "", errInvalidSymbol
	}

	for i := 0; i < len(s); i++ {
		if (s[i] < 'A' || s[i] > 'Z') && (s[i] < '0' || s[i] > '9') {
			return "", errInvalidSymbol
		}
	}

	return s, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
