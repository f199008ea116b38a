package network

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

var (
	errMissingNetwork   = errors.New("missing network symbol")
	errDuplicateNetwork = errors.New("duplicate network")
	errInvalidStats     = errors.New("invalid network stats")
)

//go:embed reliability.toml
var defaultReference []byte

// referenceFile is the on-disk layout of the reliability reference
type referenceFile struct {
	Networks []Stats `toml:"network"`
}

// DefaultReference returns the bundled reliability reference table
func DefaultReference() (Reference, error) {
	return ParseReference(defaultReference)
}

// LoadReference reads the reliability reference table from the given TOML file
func LoadReference(path string) (Reference, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read reference: %w", err)
	}

	return ParseReference(content)
}

// ParseReference parses a TOML reliability reference table
func ParseReference(content []byte) (Reference, error) {
	var file referenceFile

	if err := toml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("unable to parse reference: %w", err)
	}

	ref := make(Reference, len(file.Networks))

	for _, stats := range file.Networks {
		if stats.Network == "" {
			return nil, errMissingNetwork
		}

		if _, ok := ref[stats.Network]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateNetwork, stats.Network)
		}

		if err := validateStats(stats); err != nil {
			return nil, err
		}

		ref[stats.Network] = stats
	}

	return ref, nil
}

// validateStats makes sure the percentage stats are on a 0-100 scale
func validateStats(stats Stats) error {
	if stats.BlockTimeSec < 0 {
		return fmt.Errorf("%w: %s block time is negative", errInvalidStats, stats.Network)
	}

	for _, v := range []float64{stats.Congestion, stats.UptimePct, stats.FailureRatePct} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s value %v is out of range", errInvalidStats, stats.Network, v)
		}
	}

	return nil
}
