package prepare

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the optional TOML pipeline configuration, holding the same
// settings as the command-line flags; flags win where both are given.
//
//	left_primer = "GAAGGTGAAGTCGTAACAAGG"
//	right_primer = "GCARRGACTTTCGTCCCYRC"
//	primer_mismatches = 1
//	min_len = 100
//	max_len = 450
//	min_abundance = 100
//	min_fraction = 0.001
//	workers = 4
type Config struct {
	LeftPrimer       string  `toml:"left_primer"`
	RightPrimer      string  `toml:"right_primer"`
	PrimerMismatches int     `toml:"primer_mismatches"`
	MinLen           int     `toml:"min_len"`
	MaxLen           int     `toml:"max_len"`
	MinAbundance     int     `toml:"min_abundance"`
	MinFraction      float64 `toml:"min_fraction"`
	Workers          int     `toml:"workers"`
}

// LoadConfig reads a TOML pipeline config file.
func LoadConfig(path string) (Config, error) {
	var c Config

	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Options converts the config into prepare Options.
func (c Config) Options() Options {
	return Options{
		LeftPrimer:       c.LeftPrimer,
		RightPrimer:      c.RightPrimer,
		PrimerMismatches: c.PrimerMismatches,
		MinLen:           c.MinLen,
		MaxLen:           c.MaxLen,
		MinAbundance:     c.MinAbundance,
		MinFraction:      c.MinFraction,
		Workers:          c.Workers,
	}
}
