/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package refdb

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/wtsi-hgi/ampliclass/seq"
)

// Validation selects how import handles species names against the taxon
// table.
type Validation int

const (
	// ValidationStrict rejects sequences whose asserted species is not in
	// the taxon table.
	ValidationStrict Validation = iota
	// ValidationFuzzy provisionally creates missing species, flagged
	// unverified, rather than rejecting them.
	ValidationFuzzy
	// ValidationLax skips taxonomy cross-validation entirely, trusting the
	// curator-asserted name. Used for synthetic controls and pre-vetted
	// sets.
	ValidationLax
)

// ImportOptions configures an ImportFasta run.
type ImportOptions struct {
	// Provenance tags the imported sequences; one of the Provenance*
	// constants.
	Provenance string

	// Validation is the species-validation mode.
	Validation Validation
}

// ImportStats summarises an import run. Rejected counts strict-mode
// validation failures; Invalid counts records whose sequence content was not
// valid IUPAC after normalization. Neither is fatal.
type ImportStats struct {
	Records      int
	NewSequences int
	Rejected     int
	Invalid      int
	NewTaxa      int
}

// ImportFasta imports reference sequences from FASTA, one record at a time.
// Each record's description line asserts its species (binomial name,
// optionally with a taxid=N token). Sequence content is the deduplication
// key: a re-imported sequence gains taxon associations but is stored once,
// and nothing is ever deleted, so re-running an import is idempotent.
func (s *Store) ImportFasta(r io.Reader, opts ImportOptions) (ImportStats, error) {
	var stats ImportStats

	err := seq.ReadFasta(r, func(rec seq.FastaRecord) error {
		stats.Records++

		taxonID, err := s.resolveImportTaxon(rec, opts, &stats)
		if errors.Is(err, ErrUnknownTaxon) {
			stats.Rejected++

			return nil
		} else if err != nil {
			return err
		}

		_, created, err := s.AddSequence(rec.Seq, opts.Provenance, taxonID)
		if errors.Is(err, ErrInvalidSequence) {
			stats.Invalid++

			return nil
		} else if err != nil {
			return err
		}

		if created {
			stats.NewSequences++
		}

		return nil
	})

	return stats, err
}

// resolveImportTaxon determines the taxon a record asserts, honouring the
// validation mode.
func (s *Store) resolveImportTaxon(rec seq.FastaRecord, opts ImportOptions, stats *ImportStats) (int64, error) {
	name, ncbiID := parseAssertedSpecies(rec.Description)
	if name == "" {
		return 0, ErrUnknownTaxon
	}

	if opts.Validation != ValidationLax {
		if t, ok, err := s.resolveBestName(name); err != nil {
			return 0, err
		} else if ok {
			return t.ID, nil
		}

		if opts.Validation == ValidationStrict {
			return 0, ErrUnknownTaxon
		}
	}

	words := strings.Fields(name)
	if len(words) < 2 {
		return 0, ErrUnknownTaxon
	}

	// only the binomial itself; strain/isolate suffixes are not species.
	genus, species := words[0], words[1]

	if t, ok, err := s.LookupSpecies(genus, species); err != nil {
		return 0, err
	} else if ok {
		return t.ID, nil
	}

	id, err := s.AddTaxon(ncbiID, genus, species, false)
	if err != nil {
		return 0, err
	}

	stats.NewTaxa++

	return id, nil
}

// resolveBestName tries progressively shorter word-prefixes of the asserted
// name against the taxon and synonym tables, longest first, so entries like
// "Phytophthora austrocedri isolate X" still resolve.
func (s *Store) resolveBestName(name string) (Taxon, bool, error) {
	words := strings.Fields(name)

	for n := min(len(words), 4); n >= 2; n-- {
		t, ok, err := s.ResolveName(strings.Join(words[:n], " "))
		if err != nil || ok {
			return t, ok, err
		}
	}

	return Taxon{}, false, nil
}

// parseAssertedSpecies extracts the binomial name and optional taxid=N token
// from a FASTA description line.
func parseAssertedSpecies(desc string) (string, int64) {
	var (
		ncbiID int64
		words  []string
	)

	for _, word := range strings.Fields(desc) {
		if rest, ok := strings.CutPrefix(word, "taxid="); ok {
			if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
				ncbiID = id
			}

			continue
		}

		words = append(words, word)
	}

	return strings.Join(words, " "), ncbiID
}
