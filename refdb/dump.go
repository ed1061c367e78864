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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The dump format is a line-oriented TSV used to distribute prebuilt
// databases. It round-trips the full (taxon, sequence, association, synonym)
// content of a store losslessly:
//
//	#ampliclass-dump	1
//	T	<ncbi_id>	<genus>	<species>	<verified>
//	Y	<name>	<genus>	<species>
//	S	<seq>	<provenance>	<genus> <species>;<genus> <species>;...
const dumpHeader = "#ampliclass-dump\t1"

// Dump writes the full store content to w in the dump format.
func (s *Store) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, dumpHeader)

	if err := s.dumpTaxa(bw); err != nil {
		return err
	}

	if err := s.dumpSynonyms(bw); err != nil {
		return err
	}

	if err := s.dumpSequences(bw); err != nil {
		return err
	}

	return bw.Flush()
}

func (s *Store) dumpTaxa(w io.Writer) error {
	rows, err := s.db.Query(`SELECT ncbi_id, genus, species, verified FROM taxon ORDER BY genus, species`)
	if err != nil {
		return fmt.Errorf("failed to dump taxa: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ncbiID         int64
			genus, species string
			verified       int
		)

		if err := rows.Scan(&ncbiID, &genus, &species, &verified); err != nil {
			return fmt.Errorf("failed to dump taxa: %w", err)
		}

		fmt.Fprintf(w, "T\t%d\t%s\t%s\t%d\n", ncbiID, genus, species, verified)
	}

	return rows.Err()
}

func (s *Store) dumpSynonyms(w io.Writer) error {
	rows, err := s.db.Query(`SELECT y.name, t.genus, t.species FROM synonym y
		JOIN taxon t ON t.id = y.taxon_id ORDER BY y.name`)
	if err != nil {
		return fmt.Errorf("failed to dump synonyms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, genus, species string

		if err := rows.Scan(&name, &genus, &species); err != nil {
			return fmt.Errorf("failed to dump synonyms: %w", err)
		}

		fmt.Fprintf(w, "Y\t%s\t%s\t%s\n", name, genus, species)
	}

	return rows.Err()
}

func (s *Store) dumpSequences(w io.Writer) error {
	refs, err := s.Sequences()
	if err != nil {
		return err
	}

	for _, ref := range refs {
		names := make([]string, len(ref.Taxa))
		for n, t := range ref.Taxa {
			names[n] = t.Name()
		}

		fmt.Fprintf(w, "S\t%s\t%s\t%s\n", ref.Seq, ref.Provenance, strings.Join(names, ";"))
	}

	return nil
}

// LoadDump reads a dump produced by Dump into the store, reproducing the
// identical set of (taxon, sequence, association) triples. Loading into a
// non-empty store merges, following the usual dedup rules.
func (s *Store) LoadDump(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() || scanner.Text() != dumpHeader {
		return ErrBadDump
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if err := s.loadDumpLine(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	return nil
}

func (s *Store) loadDumpLine(line string) error {
	fields := strings.Split(line, "\t")

	switch fields[0] {
	case "T":
		return s.loadDumpTaxon(fields)
	case "Y":
		return s.loadDumpSynonym(fields)
	case "S":
		return s.loadDumpSequence(fields)
	}

	return fmt.Errorf("%w: unknown record type %q", ErrBadDump, fields[0])
}

func (s *Store) loadDumpTaxon(fields []string) error {
	if len(fields) != 5 {
		return ErrBadDump
	}

	ncbiID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadDump, err)
	}

	_, err = s.AddTaxon(ncbiID, fields[2], fields[3], fields[4] == "1")

	return err
}

func (s *Store) loadDumpSynonym(fields []string) error {
	if len(fields) != 4 {
		return ErrBadDump
	}

	t, ok, err := s.LookupSpecies(fields[2], fields[3])
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: synonym for unknown taxon %s %s", ErrBadDump, fields[2], fields[3])
	}

	return s.AddSynonym(fields[1], t.ID)
}

func (s *Store) loadDumpSequence(fields []string) error {
	if len(fields) != 4 {
		return ErrBadDump
	}

	var taxonIDs []int64

	for _, name := range strings.Split(fields[3], ";") {
		if name == "" {
			continue
		}

		genus, species, ok := splitBinomial(name)
		if !ok {
			return fmt.Errorf("%w: bad taxon name %q", ErrBadDump, name)
		}

		t, found, err := s.LookupSpecies(genus, species)
		if err != nil {
			return err
		} else if !found {
			return fmt.Errorf("%w: sequence references unknown taxon %q", ErrBadDump, name)
		}

		taxonIDs = append(taxonIDs, t.ID)
	}

	_, _, err := s.AddSequence(fields[1], fields[2], taxonIDs...)

	return err
}
