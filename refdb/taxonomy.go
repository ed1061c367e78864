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
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	nodesFile = "nodes.dmp"
	namesFile = "names.dmp"

	nodeFields = 3
	nameFields = 4
)

// TaxStats summarises a load-tax run.
type TaxStats struct {
	Species   int
	Synonyms  int
	Malformed int
}

type taxNode struct {
	parent int64
	rank   string
}

type taxName struct {
	taxid int64
	name  string
	class string
}

// LoadTaxonomy imports an NCBI-style taxonomy dump directory (nodes.dmp +
// names.dmp) into the taxon table, recording scientific binomials as
// canonical entries and other name classes as synonyms. Malformed lines are
// skipped and counted, never fatal. Re-running against the same dump is a
// no-op: existing entries are matched, not duplicated. Sequences are
// untouched.
func (s *Store) LoadTaxonomy(dir string, ancestors ...int64) (TaxStats, error) {
	var stats TaxStats

	nodes, err := parseNodes(filepath.Join(dir, nodesFile), &stats)
	if err != nil {
		return stats, err
	}

	names, err := parseNames(filepath.Join(dir, namesFile), &stats)
	if err != nil {
		return stats, err
	}

	return stats, s.importTaxNames(nodes, names, ancestors, &stats)
}

func (s *Store) importTaxNames(nodes map[int64]taxNode, names []taxName, ancestors []int64, stats *TaxStats) error {
	taxa := make(map[int64]int64)

	for _, name := range names {
		node, ok := nodes[name.taxid]
		if !ok || node.rank != "species" || !underAncestors(nodes, name.taxid, ancestors) {
			continue
		}

		if name.class != "scientific name" {
			continue
		}

		genus, species, ok := splitBinomial(name.name)
		if !ok {
			stats.Malformed++

			continue
		}

		id, err := s.AddTaxon(name.taxid, genus, species, true)
		if err != nil {
			return err
		}

		taxa[name.taxid] = id
		stats.Species++
	}

	return s.importSynonyms(names, taxa, stats)
}

func (s *Store) importSynonyms(names []taxName, taxa map[int64]int64, stats *TaxStats) error {
	for _, name := range names {
		id, ok := taxa[name.taxid]
		if !ok || name.class == "scientific name" {
			continue
		}

		switch name.class {
		case "synonym", "equivalent name", "includes":
			if err := s.AddSynonym(name.name, id); err != nil {
				return err
			}

			stats.Synonyms++
		}
	}

	return nil
}

// underAncestors reports whether the given taxid sits below one of the given
// ancestor taxids; an empty ancestor list accepts everything.
func underAncestors(nodes map[int64]taxNode, taxid int64, ancestors []int64) bool {
	if len(ancestors) == 0 {
		return true
	}

	for depth := 0; depth < len(nodes); depth++ {
		for _, a := range ancestors {
			if taxid == a {
				return true
			}
		}

		node, ok := nodes[taxid]
		if !ok || node.parent == taxid {
			return false
		}

		taxid = node.parent
	}

	return false
}

func parseNodes(path string, stats *TaxStats) (map[int64]taxNode, error) {
	nodes := make(map[int64]taxNode)

	err := forEachDumpLine(path, func(fields []string) {
		if len(fields) < nodeFields {
			stats.Malformed++

			return
		}

		taxid, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			stats.Malformed++

			return
		}

		parent, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			stats.Malformed++

			return
		}

		nodes[taxid] = taxNode{parent: parent, rank: fields[2]}
	})

	return nodes, err
}

func parseNames(path string, stats *TaxStats) ([]taxName, error) {
	var names []taxName

	err := forEachDumpLine(path, func(fields []string) {
		if len(fields) < nameFields {
			stats.Malformed++

			return
		}

		taxid, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			stats.Malformed++

			return
		}

		names = append(names, taxName{taxid: taxid, name: fields[1], class: fields[3]})
	})

	return names, err
}

// forEachDumpLine parses the `\t|\t`-delimited fields of each line of an
// NCBI .dmp file.
func forEachDumpLine(path string, cb func([]string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open taxonomy dump: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSuffix(strings.TrimRight(scanner.Text(), "\n"), "\t|")
		if line == "" {
			continue
		}

		cb(strings.Split(line, "\t|\t"))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read taxonomy dump: %w", err)
	}

	return nil
}

// splitBinomial splits a binomial (or trinomial) name into its genus and the
// remaining species epithet.
func splitBinomial(name string) (string, string, bool) {
	genus, species, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok || genus == "" || species == "" {
		return "", "", false
	}

	return genus, species, true
}
