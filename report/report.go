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

// package report renders classification results as a table keyed (sample,
// ASV) with one column per method, each cell holding the taxon set and
// score. Reconciliation across methods happens here, by juxtaposition, never
// inside the engine.

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/wtsi-hgi/ampliclass/classify"
)

const unknownCell = "unknown"

// Cell is one method's verdict for one row.
type Cell struct {
	Taxa  string
	Score float64
	Known bool
}

// String renders the cell as "taxa (score)" or "unknown".
func (c Cell) String() string {
	if !c.Known {
		return unknownCell
	}

	return fmt.Sprintf("%s (%.1f)", c.Taxa, c.Score)
}

// Row is one (sample, ASV) line of the report.
type Row struct {
	Sample    string
	ASV       string
	Abundance int
	Cells     map[string]Cell
}

// Table is the assembled classification report.
type Table struct {
	Methods []string
	Rows    []Row
}

// New assembles a report over the given results. Method columns appear in
// the order given; methods not in the list are discovered from the results
// and appended alphabetically. Rows are ordered by (sample, ASV).
func New(methods []string, results []classify.Result) *Table {
	t := &Table{Methods: methods}

	known := make(map[string]bool, len(methods))
	for _, m := range methods {
		known[m] = true
	}

	rows := make(map[string]int)

	var extra []string

	for _, res := range results {
		if !known[res.Method] {
			known[res.Method] = true

			extra = append(extra, res.Method)
		}

		row := &t.Rows[t.rowIndex(rows, res)]

		names := make([]string, len(res.Taxa))
		for n, taxon := range res.Taxa {
			names[n] = taxon.Name()
		}

		row.Cells[res.Method] = Cell{
			Taxa:  strings.Join(names, ";"),
			Score: res.Score,
			Known: !res.Unknown(),
		}
	}

	sort.Strings(extra)
	t.Methods = append(t.Methods, extra...)

	sort.Slice(t.Rows, func(i, j int) bool {
		if t.Rows[i].Sample != t.Rows[j].Sample {
			return t.Rows[i].Sample < t.Rows[j].Sample
		}

		return t.Rows[i].ASV < t.Rows[j].ASV
	})

	return t
}

func (t *Table) rowIndex(rows map[string]int, res classify.Result) int {
	key := res.ASV.Sample + "\x00" + res.ASV.ID()

	n, ok := rows[key]
	if !ok {
		n = len(t.Rows)
		rows[key] = n

		t.Rows = append(t.Rows, Row{
			Sample:    res.ASV.Sample,
			ASV:       res.ASV.ID(),
			Abundance: res.ASV.Abundance,
			Cells:     make(map[string]Cell),
		})
	}

	return n
}

func (t *Table) header() []string {
	return append([]string{"Sample", "ASV", "Abundance"}, t.Methods...)
}

func (t *Table) rowValues(row Row) []string {
	values := []string{row.Sample, row.ASV, fmt.Sprintf("%d", row.Abundance)}

	for _, method := range t.Methods {
		values = append(values, row.Cells[method].String())
	}

	return values
}

// WriteTSV writes the report as tab-separated values with a header line.
func (t *Table) WriteTSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.Join(t.header(), "\t")); err != nil {
		return err
	}

	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, strings.Join(t.rowValues(row), "\t")); err != nil {
			return err
		}
	}

	return nil
}

// Render pretty-prints the report for terminal consumption.
func (t *Table) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(t.header())
	table.SetAutoWrapText(false)

	for _, row := range t.Rows {
		table.Append(t.rowValues(row))
	}

	table.Render()
}
