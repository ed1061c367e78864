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

package cmd

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

var taxAncestors []int64

// loadTaxCmd represents the load-tax command.
var loadTaxCmd = &cobra.Command{
	Use:   "load-tax <taxdump dir>",
	Short: "Load species and synonyms from an NCBI taxonomy dump",
	Long: `Load species and synonyms from an NCBI taxonomy dump.

The given directory must contain the nodes.dmp and names.dmp files of an
NCBI taxdump. Every species-rank node (optionally restricted to descendants
of the --ancestors taxids) is stored as a verified taxon under its scientific
name, and its synonym, equivalent and includes names are stored as synonyms
pointing at it. Non-binomial names are skipped and counted.

Loading into a database that already has these taxa is a no-op for them;
taxa previously created unverified by an import are promoted to verified.`,
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		if len(args) != 1 {
			die("the taxdump directory should be provided")
		}

		store := openOrCreateStore()
		defer store.Close()

		stats, err := store.LoadTaxonomy(args[0], taxAncestors...)
		if err != nil {
			die("%s", err)
		}

		info("loaded %s species and %s synonyms (%d malformed names skipped)",
			humanize.Comma(int64(stats.Species)), humanize.Comma(int64(stats.Synonyms)),
			stats.Malformed)
	},
}

// openOrCreateStore opens the reference database read-write, creating it if
// it doesn't exist yet.
func openOrCreateStore() *refdb.Store {
	path := databasePath()

	store, err := refdb.Open(path)
	if errors.Is(err, refdb.ErrDBNotExists) {
		store, err = refdb.Create(path)
	}

	if err != nil {
		die("%s", err)
	}

	return store
}

func init() {
	RootCmd.AddCommand(loadTaxCmd)

	loadTaxCmd.Flags().Int64SliceVar(&taxAncestors, "ancestors", nil,
		"restrict to species descending from these taxids")
}
