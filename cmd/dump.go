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
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

var dumpLoad string

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:   "dump [output file]",
	Short: "Dump the reference database as TSV, or load such a dump",
	Long: `Dump the reference database as TSV, or load such a dump.

Without --load, the database's taxa, synonyms and sequences are written as
a versioned TSV dump to the given file (stdout when omitted; .gz output is
compressed). The dump is a portable snapshot of the database's content,
suitable for diffing between builds and for re-creating the database
elsewhere.

With --load, the given dump file is merged into the database, creating it
if needed. Loading is idempotent: taxa match on name, sequences on content,
so loading the same dump twice changes nothing.`,
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		if dumpLoad != "" {
			loadDump()

			return
		}

		writeDump(args)
	},
}

func writeDump(args []string) {
	store, err := refdb.OpenReadOnly(databasePath())
	if err != nil {
		die("%s", err)
	}

	defer store.Close()

	var out io.Writer = os.Stdout

	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			die("%s", err)
		}

		defer f.Close()

		out = f

		if strings.HasSuffix(args[0], ".gz") {
			gz := pgzip.NewWriter(f)
			defer gz.Close()

			out = gz
		}
	}

	if err := store.Dump(out); err != nil {
		die("%s", err)
	}
}

func loadDump() {
	f, err := os.Open(dumpLoad)
	if err != nil {
		die("%s", err)
	}

	defer f.Close()

	var in io.Reader = f

	if strings.HasSuffix(dumpLoad, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			die("%s", err)
		}

		defer gz.Close()

		in = gz
	}

	store := openOrCreateStore()
	defer store.Close()

	if err := store.LoadDump(in); err != nil {
		die("%s", err)
	}

	taxa, sequences, _, err := store.Counts()
	if err != nil {
		die("%s", err)
	}

	info("database now has %d taxa and %d sequences", taxa, sequences)
}

func init() {
	RootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVarP(&dumpLoad, "load", "l", "", "merge this dump file into the database")
}
