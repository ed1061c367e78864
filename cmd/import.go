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

	"github.com/dustin/go-humanize"
	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

var (
	importFuzzy     bool
	importLax       bool
	importSynthetic bool
)

// ncbiImportCmd represents the ncbi-import command.
var ncbiImportCmd = &cobra.Command{
	Use:   "ncbi-import [fasta files...]",
	Short: "Import reference sequences from NCBI-style fasta files",
	Long: `Import reference sequences from NCBI-style fasta files.

Each record's description line is taken to assert a species: the longest
leading run of words (up to four) resolving to a known taxon or synonym
wins, so strain and isolate suffixes don't defeat the lookup. A taxid=N
token in the description is stored against newly created taxa.

By default a record asserting an unknown species is rejected and counted;
with --fuzzy the species is provisionally created, flagged unverified, and
with --lax validation is skipped entirely. Sequences are deduplicated on
content, so re-running an import only adds taxon associations.

Files ending .gz are decompressed on the fly.`,
	Run: func(_ *cobra.Command, args []string) {
		runImport(args, refdb.ProvenanceNCBI)
	},
}

// curatedImportCmd represents the curated-import command.
var curatedImportCmd = &cobra.Command{
	Use:   "curated-import [fasta files...]",
	Short: "Import curator-vetted reference sequences",
	Long: `Import curator-vetted reference sequences.

As 'ncbi-import', but the sequences are tagged as curated, which
classification reports can use to weight calls. Use --synthetic instead to
tag spike-in control sequences. Validation flags behave as for
'ncbi-import'; curated sets that predate the taxonomy load are usually
imported with --lax.`,
	Run: func(_ *cobra.Command, args []string) {
		provenance := refdb.ProvenanceCurated
		if importSynthetic {
			provenance = refdb.ProvenanceSynthetic
		}

		runImport(args, provenance)
	},
}

func runImport(args []string, provenance string) {
	setCLIFormat()

	if len(args) == 0 {
		die("at least one fasta file should be provided")
	}

	opts := refdb.ImportOptions{
		Provenance: provenance,
		Validation: importValidation(),
	}

	store := openOrCreateStore()
	defer store.Close()

	var total refdb.ImportStats

	for _, path := range args {
		stats, err := importFile(store, path, opts)
		if err != nil {
			die("%s: %s", path, err)
		}

		total.Records += stats.Records
		total.NewSequences += stats.NewSequences
		total.Rejected += stats.Rejected
		total.Invalid += stats.Invalid
		total.NewTaxa += stats.NewTaxa
	}

	if total.Rejected > 0 {
		warn("rejected %d records asserting unknown species", total.Rejected)
	}

	if total.Invalid > 0 {
		warn("skipped %d records with invalid sequence content", total.Invalid)
	}

	info("imported %s records: %s new sequences, %d new taxa",
		humanize.Comma(int64(total.Records)), humanize.Comma(int64(total.NewSequences)), total.NewTaxa)
}

func importValidation() refdb.Validation {
	switch {
	case importLax:
		return refdb.ValidationLax
	case importFuzzy:
		return refdb.ValidationFuzzy
	default:
		return refdb.ValidationStrict
	}
}

func importFile(store *refdb.Store, path string, opts refdb.ImportOptions) (refdb.ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return refdb.ImportStats{}, err
	}

	defer f.Close()

	var r io.Reader = f

	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return refdb.ImportStats{}, err
		}

		defer gz.Close()

		r = gz
	}

	return store.ImportFasta(r, opts)
}

func init() {
	RootCmd.AddCommand(ncbiImportCmd)
	RootCmd.AddCommand(curatedImportCmd)

	for _, cmd := range []*cobra.Command{ncbiImportCmd, curatedImportCmd} {
		cmd.Flags().BoolVar(&importFuzzy, "fuzzy", false,
			"provisionally create unknown species instead of rejecting")
		cmd.Flags().BoolVar(&importLax, "lax", false,
			"skip species validation entirely")
	}

	curatedImportCmd.Flags().BoolVar(&importSynthetic, "synthetic", false,
		"tag sequences as synthetic spike-in controls")
}
