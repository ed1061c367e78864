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
	"os"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/classify"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/report"
	"github.com/wtsi-hgi/ampliclass/results"
)

var (
	classifyMethods  []string
	classifyOut      string
	classifyStore    string
	classifyWorkers  int
	blastPath        string
	blastMinIdentity float64
	blastMinCoverage float64
	blastBatchSize   string
	classifyAsTable  bool
)

// classifyCmd represents the classify command.
var classifyCmd = &cobra.Command{
	Use:   "classify [prepared fasta files...]",
	Short: "Classify prepared ASVs against the reference database",
	Long: `Classify prepared ASVs against the reference database.

Each given fasta file is a prepared sample, as output by 'prepare-reads'.
Every ASV in every sample is classified by every requested method, so the
methods' calls can be compared side by side. Available methods:

  identity  exact sequence match
  onebp     match within one base change of a reference
  substr    perfect containment either way
  blast     delegate to an external blastn binary

Set ` + envBlastn + ` (or --blast-path) to control which blastn binary the
blast method runs; it is only needed when blast is requested.

Results are printed as a per-sample table with one column per method, and a
TSV of the same table is written to the --output path if given. With --store,
the raw per-method results are also recorded in a bbolt results store for
later re-reporting without re-running classification.`,
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		if len(args) == 0 {
			die("at least one prepared fasta file should be provided")
		}

		store, err := refdb.OpenReadOnly(databasePath())
		if err != nil {
			die("%s", err)
		}

		defer store.Close()

		engine, err := classify.New(store, classifyMethods, classifyOptions(), appLogger)
		if err != nil {
			die("%s", err)
		}

		res, err := engine.Run(loadSamples(args))
		if err != nil {
			warn("%s", err)
		}

		storeResults(res)
		outputResults(res)
	},
}

func classifyOptions() classify.Options {
	opts := classify.Options{
		BlastPath:        blastPath,
		BlastMinIdentity: blastMinIdentity,
		BlastMinCoverage: blastMinCoverage,
		Workers:          classifyWorkers,
	}

	if opts.BlastPath == "" {
		opts.BlastPath = envValue(envBlastn)
	}

	if classifyBlast() && blastBatchSize != "" {
		batch, err := bytefmt.ToBytes(blastBatchSize)
		if err != nil {
			die("invalid --blast-batch: %s", err)
		}

		opts.BlastBatchBytes = batch
	}

	return opts
}

func classifyBlast() bool {
	for _, m := range classifyMethods {
		if m == classify.MethodBlast {
			return true
		}
	}

	return false
}

func loadSamples(paths []string) []classify.Sample {
	samples := make([]classify.Sample, 0, len(paths))

	for _, path := range paths {
		asvs, err := prepare.ReadFastaFile(path)
		if err != nil {
			die("%s: %s", path, err)
		}

		if len(asvs) == 0 {
			warn("no ASVs in %s", path)

			continue
		}

		samples = append(samples, classify.Sample{Name: asvs[0].Sample, ASVs: asvs})
	}

	return samples
}

func storeResults(res []classify.Result) {
	if classifyStore == "" {
		return
	}

	rs, err := results.Create(classifyStore)
	if err != nil {
		die("%s", err)
	}

	defer rs.Close()

	if err := rs.Add(res); err != nil {
		die("%s", err)
	}

	runID, err := rs.RunID()
	if err != nil {
		die("%s", err)
	}

	info("stored %d results in %s (run %s)", len(res), classifyStore, runID)
}

func outputResults(res []classify.Result) {
	table := report.New(classifyMethods, res)

	if classifyOut != "" {
		f, err := os.Create(classifyOut)
		if err != nil {
			die("%s", err)
		}

		if err := table.WriteTSV(f); err != nil {
			die("%s", err)
		}

		if err := f.Close(); err != nil {
			die("%s", err)
		}
	}

	if classifyAsTable || classifyOut == "" {
		table.Render(os.Stdout)
	}
}

func init() {
	RootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringSliceVarP(&classifyMethods, "methods", "m",
		[]string{classify.MethodIdentity, classify.MethodOneBP},
		"classification methods to run ("+strings.Join([]string{
			classify.MethodIdentity, classify.MethodOneBP,
			classify.MethodSubstr, classify.MethodBlast,
		}, ", ")+")")
	classifyCmd.Flags().StringVarP(&classifyOut, "output", "o", "", "write the report as TSV to this path")
	classifyCmd.Flags().StringVarP(&classifyStore, "store", "s", "", "record raw results in a store at this path")
	classifyCmd.Flags().BoolVarP(&classifyAsTable, "table", "t", false, "render the table to stdout even when --output is set")
	classifyCmd.Flags().IntVarP(&classifyWorkers, "workers", "w", 4, "number of samples to classify in parallel")
	classifyCmd.Flags().StringVar(&blastPath, "blast-path", "", "blastn binary for the blast method")
	classifyCmd.Flags().Float64Var(&blastMinIdentity, "blast-identity", 95, "minimum percent identity for blast hits")
	classifyCmd.Flags().Float64Var(&blastMinCoverage, "blast-coverage", 85, "minimum percent query coverage for blast hits")
	classifyCmd.Flags().StringVar(&blastBatchSize, "blast-batch", "16M", "query batch size for blast (eg. 16M, 1G)")
}
