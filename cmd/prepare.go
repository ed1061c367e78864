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
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/prepare"
)

var (
	prepareConfig    string
	prepareOutDir    string
	leftPrimer       string
	rightPrimer      string
	primerMismatches int
	prepareMinLen    int
	prepareMaxLen    int
	minAbundance     int
	minFraction      float64
	prepareWorkers   int
)

// prepareCmd represents the prepare-reads command.
var prepareCmd = &cobra.Command{
	Use:   "prepare-reads [fastq files...]",
	Short: "Prepare raw sample reads into ASV fasta files",
	Long: `Prepare raw sample reads into ASV fasta files.

Each given fastq file (optionally gzipped) is one sample; a pair of files
named *_R1* and *_R2* is treated as one paired sample. Reads have their
primers located and stripped (reads lacking both primers within tolerance are
dropped and counted), pairs are merged, trimmed sequences outside the length
bounds are dropped, and the survivors are dereplicated per sample into
abundance-annotated ASVs.

An ASV is retained only if it clears BOTH the absolute abundance floor and
the fractional floor of the sample total; set either to 0 to disable that
floor.

One fasta per sample is written to the output directory, with records named
<checksum>_<abundance>. A sample yielding no ASVs is reported, not fatal.`,
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		if len(args) == 0 {
			die("at least one fastq file should be provided")
		}

		opts, err := prepareOptions()
		if err != nil {
			die("%s", err)
		}

		results, err := prepare.Run(groupSamples(args), opts, appLogger)
		if err != nil {
			warn("%s", err)
		}

		totalReads, totalASVs := 0, 0

		for _, res := range results {
			if len(res.ASVs) == 0 && res.Stats.TotalReads == 0 {
				continue
			}

			if _, err := res.WriteFastaFile(prepareOutDir); err != nil {
				die("%s", err)
			}

			totalReads += res.Stats.TotalReads
			totalASVs += len(res.ASVs)
		}

		info("prepared %s reads into %s ASVs across %d samples",
			humanize.Comma(int64(totalReads)), humanize.Comma(int64(totalASVs)), len(results))
	},
}

func prepareOptions() (prepare.Options, error) {
	opts := prepare.Options{
		LeftPrimer:       leftPrimer,
		RightPrimer:      rightPrimer,
		PrimerMismatches: primerMismatches,
		MinLen:           prepareMinLen,
		MaxLen:           prepareMaxLen,
		MinAbundance:     minAbundance,
		MinFraction:      minFraction,
		Workers:          prepareWorkers,
	}

	if prepareConfig == "" {
		return opts, nil
	}

	config, err := prepare.LoadConfig(prepareConfig)
	if err != nil {
		return opts, err
	}

	base := config.Options()
	applyFlagOverrides(&base, opts)

	return base, nil
}

// applyFlagOverrides lets explicitly-set flags win over config file values.
func applyFlagOverrides(base *prepare.Options, flags prepare.Options) {
	if flags.LeftPrimer != "" {
		base.LeftPrimer = flags.LeftPrimer
	}

	if flags.RightPrimer != "" {
		base.RightPrimer = flags.RightPrimer
	}

	if flags.MinAbundance > 0 {
		base.MinAbundance = flags.MinAbundance
	}

	if flags.MinFraction > 0 {
		base.MinFraction = flags.MinFraction
	}

	if flags.MinLen > 0 {
		base.MinLen = flags.MinLen
	}

	if flags.MaxLen > 0 {
		base.MaxLen = flags.MaxLen
	}

	if flags.Workers > 0 {
		base.Workers = flags.Workers
	}
}

// groupSamples pairs *_R1*/*_R2* files into single samples, treating
// everything else as single-end.
func groupSamples(files []string) []prepare.Sample {
	var samples []prepare.Sample

	mates := make(map[string]int)

	for _, file := range files {
		name := sampleName(file)

		if base, ok := pairedBase(name, "_R1"); ok {
			mates[base] = len(samples)
			samples = append(samples, prepare.Sample{Name: base, Files: []string{file}})

			continue
		}

		if base, ok := pairedBase(name, "_R2"); ok {
			if n, found := mates[base]; found {
				samples[n].Files = append(samples[n].Files, file)

				continue
			}
		}

		samples = append(samples, prepare.Sample{Name: name, Files: []string{file}})
	}

	return samples
}

func pairedBase(name, tag string) (string, bool) {
	if pos := strings.LastIndex(name, tag); pos > 0 {
		return name[:pos], true
	}

	return "", false
}

func sampleName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")

	return strings.TrimSuffix(strings.TrimSuffix(base, ".fastq"), ".fq")
}

func init() {
	RootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVarP(&prepareConfig, "config", "c", "", "toml pipeline config file")
	prepareCmd.Flags().StringVarP(&prepareOutDir, "outdir", "o", ".", "directory for per-sample ASV fasta output")
	prepareCmd.Flags().StringVar(&leftPrimer, "left", "", "left primer sequence")
	prepareCmd.Flags().StringVar(&rightPrimer, "right", "", "right primer sequence")
	prepareCmd.Flags().IntVar(&primerMismatches, "primer-mismatches", 1, "mismatches tolerated when locating a primer")
	prepareCmd.Flags().IntVar(&prepareMinLen, "minlen", 100, "minimum trimmed sequence length")
	prepareCmd.Flags().IntVar(&prepareMaxLen, "maxlen", 1000, "maximum trimmed sequence length")
	prepareCmd.Flags().IntVarP(&minAbundance, "abundance", "a", 100, "absolute abundance floor")
	prepareCmd.Flags().Float64VarP(&minFraction, "fraction", "f", 0.001, "fractional abundance floor of sample total")
	prepareCmd.Flags().IntVarP(&prepareWorkers, "workers", "w", 4, "number of samples to prepare in parallel")
}
