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

// package prepare turns raw per-sample reads into abundance-annotated unique
// sequences (ASVs): primer trimming, pair merging, length bounds,
// dereplication and abundance filtering. Samples are independent and are
// processed by a bounded pool of workers.

package prepare

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/log15"
	"github.com/wtsi-hgi/ampliclass/seq"
)

// ASV is an amplicon sequence variant: a unique trimmed sequence and its
// abundance within one sample. ASVs are immutable once produced.
type ASV struct {
	Seq       string
	Abundance int
	Sample    string
}

// ID returns the stable identifier used for this ASV in FASTA output and
// reports: the sequence checksum plus its abundance.
func (a ASV) ID() string {
	return fmt.Sprintf("%s_%d", seq.Checksum(a.Seq), a.Abundance)
}

// Sample names a unit of raw reads: a single FASTQ, or a forward/reverse
// pair.
type Sample struct {
	Name  string
	Files []string
}

// Options configures read preparation.
type Options struct {
	// LeftPrimer and RightPrimer flank the marker; either may be empty, in
	// which case that end is not trimmed.
	LeftPrimer  string
	RightPrimer string

	// PrimerMismatches is the number of mismatches tolerated when locating
	// each primer.
	PrimerMismatches int

	// MinLen and MaxLen bound the trimmed sequence length; zero MaxLen
	// means unbounded.
	MinLen int
	MaxLen int

	// MinAbundance is the absolute abundance floor and MinFraction the
	// fraction-of-sample-total floor. An ASV must clear BOTH to be
	// retained (the stricter convention for noise suppression); setting
	// either to zero disables that floor, which is how either-only
	// behaviour is configured.
	MinAbundance int
	MinFraction  float64

	// Workers bounds sample-level parallelism; <= 0 means 1.
	Workers int
}

// Stats counts the fate of every read in a sample. Drops are per-read and
// never fatal.
type Stats struct {
	TotalReads    int
	PrimerDropped int
	MergeFailed   int
	LengthDropped int
	UniqueSeqs    int
	LowAbundance  int
}

// Result is the outcome of preparing one sample. An empty ASV set is
// reported, not an error.
type Result struct {
	Sample Sample
	ASVs   []ASV
	Stats  Stats
}

// Run prepares every sample with a bounded worker pool, returning results in
// the input order. Per-sample failures (unreadable files) are aggregated and
// returned alongside the successful results.
func Run(samples []Sample, opts Options, logger log15.Logger) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(samples))
	jobs := make(chan int)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		merr *multierror.Error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for n := range jobs {
				res, err := prepareSample(samples[n], opts, logger)
				if err != nil {
					mu.Lock()
					merr = multierror.Append(merr, fmt.Errorf("sample %s: %w", samples[n].Name, err))
					mu.Unlock()
				}

				results[n] = res
			}
		}()
	}

	for n := range samples {
		jobs <- n
	}

	close(jobs)
	wg.Wait()

	return results, merr.ErrorOrNil()
}

func prepareSample(sample Sample, opts Options, logger log15.Logger) (Result, error) {
	res := Result{Sample: sample}

	counts := make(map[string]int)

	err := eachReadPair(sample, func(fwd, rev string) {
		res.Stats.TotalReads++

		trimmed, ok := trimRead(fwd, rev, opts, &res.Stats)
		if !ok {
			return
		}

		counts[trimmed]++
	})
	if err != nil {
		return res, err
	}

	res.Stats.UniqueSeqs = len(counts)
	res.ASVs = filterASVs(sample.Name, counts, opts, &res.Stats)

	logger.Info("prepared sample", "sample", sample.Name,
		"reads", res.Stats.TotalReads,
		"primerDropped", res.Stats.PrimerDropped,
		"lengthDropped", res.Stats.LengthDropped,
		"asvs", len(res.ASVs))

	if len(res.ASVs) == 0 {
		logger.Warn("sample yielded no ASVs", "sample", sample.Name)
	}

	return res, nil
}

// trimRead merges a pair where applicable, then strips primers and applies
// the length bounds, counting each kind of drop.
func trimRead(fwd, rev string, opts Options, stats *Stats) (string, bool) {
	read := fwd

	if rev != "" {
		merged, ok := seq.MergePair(fwd, rev)
		if !ok {
			stats.MergeFailed++

			return "", false
		}

		read = merged
	}

	trimmed, ok := seq.TrimPrimers(read, opts.LeftPrimer, opts.RightPrimer, opts.PrimerMismatches)
	if !ok {
		stats.PrimerDropped++

		return "", false
	}

	if len(trimmed) < opts.MinLen || (opts.MaxLen > 0 && len(trimmed) > opts.MaxLen) {
		stats.LengthDropped++

		return "", false
	}

	return trimmed, true
}

// filterASVs applies the combined abundance floor: an ASV must clear both
// the absolute count and the fractional threshold of the sample's total
// retained reads.
func filterASVs(sampleName string, counts map[string]int, opts Options, stats *Stats) []ASV {
	total := 0
	for _, c := range counts {
		total += c
	}

	asvs := make([]ASV, 0, len(counts))

	for sequence, count := range counts {
		if count < opts.MinAbundance || float64(count) < opts.MinFraction*float64(total) {
			stats.LowAbundance++

			continue
		}

		asvs = append(asvs, ASV{Seq: sequence, Abundance: count, Sample: sampleName})
	}

	// most abundant first; sequence order breaks ties so output is deterministic
	sort.Slice(asvs, func(i, j int) bool {
		if asvs[i].Abundance != asvs[j].Abundance {
			return asvs[i].Abundance > asvs[j].Abundance
		}

		return asvs[i].Seq < asvs[j].Seq
	})

	return asvs
}

// eachReadPair streams reads from a sample's file(s), yielding rev == "" for
// single-end data. Paired files are read in lockstep.
func eachReadPair(sample Sample, cb func(fwd, rev string)) error {
	switch len(sample.Files) {
	case 1:
		return eachRead(sample.Files[0], func(read string) {
			cb(read, "")
		})
	case 2:
		return eachPairedRead(sample.Files[0], sample.Files[1], cb)
	}

	return fmt.Errorf("%w: %d files", ErrBadSample, len(sample.Files))
}

func eachRead(path string, cb func(string)) error {
	r, err := seq.OpenFastq(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for r.Next() {
		cb(r.Seq)
	}

	return r.Err()
}

func eachPairedRead(fwdPath, revPath string, cb func(fwd, rev string)) error {
	fr, err := seq.OpenFastq(fwdPath)
	if err != nil {
		return err
	}
	defer fr.Close()

	rr, err := seq.OpenFastq(revPath)
	if err != nil {
		return err
	}
	defer rr.Close()

	for fr.Next() {
		if !rr.Next() {
			if err := rr.Err(); err != nil {
				return err
			}

			return ErrUnpairedReads
		}

		cb(fr.Seq, rr.Seq)
	}

	if err := fr.Err(); err != nil {
		return err
	}

	if rr.Next() {
		return ErrUnpairedReads
	}

	return rr.Err()
}
