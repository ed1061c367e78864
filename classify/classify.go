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

// package classify matches ASVs against the reference store using
// interchangeable method strategies sharing one result shape, so downstream
// reporting stays method-agnostic. The store is read-only here; indexes are
// built once per engine.

package classify

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/log15"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

// Method names accepted by New.
const (
	MethodIdentity = "identity"
	MethodOneBP    = "onebp"
	MethodSubstr   = "substr"
	MethodBlast    = "blast"
)

// Result is one method's verdict on one ASV. Taxa is ordered by (genus,
// species) and empty for an "unknown": an ASV no method matched still
// appears in the result set, because absence of a match is itself meaningful
// output.
type Result struct {
	ASV    prepare.ASV
	Method string
	Taxa   []refdb.Taxon
	Score  float64
}

// Unknown reports whether this result carries no taxon call.
func (r Result) Unknown() bool {
	return len(r.Taxa) == 0
}

// method is the strategy interface: given a sample's ASVs, produce exactly
// one Result per ASV, in input order.
type method interface {
	name() string
	classify(asvs []prepare.ASV) ([]Result, error)
}

// Options configures an Engine.
type Options struct {
	// BlastPath is the blastn binary to delegate to; resolved via PATH
	// when empty.
	BlastPath string

	// BlastMinIdentity and BlastMinCoverage filter delegated hits, both in
	// percent.
	BlastMinIdentity float64
	BlastMinCoverage float64

	// BlastBatchBytes bounds the size of each delegated query batch.
	BlastBatchBytes uint64

	// Workers bounds sample-level parallelism; <= 0 means 1.
	Workers int
}

// Engine classifies samples with a fixed set of methods against a snapshot
// of the reference store.
type Engine struct {
	refs    []refdb.RefSeq
	methods []method
	workers int
	logger  log15.Logger
}

// New builds a classification engine, loading the reference sequences once
// and constructing each requested method's index.
func New(store *refdb.Store, methodNames []string, opts Options, logger log15.Logger) (*Engine, error) {
	refs, err := store.Sequences()
	if err != nil {
		return nil, err
	}

	e := &Engine{refs: refs, workers: max(opts.Workers, 1), logger: logger}

	for _, name := range methodNames {
		m, err := e.newMethod(name, opts)
		if err != nil {
			return nil, err
		}

		e.methods = append(e.methods, m)
	}

	if len(e.methods) == 0 {
		return nil, ErrNoMethods
	}

	return e, nil
}

func (e *Engine) newMethod(name string, opts Options) (method, error) {
	switch name {
	case MethodIdentity:
		return newIdentity(e.refs), nil
	case MethodOneBP:
		return newOneBP(e.refs), nil
	case MethodSubstr:
		return newSubstr(e.refs), nil
	case MethodBlast:
		return newBlast(e.refs, opts)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

// Sample is a named, prepared ASV set awaiting classification.
type Sample struct {
	Name string
	ASVs []prepare.ASV
}

// Run classifies every sample with every method, samples in parallel across
// a bounded worker pool. Results are returned grouped by input sample order,
// then method order, then ASV order, so output is deterministic regardless
// of scheduling. A failing method (eg. missing blastn) is surfaced in the
// aggregated error while the other methods' results are still returned.
func (e *Engine) Run(samples []Sample) ([]Result, error) {
	perSample := make([][]Result, len(samples))
	errs := make([]error, len(samples))
	jobs := make(chan int)

	var wg sync.WaitGroup

	for i := 0; i < e.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for n := range jobs {
				perSample[n], errs[n] = e.classifySample(samples[n])
			}
		}()
	}

	for n := range samples {
		jobs <- n
	}

	close(jobs)
	wg.Wait()

	var (
		results []Result
		merr    *multierror.Error
	)

	for n := range samples {
		results = append(results, perSample[n]...)

		if errs[n] != nil {
			merr = multierror.Append(merr, fmt.Errorf("sample %s: %w", samples[n].Name, errs[n]))
		}
	}

	return results, merr.ErrorOrNil()
}

// classifySample runs every method over one sample. Method results are
// independent; a method failure doesn't stop its peers.
func (e *Engine) classifySample(sample Sample) ([]Result, error) {
	var (
		results []Result
		merr    *multierror.Error
	)

	for _, m := range e.methods {
		res, err := m.classify(sample.ASVs)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("method %s: %w", m.name(), err))

			continue
		}

		unknown := 0

		for _, r := range res {
			if r.Unknown() {
				unknown++
			}
		}

		e.logger.Info("classified sample", "sample", sample.Name, "method", m.name(),
			"asvs", len(sample.ASVs), "unknown", unknown)

		results = append(results, res...)
	}

	return results, merr.ErrorOrNil()
}

// mergeTaxa combines the taxa of several matched references into one
// deduplicated set ordered by (genus, species): the documented
// multi-taxon-retention rule for ties.
func mergeTaxa(groups ...[]refdb.Taxon) []refdb.Taxon {
	seen := make(map[string]bool)

	var taxa []refdb.Taxon

	for _, group := range groups {
		for _, t := range group {
			if key := t.Genus + "\x00" + t.Species; !seen[key] {
				seen[key] = true

				taxa = append(taxa, t)
			}
		}
	}

	refdb.SortTaxa(taxa)

	return taxa
}
