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

package classify

import (
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/seq"
)

// onebp accepts references within edit distance 1 (one substitution,
// insertion or deletion) of the query. Candidate references are shortlisted
// by length bucket and packed base-count signature before exact bounded
// verification, so a query never touches the whole database; the shortlist
// is a pure optimisation and cannot lose true matches, since distance <= 1
// bounds both the length difference and any per-base count difference by 1.
//
// All references within distance 1 contribute their taxa to the result: ties
// are retained as a multi-taxon set rather than arbitrarily broken, which is
// how "cannot resolve below genus" cases get reported.
type onebp struct {
	refs    []refdb.RefSeq
	buckets map[int][]int // sequence length -> ref indices
	sigs    []uint64      // packed base counts per ref
}

func newOneBP(refs []refdb.RefSeq) *onebp {
	o := &onebp{
		refs:    refs,
		buckets: make(map[int][]int),
		sigs:    make([]uint64, len(refs)),
	}

	for n, ref := range refs {
		o.buckets[len(ref.Seq)] = append(o.buckets[len(ref.Seq)], n)
		o.sigs[n] = seq.BaseCounts(ref.Seq)
	}

	return o
}

func (*onebp) name() string { return MethodOneBP }

func (o *onebp) classify(asvs []prepare.ASV) ([]Result, error) {
	results := make([]Result, len(asvs))

	for n, asv := range asvs {
		results[n] = o.classifyOne(asv)
	}

	return results, nil
}

func (o *onebp) classifyOne(asv prepare.ASV) Result {
	res := Result{ASV: asv, Method: MethodOneBP}
	sig := seq.BaseCounts(asv.Seq)
	minDist := 2

	var groups [][]refdb.Taxon

	for length := len(asv.Seq) - 1; length <= len(asv.Seq)+1; length++ {
		for _, refIdx := range o.buckets[length] {
			if !seq.CountsCompatible(sig, o.sigs[refIdx], 1) {
				continue
			}

			dist, ok := seq.EditDistanceWithin(asv.Seq, o.refs[refIdx].Seq, 1)
			if !ok {
				continue
			}

			groups = append(groups, o.refs[refIdx].Taxa)

			if dist < minDist {
				minDist = dist
			}
		}
	}

	if len(groups) > 0 {
		res.Taxa = mergeTaxa(groups...)
		res.Score = distanceScore(minDist, len(asv.Seq))
	}

	return res
}

// distanceScore converts an edit distance into a percent-identity style
// score.
func distanceScore(dist, length int) float64 {
	if length == 0 {
		return 0
	}

	return float64(length-dist) / float64(length) * perfectScore
}
