package classify

import (
	"strings"

	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

// substr accepts containment in either direction: the ASV inside a reference
// or a reference inside the ASV. It exists for legacy partial-length
// reference sets, which are small, so a linear scan per query is acceptable.
type substr struct {
	refs []refdb.RefSeq
}

func newSubstr(refs []refdb.RefSeq) *substr {
	return &substr{refs: refs}
}

func (*substr) name() string { return MethodSubstr }

func (s *substr) classify(asvs []prepare.ASV) ([]Result, error) {
	results := make([]Result, len(asvs))

	for n, asv := range asvs {
		results[n] = s.classifyOne(asv)
	}

	return results, nil
}

func (s *substr) classifyOne(asv prepare.ASV) Result {
	res := Result{ASV: asv, Method: MethodSubstr}

	var (
		groups [][]refdb.Taxon
		best   float64
	)

	for _, ref := range s.refs {
		if !strings.Contains(ref.Seq, asv.Seq) && !strings.Contains(asv.Seq, ref.Seq) {
			continue
		}

		groups = append(groups, ref.Taxa)

		// score by how much of the longer sequence the shorter covers
		shorter, longer := len(ref.Seq), len(asv.Seq)
		if shorter > longer {
			shorter, longer = longer, shorter
		}

		if cov := float64(shorter) / float64(longer) * perfectScore; cov > best {
			best = cov
		}
	}

	if len(groups) > 0 {
		res.Taxa = mergeTaxa(groups...)
		res.Score = best
	}

	return res
}
