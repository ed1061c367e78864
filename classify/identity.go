package classify

import (
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

const perfectScore = 100

// identity accepts only exact sequence equality, via a hash index built once
// per engine. A hit on a taxon-ambiguous reference yields multiple taxa at
// equal top score; there is no partial credit.
type identity struct {
	index map[string][]refdb.Taxon
}

func newIdentity(refs []refdb.RefSeq) *identity {
	index := make(map[string][]refdb.Taxon, len(refs))

	for _, ref := range refs {
		index[ref.Seq] = mergeTaxa(index[ref.Seq], ref.Taxa)
	}

	return &identity{index: index}
}

func (*identity) name() string { return MethodIdentity }

func (i *identity) classify(asvs []prepare.ASV) ([]Result, error) {
	results := make([]Result, len(asvs))

	for n, asv := range asvs {
		results[n] = Result{ASV: asv, Method: MethodIdentity}

		if taxa, ok := i.index[asv.Seq]; ok {
			results[n].Taxa = taxa
			results[n].Score = perfectScore
		}
	}

	return results, nil
}
