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

package refdb_test

import (
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

const importFasta = `>seq1 Phytophthora austrocedri isolate XYZ taxid=4787
ACGTACGTACGTACGTACGT
>seq2 Phytophthora austrocedrae
TTTTACGTACGTACGTAAAA
>seq3 Halophytophthora fluviatilis
GGGGACGTACGTACGTCCCC
>seq4 Phytophthora austrocedri
ACGTACGTACGTACGTACGT
>seq5 Phytophthora cambivora
ACGTUUUU
`

func newImportStore(t *testing.T) *refdb.Store {
	t.Helper()

	store, err := refdb.Create(filepath.Join(t.TempDir(), "refs.sqlite"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.AddTaxon(4787, "Phytophthora", "austrocedri", true); err != nil {
		t.Fatal(err)
	}

	if taxonID, err := store.AddTaxon(4787, "Phytophthora", "austrocedri", true); err != nil {
		t.Fatal(err)
	} else if err := store.AddSynonym("Phytophthora austrocedrae", taxonID); err != nil {
		t.Fatal(err)
	}

	if _, err := store.AddTaxon(4784, "Phytophthora", "cambivora", true); err != nil {
		t.Fatal(err)
	}

	return store
}

func TestImportFasta(t *testing.T) {
	Convey("Given a database with known taxa", t, func() {
		store := newImportStore(t)
		defer store.Close()

		Convey("a strict import rejects unknown species and invalid sequences", func() {
			stats, err := store.ImportFasta(strings.NewReader(importFasta), refdb.ImportOptions{
				Provenance: refdb.ProvenanceNCBI,
				Validation: refdb.ValidationStrict,
			})
			So(err, ShouldBeNil)

			So(stats.Records, ShouldEqual, 5)
			So(stats.NewSequences, ShouldEqual, 2)
			So(stats.Rejected, ShouldEqual, 1)
			So(stats.Invalid, ShouldEqual, 1)
			So(stats.NewTaxa, ShouldEqual, 0)

			refs, err := store.Sequences()
			So(err, ShouldBeNil)
			So(len(refs), ShouldEqual, 2)

			Convey("and re-importing is idempotent", func() {
				stats, err := store.ImportFasta(strings.NewReader(importFasta), refdb.ImportOptions{
					Provenance: refdb.ProvenanceNCBI,
					Validation: refdb.ValidationStrict,
				})
				So(err, ShouldBeNil)
				So(stats.NewSequences, ShouldEqual, 0)

				refs, err := store.Sequences()
				So(err, ShouldBeNil)
				So(len(refs), ShouldEqual, 2)
			})
		})

		Convey("a fuzzy import creates unknown species unverified", func() {
			stats, err := store.ImportFasta(strings.NewReader(importFasta), refdb.ImportOptions{
				Provenance: refdb.ProvenanceNCBI,
				Validation: refdb.ValidationFuzzy,
			})
			So(err, ShouldBeNil)

			So(stats.Rejected, ShouldEqual, 0)
			So(stats.NewSequences, ShouldEqual, 3)
			So(stats.NewTaxa, ShouldEqual, 1)

			taxon, ok, err := store.LookupSpecies("Halophytophthora", "fluviatilis")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(taxon.Verified, ShouldBeFalse)
		})

		Convey("strain suffixes and synonyms still resolve to the right taxon", func() {
			_, err := store.ImportFasta(strings.NewReader(importFasta), refdb.ImportOptions{
				Provenance: refdb.ProvenanceNCBI,
				Validation: refdb.ValidationStrict,
			})
			So(err, ShouldBeNil)

			refs, err := store.Sequences()
			So(err, ShouldBeNil)

			for _, ref := range refs {
				So(len(ref.Taxa), ShouldEqual, 1)
				So(ref.Taxa[0].Name(), ShouldEqual, "Phytophthora austrocedri")
			}
		})

		Convey("a lax import trusts the asserted binomial", func() {
			stats, err := store.ImportFasta(strings.NewReader(importFasta), refdb.ImportOptions{
				Provenance: refdb.ProvenanceCurated,
				Validation: refdb.ValidationLax,
			})
			So(err, ShouldBeNil)

			So(stats.Rejected, ShouldEqual, 0)
			So(stats.NewTaxa, ShouldBeGreaterThanOrEqualTo, 1)

			// lax skips synonym resolution, so the old name becomes
			// its own unverified taxon
			_, ok, err := store.LookupSpecies("Phytophthora", "austrocedrae")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestConflicts(t *testing.T) {
	Convey("Given sequences shared across genera", t, func() {
		store := newImportStore(t)
		defer store.Close()

		phytoph, _, err := store.LookupSpecies("Phytophthora", "austrocedri")
		So(err, ShouldBeNil)

		pythium, err := store.AddTaxon(65071, "Pythium", "undulatum", true)
		So(err, ShouldBeNil)

		cambivora, _, err := store.LookupSpecies("Phytophthora", "cambivora")
		So(err, ShouldBeNil)

		_, _, err = store.AddSequence("ACGTACGTACGTACGTACGT", refdb.ProvenanceCurated, phytoph.ID, pythium)
		So(err, ShouldBeNil)

		// same genus, different species: legitimate ambiguity, not a
		// conflict
		_, _, err = store.AddSequence("TTTTACGTACGTACGTAAAA", refdb.ProvenanceCurated, phytoph.ID, cambivora.ID)
		So(err, ShouldBeNil)

		Convey("only the cross-genus sequence is reported", func() {
			conflicts, err := store.Conflicts()
			So(err, ShouldBeNil)
			So(len(conflicts), ShouldEqual, 1)
			So(conflicts[0].Seq, ShouldEqual, "ACGTACGTACGTACGTACGT")
			So(conflicts[0].Genera, ShouldResemble, []string{"Phytophthora", "Pythium"})
		})
	})
}
