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
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

const testNodes = `1	|	1	|	no rank	|
4783	|	1	|	genus	|
4787	|	4783	|	species	|
4784	|	4783	|	species	|
2056922	|	1	|	genus	|
2056930	|	2056922	|	species	|
x	|	1	|	species	|
`

const testNames = `1	|	root	|		|	scientific name	|
4783	|	Phytophthora	|		|	scientific name	|
4787	|	Phytophthora austrocedri	|		|	scientific name	|
4787	|	Phytophthora austrocedrae	|		|	synonym	|
4787	|	P. austrocedri	|	in-part	|	genbank common name	|
4784	|	Phytophthora cambivora	|		|	scientific name	|
2056930	|	Nothophytophthora intricata	|		|	scientific name	|
2056930	|	Nothophytophthora	|		|	scientific name	|
`

func writeTaxdump(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "nodes.dmp"), []byte(testNodes), 0600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "names.dmp"), []byte(testNames), 0600); err != nil {
		t.Fatal(err)
	}

	return dir
}

func TestLoadTaxonomy(t *testing.T) {
	Convey("Given a database and a taxonomy dump", t, func() {
		store, err := refdb.Create(filepath.Join(t.TempDir(), "refs.sqlite"))
		So(err, ShouldBeNil)

		defer store.Close()

		dir := writeTaxdump(t)

		Convey("loading it records species, synonyms and malformed names", func() {
			stats, err := store.LoadTaxonomy(dir)
			So(err, ShouldBeNil)

			// the single-word Nothophytophthora name and the bad
			// taxid line are malformed
			So(stats.Species, ShouldEqual, 3)
			So(stats.Synonyms, ShouldEqual, 1)
			So(stats.Malformed, ShouldEqual, 2)

			taxon, ok, err := store.LookupSpecies("Phytophthora", "austrocedri")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(taxon.NCBIID, ShouldEqual, 4787)
			So(taxon.Verified, ShouldBeTrue)

			taxon, ok, err = store.ResolveName("Phytophthora austrocedrae")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(taxon.Species, ShouldEqual, "austrocedri")

			_, ok, err = store.ResolveName("P. austrocedri")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			Convey("and loading again changes nothing", func() {
				stats, err := store.LoadTaxonomy(dir)
				So(err, ShouldBeNil)
				So(stats.Species, ShouldEqual, 3)

				taxa, _, _, err := store.Counts()
				So(err, ShouldBeNil)
				So(taxa, ShouldEqual, 3)
			})
		})

		Convey("an ancestor restriction prunes other clades", func() {
			stats, err := store.LoadTaxonomy(dir, 4783)
			So(err, ShouldBeNil)
			So(stats.Species, ShouldEqual, 2)

			_, ok, err := store.LookupSpecies("Nothophytophthora", "intricata")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			_, ok, err = store.LookupSpecies("Phytophthora", "cambivora")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("a missing dump directory errors", func() {
			_, err := store.LoadTaxonomy(filepath.Join(dir, "nope"))
			So(err, ShouldNotBeNil)
		})
	})
}
