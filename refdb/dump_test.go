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

func TestDump(t *testing.T) {
	Convey("Given a populated database", t, func() {
		store := newImportStore(t)
		defer store.Close()

		austro, _, err := store.LookupSpecies("Phytophthora", "austrocedri")
		So(err, ShouldBeNil)

		cambivora, _, err := store.LookupSpecies("Phytophthora", "cambivora")
		So(err, ShouldBeNil)

		_, _, err = store.AddSequence("ACGTACGTACGTACGTACGT", refdb.ProvenanceCurated, austro.ID)
		So(err, ShouldBeNil)

		_, _, err = store.AddSequence("TTTTACGTACGTACGTAAAA", refdb.ProvenanceNCBI, austro.ID, cambivora.ID)
		So(err, ShouldBeNil)

		Convey("its dump is versioned and complete", func() {
			var sb strings.Builder

			So(store.Dump(&sb), ShouldBeNil)

			dump := sb.String()
			So(strings.HasPrefix(dump, "#ampliclass-dump\t1\n"), ShouldBeTrue)
			So(dump, ShouldContainSubstring, "T\t4787\tPhytophthora\taustrocedri\t1\n")
			So(dump, ShouldContainSubstring, "Y\tPhytophthora austrocedrae\tPhytophthora\taustrocedri\n")
			So(dump, ShouldContainSubstring,
				"S\tTTTTACGTACGTACGTAAAA\tncbi_import\tPhytophthora austrocedri;Phytophthora cambivora\n")

			Convey("and loading it into an empty database round-trips", func() {
				fresh, err := refdb.Create(filepath.Join(t.TempDir(), "fresh.sqlite"))
				So(err, ShouldBeNil)

				defer fresh.Close()

				So(fresh.LoadDump(strings.NewReader(dump)), ShouldBeNil)

				var again strings.Builder

				So(fresh.Dump(&again), ShouldBeNil)
				So(again.String(), ShouldEqual, dump)

				Convey("and loading it twice changes nothing", func() {
					So(fresh.LoadDump(strings.NewReader(dump)), ShouldBeNil)

					var third strings.Builder

					So(fresh.Dump(&third), ShouldBeNil)
					So(third.String(), ShouldEqual, dump)
				})
			})
		})

		Convey("garbage input is rejected", func() {
			So(store.LoadDump(strings.NewReader("not a dump\n")), ShouldEqual, refdb.ErrBadDump)
		})
	})
}
