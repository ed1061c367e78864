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

package report_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/classify"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/report"
)

func testResults() []classify.Result {
	austro := refdb.Taxon{Genus: "Phytophthora", Species: "austrocedri"}
	cambivora := refdb.Taxon{Genus: "Phytophthora", Species: "cambivora"}

	asv1 := prepare.ASV{Seq: "ACGTACGTACGTACGTACGT", Abundance: 6, Sample: "sample1"}
	asv2 := prepare.ASV{Seq: "TTTTACGTACGTACGTAAAA", Abundance: 3, Sample: "sample2"}

	return []classify.Result{
		{ASV: asv1, Method: classify.MethodIdentity, Taxa: []refdb.Taxon{austro}, Score: 100},
		{ASV: asv1, Method: classify.MethodOneBP, Taxa: []refdb.Taxon{austro, cambivora}, Score: 100},
		{ASV: asv2, Method: classify.MethodIdentity},
		{ASV: asv2, Method: classify.MethodOneBP, Taxa: []refdb.Taxon{cambivora}, Score: 95},
		{ASV: asv2, Method: classify.MethodBlast, Taxa: []refdb.Taxon{cambivora}, Score: 97.5},
	}
}

func TestReport(t *testing.T) {
	Convey("Given results from several methods", t, func() {
		table := report.New([]string{classify.MethodIdentity, classify.MethodOneBP}, testResults())

		Convey("methods not asked for are appended as discovered columns", func() {
			So(table.Methods, ShouldResemble, []string{
				classify.MethodIdentity, classify.MethodOneBP, classify.MethodBlast,
			})
		})

		Convey("rows are keyed (sample, ASV) with one cell per method", func() {
			So(len(table.Rows), ShouldEqual, 2)
			So(table.Rows[0].Sample, ShouldEqual, "sample1")
			So(table.Rows[0].Abundance, ShouldEqual, 6)
			So(table.Rows[1].Sample, ShouldEqual, "sample2")

			cell := table.Rows[0].Cells[classify.MethodOneBP]
			So(cell.String(), ShouldEqual, "Phytophthora austrocedri;Phytophthora cambivora (100.0)")

			So(table.Rows[1].Cells[classify.MethodIdentity].String(), ShouldEqual, "unknown")
			So(table.Rows[1].Cells[classify.MethodBlast].String(), ShouldEqual, "Phytophthora cambivora (97.5)")
		})

		Convey("the TSV output carries a header and every row", func() {
			var sb strings.Builder

			So(table.WriteTSV(&sb), ShouldBeNil)

			lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
			So(len(lines), ShouldEqual, 3)
			So(lines[0], ShouldEqual, "Sample\tASV\tAbundance\tidentity\tonebp\tblast")

			So(lines[1], ShouldStartWith, "sample1\t")
			So(lines[1], ShouldEndWith,
				"\t6\tPhytophthora austrocedri (100.0)\tPhytophthora austrocedri;Phytophthora cambivora (100.0)\tunknown")
			So(lines[2], ShouldContainSubstring, "\tunknown\tPhytophthora cambivora (95.0)\tPhytophthora cambivora (97.5)")
		})

		Convey("rendering produces a bordered table", func() {
			var sb strings.Builder

			table.Render(&sb)

			So(sb.String(), ShouldContainSubstring, "SAMPLE")
			So(sb.String(), ShouldContainSubstring, "sample1")
		})
	})
}
