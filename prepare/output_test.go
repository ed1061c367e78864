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

package prepare_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/seq"
)

func TestOutput(t *testing.T) {
	Convey("Given a prepared sample", t, func() {
		res := prepare.Result{
			Sample: prepare.Sample{Name: "sample1"},
			ASVs: []prepare.ASV{
				{Seq: ampliconA, Abundance: 6, Sample: "sample1"},
				{Seq: ampliconB, Abundance: 3, Sample: "sample1"},
			},
		}

		Convey("its fasta output names records checksum_abundance", func() {
			var sb strings.Builder

			So(res.WriteFasta(&sb), ShouldBeNil)

			out := sb.String()
			So(out, ShouldContainSubstring, ">"+seq.Checksum(ampliconA)+"_6 sample=sample1\n"+ampliconA+"\n")
			So(out, ShouldContainSubstring, ">"+seq.Checksum(ampliconB)+"_3 sample=sample1\n")
		})

		Convey("writing to a directory round-trips through ReadFastaFile", func() {
			dir := t.TempDir()

			path, err := res.WriteFastaFile(dir)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, filepath.Join(dir, "sample1.fasta"))

			asvs, err := prepare.ReadFastaFile(path)
			So(err, ShouldBeNil)
			So(asvs, ShouldResemble, res.ASVs)
		})

		Convey("the sample name falls back to the file basename", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "other.fasta")

			err := os.WriteFile(path, []byte(">abc_2\n"+ampliconA+"\n"), 0600)
			So(err, ShouldBeNil)

			asvs, err := prepare.ReadFastaFile(path)
			So(err, ShouldBeNil)
			So(len(asvs), ShouldEqual, 1)
			So(asvs[0].Sample, ShouldEqual, "other")
			So(asvs[0].Abundance, ShouldEqual, 2)
		})
	})
}

func TestConfig(t *testing.T) {
	Convey("A TOML config converts to prepare options", t, func() {
		path := filepath.Join(t.TempDir(), "pipeline.toml")

		err := os.WriteFile(path, []byte(`left_primer = "ACGGTTACGG"
right_primer = "TGCCAATGCA"
primer_mismatches = 2
min_len = 50
max_len = 450
min_abundance = 75
min_fraction = 0.001
workers = 8
`), 0600)
		So(err, ShouldBeNil)

		config, err := prepare.LoadConfig(path)
		So(err, ShouldBeNil)

		So(config.Options(), ShouldResemble, prepare.Options{
			LeftPrimer:       "ACGGTTACGG",
			RightPrimer:      "TGCCAATGCA",
			PrimerMismatches: 2,
			MinLen:           50,
			MaxLen:           450,
			MinAbundance:     75,
			MinFraction:      0.001,
			Workers:          8,
		})

		Convey("and a malformed file errors", func() {
			So(os.WriteFile(path, []byte("min_len = ["), 0600), ShouldBeNil)

			_, err := prepare.LoadConfig(path)
			So(err, ShouldNotBeNil)
		})
	})
}
