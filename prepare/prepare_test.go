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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/internal/seqtest"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/seq"
)

const (
	leftPrimer  = "ACGGTTACGG"
	rightPrimer = "TGCCAATGCA"

	ampliconA = "TTTCCGTAGGTGAACCTGCGGAAGGATCAT"
	ampliconB = "CCACACCTAAAAAACTTTCCACGTGAACCG"
	ampliconC = "GGAAGGATCATTACCACACCTAAACCGTGA"
)

// fullRead wraps an amplicon in the test primers the way a sequencer sees
// it.
func fullRead(amplicon string) string {
	return leftPrimer + amplicon + seq.ReverseComplement(rightPrimer)
}

func writeFastq(t *testing.T, path string, reads []string) {
	t.Helper()

	var sb strings.Builder

	for n, read := range reads {
		fmt.Fprintf(&sb, "@read%d\n%s\n+\n%s\n", n, read, strings.Repeat("I", len(read)))
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		t.Fatal(err)
	}
}

func testReads() []string {
	reads := make([]string, 0, 11)

	for i := 0; i < 6; i++ {
		reads = append(reads, fullRead(ampliconA))
	}

	for i := 0; i < 3; i++ {
		reads = append(reads, fullRead(ampliconB))
	}

	reads = append(reads, fullRead(ampliconC))

	return append(reads, ampliconA) // no primers: should be dropped
}

func testOptions() prepare.Options {
	return prepare.Options{
		LeftPrimer:       leftPrimer,
		RightPrimer:      rightPrimer,
		PrimerMismatches: 1,
		MinLen:           10,
		MaxLen:           100,
		MinAbundance:     2,
		MinFraction:      0.1,
		Workers:          2,
	}
}

func TestPrepare(t *testing.T) {
	Convey("Given a single-end fastq sample", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "sample1.fastq")
		writeFastq(t, path, testReads())

		samples := []prepare.Sample{{Name: "sample1", Files: []string{path}}}

		Convey("preparing it trims, dereplicates and filters", func() {
			results, err := prepare.Run(samples, testOptions(), seqtest.QuietLogger())
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 1)

			res := results[0]
			So(res.Stats.TotalReads, ShouldEqual, 11)
			So(res.Stats.PrimerDropped, ShouldEqual, 1)
			So(res.Stats.UniqueSeqs, ShouldEqual, 3)
			So(res.Stats.LowAbundance, ShouldEqual, 1)

			So(len(res.ASVs), ShouldEqual, 2)
			So(res.ASVs[0].Seq, ShouldEqual, ampliconA)
			So(res.ASVs[0].Abundance, ShouldEqual, 6)
			So(res.ASVs[0].Sample, ShouldEqual, "sample1")
			So(res.ASVs[1].Seq, ShouldEqual, ampliconB)
			So(res.ASVs[1].Abundance, ShouldEqual, 3)

			So(res.ASVs[0].ID(), ShouldEqual, seq.Checksum(ampliconA)+"_6")
		})

		Convey("an ASV must clear both abundance floors", func() {
			opts := testOptions()
			opts.MinAbundance = 4 // ampliconB clears the fraction, not this

			results, err := prepare.Run(samples, opts, seqtest.QuietLogger())
			So(err, ShouldBeNil)
			So(len(results[0].ASVs), ShouldEqual, 1)
			So(results[0].ASVs[0].Seq, ShouldEqual, ampliconA)

			opts.MinAbundance = 2
			opts.MinFraction = 0.5 // now the fraction floor rejects it

			results, err = prepare.Run(samples, opts, seqtest.QuietLogger())
			So(err, ShouldBeNil)
			So(len(results[0].ASVs), ShouldEqual, 1)

			Convey("and a zero floor is disabled", func() {
				opts := testOptions()
				opts.MinAbundance = 0
				opts.MinFraction = 0

				results, err := prepare.Run(samples, opts, seqtest.QuietLogger())
				So(err, ShouldBeNil)
				So(len(results[0].ASVs), ShouldEqual, 3)
			})
		})

		Convey("length bounds drop out-of-range sequences", func() {
			opts := testOptions()
			opts.MinLen = 60

			results, err := prepare.Run(samples, opts, seqtest.QuietLogger())
			So(err, ShouldBeNil)
			So(results[0].Stats.LengthDropped, ShouldEqual, 10)
			So(len(results[0].ASVs), ShouldEqual, 0)
		})

		Convey("an unreadable sample is reported but doesn't stop others", func() {
			bad := []prepare.Sample{
				{Name: "missing", Files: []string{filepath.Join(dir, "nope.fastq")}},
				{Name: "sample1", Files: []string{path}},
			}

			results, err := prepare.Run(bad, testOptions(), seqtest.QuietLogger())
			So(err, ShouldNotBeNil)
			So(len(results), ShouldEqual, 2)
			So(len(results[1].ASVs), ShouldEqual, 2)
		})
	})

	Convey("Given a paired-end fastq sample", t, func() {
		dir := t.TempDir()

		full := fullRead(ampliconA)
		fwd := full[:40]
		rev := seq.ReverseComplement(full[10:])

		fwdPath := filepath.Join(dir, "sample2_R1.fastq")
		revPath := filepath.Join(dir, "sample2_R2.fastq")
		writeFastq(t, fwdPath, []string{fwd, fwd, fwd})
		writeFastq(t, revPath, []string{rev, rev, rev})

		samples := []prepare.Sample{{Name: "sample2", Files: []string{fwdPath, revPath}}}

		opts := testOptions()
		opts.MinAbundance = 1
		opts.MinFraction = 0

		Convey("pairs merge into the full amplicon", func() {
			results, err := prepare.Run(samples, opts, seqtest.QuietLogger())
			So(err, ShouldBeNil)
			So(len(results[0].ASVs), ShouldEqual, 1)
			So(results[0].ASVs[0].Seq, ShouldEqual, ampliconA)
			So(results[0].ASVs[0].Abundance, ShouldEqual, 3)
		})

		Convey("unequal pair files are an error", func() {
			writeFastq(t, revPath, []string{rev, rev})

			_, err := prepare.Run(samples, opts, seqtest.QuietLogger())
			So(err, ShouldNotBeNil)
		})
	})
}
