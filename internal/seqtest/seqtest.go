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

// package seqtest provides sequence generators and fixtures shared by tests.
package seqtest

import (
	"math/rand"
	"strings"

	"github.com/inconshreveable/log15"
)

const bases = "ACGT"

// QuietLogger returns a logger that discards everything, for exercising code
// paths that log without polluting test output.
func QuietLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())

	return l
}

// RandomSeq returns a random nucleotide sequence of length n.
func RandomSeq(rng *rand.Rand, n int) string {
	var sb strings.Builder

	for i := 0; i < n; i++ {
		sb.WriteByte(bases[rng.Intn(4)])
	}

	return sb.String()
}

// Substitute returns s with the given number of random substitutions, each
// guaranteed to change its base. Positions may repeat, so the edit distance
// from s is between 1 and edits (for edits >= 1).
func Substitute(rng *rand.Rand, s string, edits int) string {
	b := []byte(s)

	for i := 0; i < edits; i++ {
		pos := rng.Intn(len(b))

		old := b[pos]
		for b[pos] == old {
			b[pos] = bases[rng.Intn(4)]
		}
	}

	return string(b)
}

// Mutate returns s with the given number of random substitutions, deletions
// or insertions applied.
func Mutate(rng *rand.Rand, s string, edits int) string {
	b := []byte(s)

	for i := 0; i < edits; i++ {
		if len(b) == 0 {
			break
		}

		pos := rng.Intn(len(b))

		switch rng.Intn(3) {
		case 0:
			b[pos] = bases[rng.Intn(4)]
		case 1:
			b = append(b[:pos], b[pos+1:]...)
		default:
			b = append(b[:pos], append([]byte{bases[rng.Intn(4)]}, b[pos:]...)...)
		}
	}

	return string(b)
}
