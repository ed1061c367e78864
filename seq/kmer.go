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

package seq

import "github.com/chmduquesne/rollinghash/buzhash32"

// Kmers returns the rolling buzhash32 of every k-length window of s, in
// order. Sequences shorter than k yield nil.
func Kmers(s string, k int) []uint32 {
	if k <= 0 || len(s) < k {
		return nil
	}

	data := []byte(s)
	h := buzhash32.New()
	h.Write(data[:k]) //nolint:errcheck

	hashes := make([]uint32, 0, len(s)-k+1)
	hashes = append(hashes, h.Sum32())

	for i := k; i < len(data); i++ {
		h.Roll(data[i])
		hashes = append(hashes, h.Sum32())
	}

	return hashes
}
