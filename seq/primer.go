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

// maxPrimerShift is how far from the expected anchor point a primer is
// allowed to start, to tolerate leading adapter remnants.
const maxPrimerShift = 8

// iupacMatch reports whether the primer byte p (which may be an IUPAC
// ambiguity code) matches the read base b.
func iupacMatch(p, b byte) bool {
	if p == b || p == 'N' {
		return true
	}

	switch p {
	case 'R':
		return b == 'A' || b == 'G'
	case 'Y':
		return b == 'C' || b == 'T'
	case 'S':
		return b == 'G' || b == 'C'
	case 'W':
		return b == 'A' || b == 'T'
	case 'K':
		return b == 'G' || b == 'T'
	case 'M':
		return b == 'A' || b == 'C'
	case 'B':
		return b != 'A'
	case 'D':
		return b != 'C'
	case 'H':
		return b != 'G'
	case 'V':
		return b != 'T'
	}

	return false
}

func mismatchesAt(read, primer string, offset, maxMismatch int) (int, bool) {
	if offset+len(primer) > len(read) {
		return 0, false
	}

	mismatches := 0

	for i := 0; i < len(primer); i++ {
		if !iupacMatch(primer[i], read[offset+i]) {
			if mismatches++; mismatches > maxMismatch {
				return 0, false
			}
		}
	}

	return mismatches, true
}

// FindLeftPrimer locates the left primer anchored near the start of a read,
// allowing up to maxMismatch substitutions, and returns the index just past
// the primer. An empty primer trivially matches at position 0.
func FindLeftPrimer(read, primer string, maxMismatch int) (int, bool) {
	if primer == "" {
		return 0, true
	}

	best, bestEnd, found := maxMismatch+1, 0, false

	for offset := 0; offset <= maxPrimerShift; offset++ {
		if m, ok := mismatchesAt(read, primer, offset, maxMismatch); ok && m < best {
			best, bestEnd, found = m, offset+len(primer), true
		}
	}

	return bestEnd, found
}

// FindRightPrimer locates the reverse complement of the right primer
// anchored near the end of a read and returns the index where it starts, ie.
// the end of the biological region. An empty primer trivially matches at the
// end of the read.
func FindRightPrimer(read, primer string, maxMismatch int) (int, bool) {
	if primer == "" {
		return len(read), true
	}

	rc := ReverseComplement(primer)
	best, bestStart, found := maxMismatch+1, 0, false

	for shift := 0; shift <= maxPrimerShift; shift++ {
		offset := len(read) - len(rc) - shift
		if offset < 0 {
			break
		}

		if m, ok := mismatchesAt(read, rc, offset, maxMismatch); ok && m < best {
			best, bestStart, found = m, offset, true
		}
	}

	return bestStart, found
}

// TrimPrimers strips the left primer and the (reverse-complemented) right
// primer from a read. Reads missing either primer within tolerance are
// rejected: they are the caller's to count, not an error.
func TrimPrimers(read, left, right string, maxMismatch int) (string, bool) {
	start, ok := FindLeftPrimer(read, left, maxMismatch)
	if !ok {
		return "", false
	}

	end, ok := FindRightPrimer(read, right, maxMismatch)
	if !ok || end < start {
		return "", false
	}

	return read[start:end], true
}
