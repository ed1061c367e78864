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

// package seq provides nucleotide sequence primitives shared by read
// preparation, classification and edit-graph construction: normalization,
// bounded edit distance, k-mer signatures, primer matching and FASTA/FASTQ
// IO.

package seq

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"strings"
)

// complements maps each IUPAC nucleotide code to its complement. Bytes not
// present in the table are invalid.
var complements = map[byte]byte{ //nolint:gochecknoglobals
	'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G',
	'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W',
	'K': 'M', 'M': 'K', 'B': 'V', 'V': 'B',
	'D': 'H', 'H': 'D', 'N': 'N',
}

// Normalize returns the canonical form of a nucleotide sequence: upper-cased
// with all whitespace and gap characters removed. Identical biological
// content always normalizes to identical strings, which is what the
// reference store uses as its deduplication key.
func Normalize(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case ' ', '\t', '\r', '\n', '-', '.':
			continue
		}

		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}

		sb.WriteByte(c)
	}

	return sb.String()
}

// Valid reports whether every byte of the (normalized) sequence is an IUPAC
// nucleotide code.
func Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, ok := complements[s[i]]; !ok {
			return false
		}
	}

	return len(s) > 0
}

// ReverseComplement returns the reverse complement of the given sequence.
// Invalid bytes are passed through as 'N'.
func ReverseComplement(s string) string {
	b := make([]byte, len(s))

	for i := 0; i < len(s); i++ {
		c, ok := complements[s[len(s)-1-i]]
		if !ok {
			c = 'N'
		}

		b[i] = c
	}

	return string(b)
}

// Checksum returns the hex MD5 of the sequence, used as a stable,
// order-independent identifier for ASVs in FASTA output and reports.
func Checksum(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// BaseCounts packs the number of A, C, G and T bases into a uint64 (16 bits
// each). Two sequences within edit distance 1 of each other can differ by at
// most one in any one count, so comparing packed counts is a cheap
// discriminating signature for candidate shortlisting.
func BaseCounts(s string) uint64 {
	var counts [4]uint16

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A':
			counts[0]++
		case 'C':
			counts[1]++
		case 'G':
			counts[2]++
		case 'T':
			counts[3]++
		}
	}

	return uint64(counts[0])<<48 | uint64(counts[1])<<32 | uint64(counts[2])<<16 | uint64(counts[3])
}

// CountsCompatible reports whether two packed base-count signatures could
// belong to sequences within the given edit distance: each per-base count
// must differ by no more than maxDist, and so must the total lengths, since
// an insertion or deletion shifts the length by exactly one.
func CountsCompatible(a, b uint64, maxDist int) bool {
	var lenA, lenB int

	for shift := 0; shift < 64; shift += 16 {
		ca := int(a >> shift & 0xffff)
		cb := int(b >> shift & 0xffff)

		if ca-cb > maxDist || cb-ca > maxDist {
			return false
		}

		lenA += ca
		lenB += cb
	}

	return lenA-lenB <= maxDist && lenB-lenA <= maxDist
}
