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

// EditDistance returns the Levenshtein distance between a and b, using two
// rolling rows of the standard dynamic programme.
func EditDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// EditDistanceWithin returns the edit distance between a and b if it does
// not exceed maxDist, along with true; otherwise it returns 0 and false. It
// runs the dynamic programme inside a band of width 2*maxDist+1, so the cost
// is O(len(a)*maxDist) rather than O(len(a)*len(b)).
func EditDistanceWithin(a, b string, maxDist int) (int, bool) {
	if maxDist < 0 {
		return 0, false
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	if len(b)-len(a) > maxDist {
		return 0, false
	}

	if maxDist == 1 {
		return withinOne(a, b)
	}

	return bandedDistance(a, b, maxDist)
}

func bandedDistance(a, b string, maxDist int) (int, bool) {
	const inf = 1 << 29

	width := 2*maxDist + 1
	prev := make([]int, width)
	curr := make([]int, width)

	// cell (i, j) of the full matrix lives at curr[j-i+maxDist].
	for d := 0; d < width; d++ {
		if j := d - maxDist; j >= 0 && j <= len(b) {
			prev[d] = j
		} else {
			prev[d] = inf
		}
	}

	for i := 1; i <= len(a); i++ {
		for d := 0; d < width; d++ {
			j := i + d - maxDist
			if j < 0 || j > len(b) {
				curr[d] = inf

				continue
			}

			best := inf

			if j > 0 && i+d-maxDist-1 >= 0 {
				cost := 1
				if a[i-1] == b[j-1] {
					cost = 0
				}

				best = prev[d] + cost // diagonal keeps the same band offset
			}

			if d > 0 && curr[d-1] < inf && curr[d-1]+1 < best {
				best = curr[d-1] + 1
			}

			if d < width-1 && prev[d+1] < inf && prev[d+1]+1 < best {
				best = prev[d+1] + 1
			}

			curr[d] = best
		}

		prev, curr = curr, prev
	}

	dist := prev[len(b)-len(a)+maxDist]
	if dist > maxDist {
		return 0, false
	}

	return dist, true
}

// withinOne is a direct scan for edit distance <= 1, avoiding the dynamic
// programme for the overwhelmingly common onebp case.
func withinOne(a, b string) (int, bool) {
	switch len(b) - len(a) {
	case 0:
		diffs := 0

		for i := 0; i < len(a); i++ {
			if a[i] != b[i] {
				if diffs++; diffs > 1 {
					return 0, false
				}
			}
		}

		return diffs, true
	case 1:
		// b has one extra base; find the divergence point and require the
		// remainder of a to match b shifted by one.
		i := 0
		for i < len(a) && a[i] == b[i] {
			i++
		}

		if a[i:] == b[i+1:] {
			return 1, true
		}

		return 0, false
	default:
		return 0, false
	}
}
