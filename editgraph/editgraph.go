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

// package editgraph builds a distance graph over a chosen sequence set for
// visualization and QC. Construction avoids all-pairs comparison: candidate
// pairs are generated from shared k-mers (with a bloom filter suppressing
// single-occurrence k-mers) and a length-difference bound, then verified
// with exact bounded edit distance. Candidate generation is heuristic only
// in cost, never in result: the k-mer size is capped so that any two
// sequences within the distance threshold are guaranteed to share a k-mer.

package editgraph

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/willf/bloom"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/seq"
)

// Node sources.
const (
	SourceReference = "reference"
	SourceSample    = "sample"
)

const (
	defaultK         = 16
	bloomBitsPerKmer = 10
	bloomHashes      = 4
)

// Node is one sequence in the graph, tagged with where it came from and the
// labels external visualization tools colour and size by.
type Node struct {
	ID        string
	Seq       string
	Source    string
	Abundance int
	Taxon     string
}

// Edge connects the nodes at indices A and B (A < B) with their exact edit
// distance. Edges are undirected; no self loops; no edge exceeds the build
// threshold.
type Edge struct {
	A, B int
	Dist int
}

// Graph is an edit-distance graph, read-only once built.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Options configures graph construction.
type Options struct {
	// MaxDist is the inclusive edit-distance threshold for edges.
	MaxDist int

	// K is the k-mer size for candidate generation; it is automatically
	// lowered when the shortest sequence and the threshold demand it, so
	// no true pair can be pruned. Defaults to 16.
	K int
}

// NodesFromRefs converts reference sequences into graph nodes labelled with
// their taxon calls.
func NodesFromRefs(refs []refdb.RefSeq) []Node {
	nodes := make([]Node, len(refs))

	for n, ref := range refs {
		names := make([]string, len(ref.Taxa))
		for i, t := range ref.Taxa {
			names[i] = t.Name()
		}

		nodes[n] = Node{
			ID:     fmt.Sprintf("ref%d", ref.ID),
			Seq:    ref.Seq,
			Source: SourceReference,
			Taxon:  strings.Join(names, ";"),
		}
	}

	return nodes
}

// NodesFromASVs converts prepared sample ASVs into graph nodes carrying
// their abundances.
func NodesFromASVs(asvs []prepare.ASV) []Node {
	nodes := make([]Node, len(asvs))

	for n, asv := range asvs {
		nodes[n] = Node{
			ID:        asv.Sample + ":" + asv.ID(),
			Seq:       asv.Seq,
			Source:    SourceSample,
			Abundance: asv.Abundance,
		}
	}

	return nodes
}

// Build constructs the edit graph over the given nodes.
func Build(nodes []Node, opts Options) *Graph {
	g := &Graph{Nodes: nodes}

	if opts.MaxDist <= 0 || len(nodes) < 2 {
		return g
	}

	k := effectiveK(nodes, opts)

	for pair := range candidatePairs(nodes, k, opts.MaxDist) {
		a, b := int(pair>>32), int(pair&0xffffffff)

		if dist, ok := seq.EditDistanceWithin(nodes[a].Seq, nodes[b].Seq, opts.MaxDist); ok {
			g.Edges = append(g.Edges, Edge{A: a, B: b, Dist: dist})
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].A != g.Edges[j].A {
			return g.Edges[i].A < g.Edges[j].A
		}

		return g.Edges[i].B < g.Edges[j].B
	})

	return g
}

// effectiveK caps the k-mer size by the q-gram guarantee: two sequences of
// length >= L within distance d always share a k-mer when k <= L/(d+1).
func effectiveK(nodes []Node, opts Options) int {
	k := opts.K
	if k <= 0 {
		k = defaultK
	}

	minLen := len(nodes[0].Seq)
	for _, node := range nodes[1:] {
		if len(node.Seq) < minLen {
			minLen = len(node.Seq)
		}
	}

	if maxK := minLen / (opts.MaxDist + 1); maxK < k {
		k = maxK
	}

	return max(k, 1)
}

// candidatePairs yields each unordered index pair (packed a<<32|b, a < b)
// that shares at least one k-mer and is within the length-difference bound.
// A first pass marks k-mers seen more than once via a bloom filter; postings
// are then only collected for those, since a k-mer seen once can never pair.
func candidatePairs(nodes []Node, k, maxDist int) map[uint64]struct{} {
	totalKmers := 0
	for _, node := range nodes {
		if len(node.Seq) >= k {
			totalKmers += len(node.Seq) - k + 1
		}
	}

	filter := bloom.New(uint(max(totalKmers, 1))*bloomBitsPerKmer, bloomHashes)
	shared := make(map[uint32]struct{})

	var buf [4]byte

	for _, node := range nodes {
		for _, h := range dedupeHashes(seq.Kmers(node.Seq, k)) {
			binary.LittleEndian.PutUint32(buf[:], h)

			if filter.TestAndAdd(buf[:]) {
				shared[h] = struct{}{}
			}
		}
	}

	postings := make(map[uint32][]int)

	for n, node := range nodes {
		for _, h := range dedupeHashes(seq.Kmers(node.Seq, k)) {
			if _, ok := shared[h]; ok {
				postings[h] = append(postings[h], n)
			}
		}
	}

	pairs := make(map[uint64]struct{})

	for _, indices := range postings {
		for i := 0; i < len(indices); i++ {
			for j := i + 1; j < len(indices); j++ {
				a, b := indices[i], indices[j]

				if diff := len(nodes[a].Seq) - len(nodes[b].Seq); diff > maxDist || -diff > maxDist {
					continue
				}

				pairs[uint64(a)<<32|uint64(b)] = struct{}{}
			}
		}
	}

	return pairs
}

// dedupeHashes removes repeats so a sequence containing the same k-mer twice
// doesn't mark it shared on its own.
func dedupeHashes(hashes []uint32) []uint32 {
	if len(hashes) < 2 {
		return hashes
	}

	seen := make(map[uint32]struct{}, len(hashes))
	out := hashes[:0]

	for _, h := range hashes {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}

			out = append(out, h)
		}
	}

	return out
}
