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

package editgraph_test

import (
	"math/rand"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/ampliclass/editgraph"
	"github.com/wtsi-hgi/ampliclass/internal/seqtest"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/seq"
)

func seqNodes(seqs ...string) []editgraph.Node {
	nodes := make([]editgraph.Node, len(seqs))
	for n, s := range seqs {
		nodes[n] = editgraph.Node{ID: s[:8], Seq: s, Source: editgraph.SourceSample}
	}

	return nodes
}

func TestBuild(t *testing.T) {
	Convey("Given sequences at known distances", t, func() {
		rng := rand.New(rand.NewSource(42))

		base := seqtest.RandomSeq(rng, 200)
		oneOff := seqtest.Substitute(rng, base, 1)
		threeOff := seqtest.Substitute(rng, base, 3)
		far := seqtest.RandomSeq(rng, 200)

		nodes := seqNodes(base, oneOff, threeOff, far)

		Convey("edges connect exactly the pairs within the threshold", func() {
			graph := editgraph.Build(nodes, editgraph.Options{MaxDist: 1})

			So(len(graph.Edges), ShouldEqual, 1)
			So(graph.Edges[0].A, ShouldEqual, 0)
			So(graph.Edges[0].B, ShouldEqual, 1)
			So(graph.Edges[0].Dist, ShouldEqual, 1)
		})

		Convey("a wider threshold adds the more distant pairs", func() {
			graph := editgraph.Build(nodes, editgraph.Options{MaxDist: 4})

			for _, e := range graph.Edges {
				So(e.A, ShouldBeLessThan, e.B)
				So(e.Dist, ShouldBeLessThanOrEqualTo, 4)
				So(e.Dist, ShouldBeGreaterThan, 0)

				dist, ok := seq.EditDistanceWithin(nodes[e.A].Seq, nodes[e.B].Seq, 4)
				So(ok, ShouldBeTrue)
				So(dist, ShouldEqual, e.Dist)
			}

			So(hasEdge(graph, 0, 1), ShouldBeTrue)
			So(hasEdge(graph, 0, 2), ShouldBeTrue)
			So(hasEdge(graph, 0, 3), ShouldBeFalse)
		})

		Convey("no true pair is lost to candidate pruning", func() {
			// many clustered sequences: every within-threshold pair
			// found by brute force must appear as an edge
			cluster := make([]string, 0, 40)

			for i := 0; i < 10; i++ {
				centre := seqtest.RandomSeq(rng, 150)

				for j := 0; j < 4; j++ {
					cluster = append(cluster, seqtest.Substitute(rng, centre, rng.Intn(4)))
				}
			}

			nodes := seqNodes(cluster...)
			graph := editgraph.Build(nodes, editgraph.Options{MaxDist: 3})

			for a := range nodes {
				for b := a + 1; b < len(nodes); b++ {
					if dist, ok := seq.EditDistanceWithin(nodes[a].Seq, nodes[b].Seq, 3); ok && dist > 0 {
						So(hasEdge(graph, a, b), ShouldBeTrue)
					}
				}
			}
		})

		Convey("a zero threshold or a single node yields no edges", func() {
			So(editgraph.Build(nodes, editgraph.Options{}).Edges, ShouldBeEmpty)
			So(editgraph.Build(nodes[:1], editgraph.Options{MaxDist: 3}).Edges, ShouldBeEmpty)
		})
	})
}

func hasEdge(g *editgraph.Graph, a, b int) bool {
	for _, e := range g.Edges {
		if e.A == a && e.B == b {
			return true
		}
	}

	return false
}

func TestNodes(t *testing.T) {
	Convey("Nodes carry their source labels", t, func() {
		refs := []refdb.RefSeq{{
			ID:  7,
			Seq: "ACGTACGTACGTACGTACGT",
			Taxa: []refdb.Taxon{
				{Genus: "Phytophthora", Species: "austrocedri"},
				{Genus: "Phytophthora", Species: "cambivora"},
			},
		}}

		nodes := editgraph.NodesFromRefs(refs)
		So(len(nodes), ShouldEqual, 1)
		So(nodes[0].ID, ShouldEqual, "ref7")
		So(nodes[0].Source, ShouldEqual, editgraph.SourceReference)
		So(nodes[0].Taxon, ShouldEqual, "Phytophthora austrocedri;Phytophthora cambivora")

		asvs := []prepare.ASV{{Seq: "TTTTACGTACGTACGTAAAA", Abundance: 6, Sample: "sample1"}}

		nodes = editgraph.NodesFromASVs(asvs)
		So(len(nodes), ShouldEqual, 1)
		So(nodes[0].ID, ShouldEqual, "sample1:"+asvs[0].ID())
		So(nodes[0].Source, ShouldEqual, editgraph.SourceSample)
		So(nodes[0].Abundance, ShouldEqual, 6)
	})
}

func TestGraphML(t *testing.T) {
	Convey("A graph serialises to GraphML", t, func() {
		nodes := []editgraph.Node{
			{ID: "a", Seq: "ACGTACGTACGTACGTACGTACGTACGTAC", Source: editgraph.SourceReference, Taxon: "Phytophthora austrocedri"},
			{ID: "b", Seq: "ACGTACGTACGTACGTACGTACGTACGTAG", Source: editgraph.SourceSample, Abundance: 12},
		}

		graph := editgraph.Build(nodes, editgraph.Options{MaxDist: 2})
		So(len(graph.Edges), ShouldEqual, 1)

		var sb strings.Builder

		So(graph.WriteGraphML(&sb), ShouldBeNil)

		out := sb.String()
		So(out, ShouldStartWith, "<?xml")
		So(out, ShouldContainSubstring, `xmlns="http://graphml.graphdrawing.org/xmlns"`)
		So(out, ShouldContainSubstring, `edgedefault="undirected"`)
		So(out, ShouldContainSubstring, `<node id="n0">`)
		So(out, ShouldContainSubstring, `<data key="taxon">Phytophthora austrocedri</data>`)
		So(out, ShouldContainSubstring, `<data key="abundance">12</data>`)
		So(out, ShouldContainSubstring, `<edge source="n0" target="n1">`)
		So(out, ShouldContainSubstring, `<data key="distance">1</data>`)
	})
}
