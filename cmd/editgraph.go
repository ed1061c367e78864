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

package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/editgraph"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

var (
	graphOut     string
	graphMaxDist int
	graphK       int
	graphShowDB  bool
)

// editGraphCmd represents the edit-graph command.
var editGraphCmd = &cobra.Command{
	Use:   "edit-graph [prepared fasta files...]",
	Short: "Build a sequence edit-distance graph as GraphML",
	Long: `Build a sequence edit-distance graph as GraphML.

Nodes are the ASVs of the given prepared fasta files plus, with --showdb,
every reference sequence in the database. An undirected edge connects each
pair of nodes whose exact edit distance is within --maxdist. Candidate
pairs are found by shared k-mers, so all-against-all comparison is avoided
without losing any true edge.

The GraphML output carries sequence, abundance, taxon and source labels for
each node and the distance for each edge, for layout and colouring in
external tools such as Cytoscape.

With no input files and --showdb, the graph covers the database alone,
which visualizes how separable its species are at the chosen distance.`,
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		if len(args) == 0 && !graphShowDB {
			die("provide prepared fasta files, --showdb, or both")
		}

		var nodes []editgraph.Node

		if graphShowDB {
			nodes = append(nodes, referenceNodes()...)
		}

		for _, path := range args {
			asvs, err := prepare.ReadFastaFile(path)
			if err != nil {
				die("%s: %s", path, err)
			}

			nodes = append(nodes, editgraph.NodesFromASVs(asvs)...)
		}

		graph := editgraph.Build(nodes, editgraph.Options{MaxDist: graphMaxDist, K: graphK})

		writeGraph(graph)

		info("built graph with %s nodes and %s edges",
			humanize.Comma(int64(len(graph.Nodes))), humanize.Comma(int64(len(graph.Edges))))
	},
}

func referenceNodes() []editgraph.Node {
	store, err := refdb.OpenReadOnly(databasePath())
	if err != nil {
		die("%s", err)
	}

	defer store.Close()

	refs, err := store.Sequences()
	if err != nil {
		die("%s", err)
	}

	return editgraph.NodesFromRefs(refs)
}

func writeGraph(graph *editgraph.Graph) {
	out := os.Stdout

	if graphOut != "" {
		f, err := os.Create(graphOut)
		if err != nil {
			die("%s", err)
		}

		defer f.Close()

		out = f
	}

	if err := graph.WriteGraphML(out); err != nil {
		die("%s", err)
	}
}

func init() {
	RootCmd.AddCommand(editGraphCmd)

	editGraphCmd.Flags().StringVarP(&graphOut, "output", "o", "", "write GraphML to this path instead of stdout")
	editGraphCmd.Flags().IntVar(&graphMaxDist, "maxdist", 3, "inclusive edit-distance threshold for edges")
	editGraphCmd.Flags().IntVarP(&graphK, "kmer", "k", 0, "k-mer size for candidate generation (0 = automatic)")
	editGraphCmd.Flags().BoolVar(&graphShowDB, "showdb", false, "include every database reference sequence as a node")
}
