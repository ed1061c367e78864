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
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/ampliclass/refdb"
)

// conflictsCmd represents the conflicts command.
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report reference sequences associated with multiple genera",
	Long: `Report reference sequences associated with multiple genera.

A sequence shared by species of different genera cannot give an unambiguous
genus-level call, which usually indicates a mislabelled reference record.
Each such sequence is listed with the genera claiming it.

Exits non-zero when any conflicts are found, so this can gate a database
build in scripts.`,
	Run: func(_ *cobra.Command, _ []string) {
		setCLIFormat()

		store, err := refdb.OpenReadOnly(databasePath())
		if err != nil {
			die("%s", err)
		}

		defer store.Close()

		conflicts, err := store.Conflicts()
		if err != nil {
			die("%s", err)
		}

		if len(conflicts) == 0 {
			cliPrint("no genus conflicts found\n")

			return
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Sequence", "Length", "Genera"})

		for _, c := range conflicts {
			table.Append([]string{
				truncateSeq(c.Seq),
				strconv.Itoa(len(c.Seq)),
				strings.Join(c.Genera, ", "),
			})
		}

		table.Render()

		die("%d sequences have genus conflicts", len(conflicts))
	},
}

// truncateSeq shortens long sequences for display; the checksum-sized prefix
// is enough to find the record again.
func truncateSeq(s string) string {
	const max = 32

	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}

func init() {
	RootCmd.AddCommand(conflictsCmd)
}
