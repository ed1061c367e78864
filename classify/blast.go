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

package classify

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wtsi-hgi/ampliclass/prepare"
	"github.com/wtsi-hgi/ampliclass/refdb"
	"github.com/wtsi-hgi/ampliclass/seq"
)

const (
	defaultBlastMinIdentity = 95
	defaultBlastMinCoverage = 85
	defaultBlastBatchBytes  = 16 * 1024 * 1024

	blastOutFields = 5
)

// blastHit is one parsed line of delegated tabular output. Hit order from
// the external tool is not guaranteed; results are re-assembled in query
// order.
type blastHit struct {
	query    string
	refID    int64
	identity float64
	coverage float64
}

// blast delegates local alignment to an external blastn binary: queries are
// written to batch FASTA files alongside a reference FASTA, and the tabular
// hit list is filtered by percent identity and coverage before being folded
// into the common result shape.
type blast struct {
	refs        []refdb.RefSeq
	taxaByRefID map[int64][]refdb.Taxon
	exe         string
	minIdentity float64
	minCoverage float64
	batchBytes  uint64
}

func newBlast(refs []refdb.RefSeq, opts Options) (*blast, error) {
	b := &blast{
		refs:        refs,
		taxaByRefID: make(map[int64][]refdb.Taxon, len(refs)),
		exe:         opts.BlastPath,
		minIdentity: opts.BlastMinIdentity,
		minCoverage: opts.BlastMinCoverage,
		batchBytes:  opts.BlastBatchBytes,
	}

	if b.exe == "" {
		b.exe = "blastn"
	}

	if b.minIdentity == 0 {
		b.minIdentity = defaultBlastMinIdentity
	}

	if b.minCoverage == 0 {
		b.minCoverage = defaultBlastMinCoverage
	}

	if b.batchBytes == 0 {
		b.batchBytes = defaultBlastBatchBytes
	}

	for _, ref := range refs {
		b.taxaByRefID[ref.ID] = ref.Taxa
	}

	return b, nil
}

func (*blast) name() string { return MethodBlast }

func (b *blast) classify(asvs []prepare.ASV) ([]Result, error) {
	exe, err := exec.LookPath(b.exe)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBlastNotFound, b.exe)
	}

	dir, err := os.MkdirTemp("", "ampliclass-blast-"+uuid.NewString()[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create blast temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	subject, err := b.writeSubjectFasta(dir)
	if err != nil {
		return nil, err
	}

	hitsByQuery := make(map[string][]blastHit)

	for n, batch := range batchASVs(asvs, b.batchBytes) {
		if err := b.runBatch(exe, dir, n, batch, subject, hitsByQuery); err != nil {
			return nil, err
		}
	}

	return b.fold(asvs, hitsByQuery), nil
}

// batchASVs splits queries into FASTA batches bounded by maxBytes of
// sequence, so a huge sample never produces an unbounded request file.
func batchASVs(asvs []prepare.ASV, maxBytes uint64) [][]prepare.ASV {
	var (
		batches [][]prepare.ASV
		current []prepare.ASV
		size    uint64
	)

	for _, asv := range asvs {
		if size+uint64(len(asv.Seq)) > maxBytes && len(current) > 0 {
			batches = append(batches, current)
			current, size = nil, 0
		}

		current = append(current, asv)
		size += uint64(len(asv.Seq))
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

func (b *blast) writeSubjectFasta(dir string) (string, error) {
	path := filepath.Join(dir, "refs.fasta")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to write blast subject fasta: %w", err)
	}

	for _, ref := range b.refs {
		rec := seq.FastaRecord{ID: fmt.Sprintf("ref%d", ref.ID), Seq: ref.Seq}
		if err := seq.WriteFasta(f, rec); err != nil {
			f.Close()

			return "", err
		}
	}

	return path, f.Close()
}

func (b *blast) runBatch(exe, dir string, n int, batch []prepare.ASV,
	subject string, hitsByQuery map[string][]blastHit) error {
	query := filepath.Join(dir, fmt.Sprintf("batch%d.fasta", n))
	out := filepath.Join(dir, fmt.Sprintf("batch%d.tsv", n))

	f, err := os.Create(query)
	if err != nil {
		return fmt.Errorf("failed to write blast query fasta: %w", err)
	}

	for _, asv := range batch {
		if err := seq.WriteFasta(f, seq.FastaRecord{ID: asv.ID(), Seq: asv.Seq}); err != nil {
			f.Close()

			return err
		}
	}

	if err := f.Close(); err != nil {
		return err
	}

	cmd := exec.Command(exe,
		"-task", "blastn",
		"-query", query,
		"-subject", subject,
		"-out", out,
		"-outfmt", "6 qseqid sseqid pident length qlen",
		"-perc_identity", strconv.FormatFloat(b.minIdentity, 'f', -1, 64),
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute blastn: %w: %s", err, string(output))
	}

	return b.parseHits(out, hitsByQuery)
}

func (b *blast) parseHits(path string, hitsByQuery map[string][]blastHit) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read blast output: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		hit, ok := parseHitLine(line)
		if !ok {
			continue
		}

		if hit.identity >= b.minIdentity && hit.coverage >= b.minCoverage {
			hitsByQuery[hit.query] = append(hitsByQuery[hit.query], hit)
		}
	}

	return nil
}

func parseHitLine(line string) (blastHit, bool) {
	cols := strings.Fields(line)
	if len(cols) < blastOutFields {
		return blastHit{}, false
	}

	refID, err := strconv.ParseInt(strings.TrimPrefix(cols[1], "ref"), 10, 64)
	if err != nil {
		return blastHit{}, false
	}

	identity, err := strconv.ParseFloat(cols[2], 64)
	if err != nil {
		return blastHit{}, false
	}

	length, err := strconv.Atoi(cols[3])
	if err != nil {
		return blastHit{}, false
	}

	qlen, err := strconv.Atoi(cols[4])
	if err != nil || qlen == 0 {
		return blastHit{}, false
	}

	return blastHit{
		query:    cols[0],
		refID:    refID,
		identity: identity,
		coverage: float64(length) / float64(qlen) * perfectScore,
	}, true
}

// fold reshapes the surviving hits into one Result per ASV in input order,
// keeping every reference tied at the best identity so ambiguity is retained
// rather than broken by hit order.
func (b *blast) fold(asvs []prepare.ASV, hitsByQuery map[string][]blastHit) []Result {
	results := make([]Result, len(asvs))

	for n, asv := range asvs {
		results[n] = Result{ASV: asv, Method: MethodBlast}

		best := 0.0

		for _, hit := range hitsByQuery[asv.ID()] {
			if hit.identity > best {
				best = hit.identity
			}
		}

		if best == 0 {
			continue
		}

		var groups [][]refdb.Taxon

		for _, hit := range hitsByQuery[asv.ID()] {
			if hit.identity == best {
				groups = append(groups, b.taxaByRefID[hit.refID])
			}
		}

		results[n].Taxa = mergeTaxa(groups...)
		results[n].Score = best
	}

	return results
}
