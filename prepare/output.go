package prepare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wtsi-hgi/ampliclass/seq"
)

// WriteFasta writes a prepared sample's ASVs as FASTA, each record named
// `<checksum>_<abundance>` with the sample recorded in the description, the
// exchange format consumed by classification and edit-graph construction.
func (r Result) WriteFasta(w io.Writer) error {
	for _, asv := range r.ASVs {
		rec := seq.FastaRecord{
			ID:          asv.ID(),
			Description: fmt.Sprintf("sample=%s", asv.Sample),
			Seq:         asv.Seq,
		}

		if err := seq.WriteFasta(w, rec); err != nil {
			return err
		}
	}

	return nil
}

// WriteFastaFile writes the sample's ASVs to <dir>/<sample>.fasta.
func (r Result) WriteFastaFile(dir string) (string, error) {
	path := filepath.Join(dir, r.Sample.Name+".fasta")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create ASV fasta: %w", err)
	}

	if err := r.WriteFasta(f); err != nil {
		f.Close()

		return "", err
	}

	return path, f.Close()
}

// ReadFasta loads a prepared-sample FASTA back into ASVs. The sample name is
// taken from the record descriptions when present, otherwise from the
// fallback (typically the file basename).
func ReadFasta(r io.Reader, fallbackSample string) ([]ASV, error) {
	var asvs []ASV

	err := seq.ReadFasta(r, func(rec seq.FastaRecord) error {
		abundance, ok := rec.Abundance()
		if !ok {
			abundance = 1
		}

		sample := fallbackSample
		if name, found := cutField(rec.Description, "sample="); found {
			sample = name
		}

		asvs = append(asvs, ASV{Seq: rec.Seq, Abundance: abundance, Sample: sample})

		return nil
	})

	return asvs, err
}

// ReadFastaFile loads a prepared-sample FASTA file, using the basename
// (without extension) as the fallback sample name.
func ReadFastaFile(path string) ([]ASV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASV fasta: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	base = base[:len(base)-len(filepath.Ext(base))]

	return ReadFasta(f, base)
}

func cutField(desc, prefix string) (string, bool) {
	for _, field := range strings.Fields(desc) {
		if value, ok := strings.CutPrefix(field, prefix); ok && value != "" {
			return value, true
		}
	}

	return "", false
}
