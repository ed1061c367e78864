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

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	fastaScannerBuffer    = 64 * 1024
	fastaScannerMaxBuffer = 16 * 1024 * 1024
)

// FastaRecord is a single FASTA entry. ID is the first whitespace-delimited
// word of the description line; Description is the remainder, if any.
type FastaRecord struct {
	ID          string
	Description string
	Seq         string
}

// Abundance parses the abundance suffix that prepared-read FASTA files carry
// in their record IDs (`<checksum>_<count>`), returning false when the ID
// carries none.
func (r FastaRecord) Abundance() (int, bool) {
	pos := strings.LastIndexByte(r.ID, '_')
	if pos < 0 {
		return 0, false
	}

	n, err := strconv.Atoi(r.ID[pos+1:])
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

// ReadFasta parses FASTA records from r, calling cb for each one with its
// sequence normalized. A non-nil error from cb aborts the parse and is
// returned.
func ReadFasta(r io.Reader, cb func(FastaRecord) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, fastaScannerBuffer), fastaScannerMaxBuffer)

	var (
		header string
		sb     strings.Builder
	)

	emit := func() error {
		if header == "" {
			return nil
		}

		rec := FastaRecord{Seq: Normalize(sb.String())}
		rec.ID, rec.Description, _ = strings.Cut(header, " ")

		header = ""

		sb.Reset()

		return cb(rec)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := emit(); err != nil {
				return err
			}

			header = strings.TrimSpace(line[1:])

			continue
		}

		sb.WriteString(line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read fasta: %w", err)
	}

	return emit()
}

// WriteFasta writes a single FASTA record to w. The description is omitted
// when empty.
func WriteFasta(w io.Writer, rec FastaRecord) error {
	var err error

	if rec.Description != "" {
		_, err = fmt.Fprintf(w, ">%s %s\n%s\n", rec.ID, rec.Description, rec.Seq)
	} else {
		_, err = fmt.Fprintf(w, ">%s\n%s\n", rec.ID, rec.Seq)
	}

	return err
}
