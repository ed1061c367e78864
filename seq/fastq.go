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
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// FastqReader iterates over the 4-line records of a FASTQ stream.
type FastqReader struct {
	scanner *bufio.Scanner
	closers []io.Closer

	// Name and Seq hold the current record after a successful Next.
	Name string
	Seq  string

	err error
}

// OpenFastq opens the given FASTQ file for reading, transparently
// decompressing it when the path ends in .gz.
func OpenFastq(path string) (*FastqReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reads file: %w", err)
	}

	var r io.Reader = f

	closers := []io.Closer{f}

	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()

			return nil, fmt.Errorf("failed to decompress reads file: %w", err)
		}

		r = gz

		closers = append(closers, gz)
	}

	return NewFastqReader(r, closers...), nil
}

// NewFastqReader returns a FastqReader over r, closing any given closers
// when Close is called.
func NewFastqReader(r io.Reader, closers ...io.Closer) *FastqReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, fastaScannerBuffer), fastaScannerMaxBuffer)

	return &FastqReader{scanner: scanner, closers: closers}
}

// Next advances to the next read, returning false at end of input or on
// error; check Err after the loop.
func (f *FastqReader) Next() bool {
	for line := 0; line < 4; line++ {
		if !f.scanner.Scan() {
			f.err = f.scanner.Err()

			if line != 0 && f.err == nil {
				f.err = ErrTruncatedFastq
			}

			return false
		}

		switch line {
		case 0:
			name := f.scanner.Text()
			if !strings.HasPrefix(name, "@") {
				f.err = ErrTruncatedFastq

				return false
			}

			f.Name = strings.TrimPrefix(name, "@")
		case 1:
			f.Seq = Normalize(f.scanner.Text())
		}
	}

	return true
}

// Err returns the first error encountered during iteration, if any.
func (f *FastqReader) Err() error {
	return f.err
}

// Close closes the underlying file handles.
func (f *FastqReader) Close() error {
	var err error

	for i := len(f.closers) - 1; i >= 0; i-- {
		if errc := f.closers[i].Close(); err == nil {
			err = errc
		}
	}

	return err
}
