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

package refdb

// Error is the custom error type for the refdb package.
type Error string

const (
	// ErrDBExists is returned when attempting to create a database that
	// already exists.
	ErrDBExists = Error("reference database already exists")
	// ErrDBNotExists is returned when attempting to open a database that
	// doesn't exist.
	ErrDBNotExists = Error("reference database doesn't exist")
	// ErrSchemaMismatch is returned when an opened database carries an
	// unexpected schema version.
	ErrSchemaMismatch = Error("reference database schema version mismatch")
	// ErrUnknownTaxon is returned by strict imports for sequences whose
	// asserted species fails taxonomy validation.
	ErrUnknownTaxon = Error("species not present in taxon table")
	// ErrInvalidSequence is returned for sequences containing non-IUPAC
	// characters after normalization.
	ErrInvalidSequence = Error("sequence contains invalid characters")
	// ErrBadDump is returned when loading a dump file that is malformed or
	// has an unrecognised header.
	ErrBadDump = Error("malformed reference database dump")
)

func (e Error) Error() string { return string(e) }
