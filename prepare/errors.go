package prepare

import "errors"

var (
	// ErrBadSample is returned for samples with other than 1 or 2 read
	// files.
	ErrBadSample = errors.New("sample must have one or two read files")
	// ErrUnpairedReads is returned when paired files have differing read
	// counts.
	ErrUnpairedReads = errors.New("paired read files have differing read counts")
)
