package seq

import "errors"

// ErrTruncatedFastq is returned when a FASTQ stream ends mid-record or a
// record does not start with an @ header.
var ErrTruncatedFastq = errors.New("truncated or malformed fastq record")
