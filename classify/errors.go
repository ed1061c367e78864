package classify

import "errors"

var (
	// ErrUnknownMethod is returned by New for an unrecognised method name.
	ErrUnknownMethod = errors.New("unknown classification method")
	// ErrNoMethods is returned by New when no methods are requested.
	ErrNoMethods = errors.New("no classification methods requested")
	// ErrBlastNotFound is returned when the delegated blastn binary cannot
	// be located; fatal for the blast method only.
	ErrBlastNotFound = errors.New("blastn binary not found; install BLAST+ or set its path")
)
