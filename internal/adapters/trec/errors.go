package trec

import "errors"

var (
	// ErrMalformedLine reports a non-blank line that is not a valid
	// six-column run line.
	ErrMalformedLine = errors.New("malformed run line")
	// ErrLineTooLong reports a line longer than MaxLineLength.
	ErrLineTooLong = errors.New("run line too long")
)
