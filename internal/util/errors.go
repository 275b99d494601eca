package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")

	ErrNoRunsFound = errors.New("no run records matched the pattern")
)
