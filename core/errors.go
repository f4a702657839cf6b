package core

import "errors"

// Sentinel errors for the extraction and validation layers.
var (
	// ErrUnsupportedDocument means the input media cannot be treated as text.
	// Fatal for the document, never for a batch.
	ErrUnsupportedDocument = errors.New("unsupported document content")

	// ErrUnparsableToken means a raw token could not be normalized into the
	// expected value kind. Always recovered locally by omitting the field.
	ErrUnparsableToken = errors.New("unparsable token")

	// ErrInvalidStatus means a status string matched neither the enum nor
	// the synonym table.
	ErrInvalidStatus = errors.New("invalid status")
)
