package rtf

import "errors"

var (
	ErrInvalidReferenceOffset = errors.New("dictionary reference offset exceeds 12 bits")
	ErrInvalidReferenceLength = errors.New("dictionary reference length exceeds 17 bytes")
	ErrUnknownCompressionType = errors.New("unrecognized compressed-rtf compression type")
	ErrShortHeader            = errors.New("compressed-rtf header is truncated")
	ErrHeaderSizeMismatch     = errors.New("compressed-rtf header size does not match input length")
	ErrChecksumMismatch       = errors.New("compressed-rtf checksum does not match compressed body")
	ErrTruncatedStream        = errors.New("compressed-rtf control byte references a reference past end of input")
)
