package pst

import (
	"errors"
	"fmt"
	"io"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/rtf"
	"github.com/pstkit/pst/messaging"
)

// ErrorKind classifies why a call into this package failed, mirroring
// the ten-way taxonomy every internal layer's sentinel errors already
// fall into. Library callers that only import the root package can
// switch on Kind without reaching into internal/* error values.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindIO
	KindCorruptContainer
	KindInvalidAddress
	KindPageFormatError
	KindBlockFormatError
	KindEntryNotFound
	KindMissingProperty
	KindWrongPropertyType
	KindUnsupportedVariant
	KindDictionaryError
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindCorruptContainer:
		return "corrupt container"
	case KindInvalidAddress:
		return "invalid address"
	case KindPageFormatError:
		return "page format error"
	case KindBlockFormatError:
		return "block format error"
	case KindEntryNotFound:
		return "entry not found"
	case KindMissingProperty:
		return "missing property"
	case KindWrongPropertyType:
		return "wrong property type"
	case KindUnsupportedVariant:
		return "unsupported variant"
	case KindDictionaryError:
		return "dictionary error"
	default:
		return "unknown"
	}
}

// Error is the uniform wrapper every exported operation in this package
// returns: a classified Kind, a short description of what was being
// decoded, and the underlying cause from whichever internal layer
// surfaced it first. EntryNotFound is the one Kind callers are expected
// to treat as routine; check for it through Kind (KindEntryNotFound)
// rather than a sentinel, since the underlying cause varies by layer.
type Error struct {
	Kind    ErrorKind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pst: %s: %s: %v", e.Kind, e.Context, e.Cause)
}

// Unwrap exposes the original internal-layer error to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// wrap classifies cause and attaches context, or returns nil if cause is
// nil. Façades that already return a *messaging.* sentinel-wrapped error
// pass it through wrap so every path out of this package carries the
// same shape, per §7's "every layer surfaces lower-layer errors
// unchanged, façades translate raw errors" propagation policy.
func wrap(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: classify(cause), Context: context, Cause: cause}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ndb.ErrHeaderMagic),
		errors.Is(err, ndb.ErrHeaderCRC),
		errors.Is(err, ndb.ErrHeaderSentinel),
		errors.Is(err, ndb.ErrInvalidNDBVersion),
		errors.Is(err, ndb.ErrInvalidCryptMethod):
		return KindCorruptContainer

	case errors.Is(err, ndb.ErrInvalidNodeIndex),
		errors.Is(err, ndb.ErrInvalidBlockIndex),
		errors.Is(err, ltp.ErrInvalidHeapAddress),
		errors.Is(err, messaging.ErrInvalidEntryID):
		return KindInvalidAddress

	case errors.Is(err, ndb.ErrPageTrailerType),
		errors.Is(err, ndb.ErrPageSignature),
		errors.Is(err, ndb.ErrPageCRC):
		return KindPageFormatError

	case errors.Is(err, ndb.ErrBlockSignature),
		errors.Is(err, ndb.ErrBlockCRC),
		errors.Is(err, ndb.ErrUnsupportedBlockType),
		errors.Is(err, ndb.ErrCorruptDataTree),
		errors.Is(err, ndb.ErrCorruptSubNodeTree),
		errors.Is(err, ndb.ErrInvalidBlockRole):
		return KindBlockFormatError

	case errors.Is(err, ndb.ErrBTreeEntryNotFound),
		errors.Is(err, ltp.ErrBTHKeyNotFound),
		errors.Is(err, messaging.ErrNamedPropertyNotFound):
		return KindEntryNotFound

	case errors.Is(err, ltp.ErrMissingProperty):
		return KindMissingProperty

	case errors.Is(err, ltp.ErrWrongPropertyType):
		return KindWrongPropertyType

	case errors.Is(err, ltp.ErrUnsupportedPropertyType),
		errors.Is(err, messaging.ErrInvalidAttachMethod):
		return KindUnsupportedVariant

	case errors.Is(err, rtf.ErrInvalidReferenceOffset),
		errors.Is(err, rtf.ErrInvalidReferenceLength),
		errors.Is(err, rtf.ErrChecksumMismatch),
		errors.Is(err, rtf.ErrHeaderSizeMismatch),
		errors.Is(err, rtf.ErrShortHeader),
		errors.Is(err, rtf.ErrTruncatedStream),
		errors.Is(err, rtf.ErrUnknownCompressionType):
		return KindDictionaryError

	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return KindIO

	default:
		return KindUnknown
	}
}
