package messaging

import "errors"

var (
	ErrNamedPropertyNotFound    = errors.New("named property not found")
	ErrCorruptNamedPropertyMap  = errors.New("named property map streams are malformed")
	ErrNotAFolder               = errors.New("node is not a folder")
	ErrNotAMessage              = errors.New("node is not a message")
	ErrNotAnAttachment          = errors.New("node is not an attachment")
	ErrInvalidEntryID           = errors.New("entry id is the wrong size or shape")
	ErrEntryIDWrongStore        = errors.New("entry id's record key does not match this store")
	ErrMessageHasNoSubNodes     = errors.New("message has no sub-node tree")
	ErrInvalidAttachMethod      = errors.New("unrecognized attachment method")
	ErrAttachmentNoPayload      = errors.New("attachment method carries no payload in this format")
	ErrInvalidSearchQueueOffset = errors.New("search-update queue cursor is not a multiple of the record size")
)
